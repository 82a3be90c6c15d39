package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// EventCursor is an opaque keyset position in (date, id) order.
type EventCursor struct {
	Date time.Time `json:"date"`
	ID   string    `json:"id"`
}

func EncodeEventCursor(c EventCursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeEventCursor(cursor string) (EventCursor, error) {
	if cursor == "" {
		return EventCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return EventCursor{}, err
	}

	var c EventCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return EventCursor{}, err
	}
	if c.ID == "" || c.Date.IsZero() {
		return EventCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
