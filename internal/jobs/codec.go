package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendVerificationCode:
		if _, ok := payload.(SendVerificationCodePayload); !ok {
			if _, ok2 := payload.(*SendVerificationCodePayload); !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}

	case JobSendWelcome:
		if _, ok := payload.(SendWelcomePayload); !ok {
			if _, ok2 := payload.(*SendWelcomePayload); !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals raw payload bytes into the typed payload struct
// for the given job type.
func DecodePayload(t JobType, raw []byte) (any, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobSendVerificationCode:
		var p SendVerificationCodePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	case JobSendWelcome:
		var p SendWelcomePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSendVerificationCode:
		var p SendVerificationCodePayload
		switch v := payload.(type) {
		case SendVerificationCodePayload:
			p = v
		case *SendVerificationCodePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.Email) == "" || trim(p.Code) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobSendWelcome:
		var p SendWelcomePayload
		switch v := payload.(type) {
		case SendWelcomePayload:
			p = v
		case *SendWelcomePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.Email) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
