package event

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Verification markers stamped at creation time from the author's role.
const (
	MarkerFacultyAuthored = "N/A"
	MarkerPendingReview   = "Pending"
)

type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        time.Time `json:"date"`
	Time        string   `json:"time"`
	Venue       string   `json:"venue"`
	Departments []string `json:"departments"`
	Categories  []string `json:"categories"`
	Organizers  []string `json:"organizers"`

	ContactEmail  string `json:"contactEmail,omitempty"`
	ContactPhone  string `json:"contactPhone,omitempty"`
	GoogleForm    string `json:"googleForm,omitempty"`
	VolunteerForm string `json:"volunteerForm,omitempty"`

	AddedBy   string  `json:"addedBy"`
	UpdatedBy *string `json:"updatedBy,omitempty"`

	// "N/A" for faculty-authored events, "Pending" for student-authored ones
	VerifiedByMarker string `json:"verifiedBy"`

	HasMainImage bool `json:"hasMainImage"`
	HasQRImage   bool `json:"hasQrImage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Image is a stored binary blob plus its media type.
type Image struct {
	Data        []byte
	ContentType string
}

type CreateEventRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=160"`
	Description string   `json:"description" binding:"required,max=4000"`
	Date        string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string   `json:"time" binding:"required,max=40"`
	Venue       string   `json:"venue" binding:"required,max=160"`
	Departments []string `json:"departments" binding:"omitempty,dive,max=80"`
	Categories  []string `json:"categories" binding:"omitempty,dive,max=80"`
	Organizers  []string `json:"organizers" binding:"omitempty,dive,max=120"`

	ContactEmail  string `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  string `json:"contactPhone" binding:"omitempty,max=20"`
	GoogleForm    string `json:"googleForm" binding:"omitempty,url"`
	VolunteerForm string `json:"volunteerForm" binding:"omitempty,url"`
}

type UpdateEventRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=160"`
	Description string   `json:"description" binding:"required,max=4000"`
	Date        string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time        string   `json:"time" binding:"required,max=40"`
	Venue       string   `json:"venue" binding:"required,max=160"`
	Departments []string `json:"departments" binding:"omitempty,dive,max=80"`
	Categories  []string `json:"categories" binding:"omitempty,dive,max=80"`
	Organizers  []string `json:"organizers" binding:"omitempty,dive,max=120"`

	ContactEmail  string `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  string `json:"contactPhone" binding:"omitempty,max=20"`
	GoogleForm    string `json:"googleForm" binding:"omitempty,url"`
	VolunteerForm string `json:"volunteerForm" binding:"omitempty,url"`
}

// ListEventsFilter: pointers mean "not set".
type ListEventsFilter struct {
	Title      *string
	Department *string
	Category   *string
	// "ongoing" | "upcoming" | "past", resolved against Today
	EventType *string
	Today     time.Time
	Limit     int
}
