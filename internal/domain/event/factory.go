package event

import (
	"time"

	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/google/uuid"
)

// NewFromCreateRequest builds a persistable event from a validated request.
// The verification marker depends on who is creating it: faculty events need
// no review, student events start out pending.
func NewFromCreateRequest(req CreateEventRequest, addedBy, authorRole string) Event {
	now := time.Now().UTC()

	date, _ := time.Parse("2006-01-02", req.Date) // validated by binding tag

	marker := MarkerPendingReview
	if authorRole == user.RoleFaculty {
		marker = MarkerFacultyAuthored
	}

	return Event{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Description:      req.Description,
		Date:             date,
		Time:             req.Time,
		Venue:            req.Venue,
		Departments:      normalize(req.Departments),
		Categories:       normalize(req.Categories),
		Organizers:       normalize(req.Organizers),
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		GoogleForm:       req.GoogleForm,
		VolunteerForm:    req.VolunteerForm,
		AddedBy:          addedBy,
		VerifiedByMarker: marker,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func normalize(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
