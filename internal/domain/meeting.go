package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

// Meeting minutes follow the GROW layout: goal, reality, options, way forward.
type Meeting struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	MeetingDate time.Time      `db:"meeting_date" json:"meeting_date"`
	Location    *string        `db:"location" json:"location,omitempty"`
	OrganizerID uuid.UUID      `db:"organizer_id" json:"organizer_id"`
	Goal        *string        `db:"goal" json:"goal,omitempty"`
	Reality     *string        `db:"reality" json:"reality,omitempty"`
	Options     *string        `db:"options" json:"options,omitempty"`
	WayForward  *string        `db:"way_forward" json:"way_forward,omitempty"`
	Attendees   pq.StringArray `db:"attendees" json:"attendees"`
	Status      MeetingStatus  `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

func (m *Meeting) HasAttendee(id uuid.UUID) bool {
	want := id.String()
	for _, a := range m.Attendees {
		if a == want {
			return true
		}
	}
	return false
}

type MeetingMinutes struct {
	Goal       *string
	Reality    *string
	Options    *string
	WayForward *string
	Status     *MeetingStatus
}

type MeetingListFilter struct {
	ParticipantID *uuid.UUID
	From          *time.Time
	Limit         int
	Offset        int
}
