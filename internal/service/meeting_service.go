package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

type MeetingInput struct {
	Title       string
	Description *string
	MeetingDate time.Time
	Location    *string
	Goal        *string
	Attendees   []uuid.UUID
}

type MeetingQuery struct {
	UpcomingOnly bool
	Limit        int
	Offset       int
}

type MeetingService struct {
	meetings ports.MeetingRepository
	now      func() time.Time
}

func NewMeetingService(meetings ports.MeetingRepository) *MeetingService {
	return &MeetingService{meetings: meetings, now: time.Now}
}

func (s *MeetingService) Create(ctx context.Context, actor *domain.Account, in MeetingInput) (*domain.Meeting, error) {
	if actor == nil || !actor.HasPermission(domain.PermissionManageMeetings) {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidMeeting)
	}
	if in.MeetingDate.IsZero() {
		return nil, fmt.Errorf("%w: meeting_date is required", ErrInvalidMeeting)
	}

	attendees := make([]string, 0, len(in.Attendees))
	seen := make(map[uuid.UUID]struct{}, len(in.Attendees))
	for _, id := range in.Attendees {
		if id == uuid.Nil {
			return nil, ErrAttendeeNotAllowed
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		attendees = append(attendees, id.String())
	}

	meeting, err := s.meetings.Create(ctx, domain.Meeting{
		Title:       title,
		Description: in.Description,
		MeetingDate: in.MeetingDate.UTC(),
		Location:    in.Location,
		OrganizerID: actor.ID,
		Goal:        in.Goal,
		Attendees:   attendees,
		Status:      domain.MeetingStatusScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create meeting: %w", ErrStorage, err)
	}
	return meeting, nil
}

// UpdateMinutes records GROW minutes. Allowed for the organizer and manage_meetings holders.
func (s *MeetingService) UpdateMinutes(ctx context.Context, actor *domain.Account, id uuid.UUID, minutes domain.MeetingMinutes) (*domain.Meeting, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	meeting, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.OrganizerID != actor.ID && !actor.HasPermission(domain.PermissionManageMeetings) {
		return nil, ErrForbidden
	}
	if minutes.Status != nil && !minutes.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidMeeting, *minutes.Status)
	}
	updated, err := s.meetings.UpdateMinutes(ctx, id, minutes)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("%w: update minutes: %w", ErrStorage, err)
	}
	return updated, nil
}

func (s *MeetingService) List(ctx context.Context, actor *domain.Account, query MeetingQuery) ([]domain.Meeting, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	filter := domain.MeetingListFilter{}
	filter.Limit, filter.Offset = clampPage(query.Limit, query.Offset)
	if !actor.HasPermission(domain.PermissionManageMeetings) {
		own := actor.ID
		filter.ParticipantID = &own
	}
	if query.UpcomingOnly {
		from := s.now().UTC()
		filter.From = &from
	}
	meetings, err := s.meetings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list meetings: %w", ErrStorage, err)
	}
	return meetings, nil
}

func (s *MeetingService) Get(ctx context.Context, actor *domain.Account, id uuid.UUID) (*domain.Meeting, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	meeting, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.OrganizerID != actor.ID && !meeting.HasAttendee(actor.ID) && !actor.HasPermission(domain.PermissionManageMeetings) {
		return nil, ErrForbidden
	}
	return meeting, nil
}

func (s *MeetingService) find(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("%w: find meeting: %w", ErrStorage, err)
	}
	return meeting, nil
}
