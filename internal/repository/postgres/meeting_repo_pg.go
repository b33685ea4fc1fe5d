package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

const meetingColumns = `id, title, description, meeting_date, location, organizer_id, goal, reality, options,
		way_forward, attendees, status, created_at, updated_at`

type MeetingRepository struct {
	db *sqlx.DB
}

func NewMeetingRepo(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Create(ctx context.Context, meeting domain.Meeting) (*domain.Meeting, error) {
	const query = `
		INSERT INTO meeting (title, description, meeting_date, location, organizer_id, goal, reality, options, way_forward, attendees, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + meetingColumns
	attendees := []string(meeting.Attendees)
	if attendees == nil {
		attendees = []string{}
	}
	var stored domain.Meeting
	err := r.db.GetContext(ctx, &stored, query,
		meeting.Title, nullableText(meeting.Description), meeting.MeetingDate, nullableText(meeting.Location),
		meeting.OrganizerID, nullableText(meeting.Goal), nullableText(meeting.Reality), nullableText(meeting.Options),
		nullableText(meeting.WayForward), pq.Array(attendees), meeting.Status)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	const query = `SELECT ` + meetingColumns + ` FROM meeting WHERE id = $1`
	var meeting domain.Meeting
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *MeetingRepository) List(ctx context.Context, filter domain.MeetingListFilter) ([]domain.Meeting, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID, filter.ParticipantID.String())
		conditions = append(conditions, fmt.Sprintf("(organizer_id = $%d OR $%d = ANY(attendees))", len(args)-1, len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("meeting_date >= $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM meeting
		%s
		ORDER BY meeting_date ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, meetingColumns, where, len(args)-1, len(args))

	meetings := make([]domain.Meeting, 0)
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *MeetingRepository) UpdateMinutes(ctx context.Context, id uuid.UUID, minutes domain.MeetingMinutes) (*domain.Meeting, error) {
	const query = `
		UPDATE meeting
		SET goal = COALESCE($2, goal),
		    reality = COALESCE($3, reality),
		    options = COALESCE($4, options),
		    way_forward = COALESCE($5, way_forward),
		    status = COALESCE($6, status),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + meetingColumns
	var status *string
	if minutes.Status != nil {
		s := string(*minutes.Status)
		status = &s
	}
	var meeting domain.Meeting
	err := r.db.GetContext(ctx, &meeting, query, id,
		trimmedOrNil(minutes.Goal), trimmedOrNil(minutes.Reality), trimmedOrNil(minutes.Options),
		trimmedOrNil(minutes.WayForward), status)
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func nullableText(ptr *string) any {
	v := trimmedOrNil(ptr)
	if v == nil {
		return nil
	}
	return *v
}

var _ ports.MeetingRepository = (*MeetingRepository)(nil)
