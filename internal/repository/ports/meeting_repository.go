package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting domain.Meeting) (*domain.Meeting, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
	List(ctx context.Context, filter domain.MeetingListFilter) ([]domain.Meeting, error)
	UpdateMinutes(ctx context.Context, id uuid.UUID, minutes domain.MeetingMinutes) (*domain.Meeting, error)
}
