package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, filter domain.TaskListFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter domain.TaskListFilter) (int64, error)
	Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context, assignedTo *uuid.UUID) ([]domain.TaskStatusCount, error)
	CountOverdue(ctx context.Context, assignedTo *uuid.UUID, now time.Time) (int64, error)
}
