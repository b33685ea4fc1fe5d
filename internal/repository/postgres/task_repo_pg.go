package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

const taskColumns = `id, title, description, assigned_to, created_by, priority, status, progress, due_date, created_at, updated_at`

type TaskRepository struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task domain.Task) (*domain.Task, error) {
	const query = `
		INSERT INTO task (title, description, assigned_to, created_by, priority, status, progress, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + taskColumns
	var stored domain.Task
	err := r.db.GetContext(ctx, &stored, query,
		task.Title, nullableText(task.Description), task.AssignedTo, task.CreatedBy,
		task.Priority, task.Status, task.Progress, task.DueDate)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM task WHERE id = $1`
	var task domain.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter domain.TaskListFilter) ([]domain.Task, error) {
	where, args := taskFilterClause(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM task
		%s
		ORDER BY (due_date IS NULL), due_date ASC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, where, len(args)-1, len(args))

	tasks := make([]domain.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, filter domain.TaskListFilter) (int64, error) {
	where, args := taskFilterClause(filter)
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM task `+where, args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	setParts := []string{"updated_at = NOW()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		add("title", strings.TrimSpace(*update.Title))
	}
	if update.Description != nil {
		add("description", nullableText(update.Description))
	}
	if update.AssignedTo != nil {
		add("assigned_to", *update.AssignedTo)
	}
	if update.Priority != nil {
		add("priority", *update.Priority)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}
	if update.Progress != nil {
		add("progress", *update.Progress)
	}
	if update.DueDate != nil {
		add("due_date", *update.DueDate)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE task
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setParts, ", "), len(args), taskColumns)

	var task domain.Task
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *TaskRepository) CountByStatus(ctx context.Context, assignedTo *uuid.UUID) ([]domain.TaskStatusCount, error) {
	const query = `
		SELECT status, COUNT(*) AS count
		FROM task
		WHERE ($1::uuid IS NULL OR assigned_to = $1)
		GROUP BY status
		ORDER BY status
	`
	counts := make([]domain.TaskStatusCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query, assignedTo); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *TaskRepository) CountOverdue(ctx context.Context, assignedTo *uuid.UUID, now time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM task
		WHERE ($1::uuid IS NULL OR assigned_to = $1)
		  AND status <> 'completed'
		  AND due_date IS NOT NULL
		  AND due_date < $2::date
	`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, assignedTo, now); err != nil {
		return 0, err
	}
	return count, nil
}

func taskFilterClause(filter domain.TaskListFilter) (string, []any) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
