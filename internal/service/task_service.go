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

type TaskInput struct {
	Title       string
	Description *string
	AssignedTo  *uuid.UUID
	Priority    domain.TaskPriority
	Status      domain.TaskStatus
	Progress    int
	DueDate     *time.Time
}

type TaskPage struct {
	Tasks  []domain.Task `json:"tasks"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type TaskService struct {
	tasks ports.TaskRepository
}

func NewTaskService(tasks ports.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) Create(ctx context.Context, actor *domain.Account, in TaskInput) (*domain.Task, error) {
	if actor == nil || !actor.HasPermission(domain.PermissionCreateTasks) {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}
	if in.Priority == "" {
		in.Priority = domain.TaskPriorityMedium
	}
	if in.Status == "" {
		in.Status = domain.TaskStatusNew
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", ErrInvalidTaskField, in.Priority)
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidTaskField, in.Status)
	}
	if in.Progress < 0 || in.Progress > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidTaskField)
	}
	if in.Status == domain.TaskStatusCompleted {
		in.Progress = 100
	}

	task, err := s.tasks.Create(ctx, domain.Task{
		Title:       title,
		Description: in.Description,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   actor.ID,
		Priority:    in.Priority,
		Status:      in.Status,
		Progress:    in.Progress,
		DueDate:     in.DueDate,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("%w: create task: %w", ErrStorage, err)
	}
	return task, nil
}

// List shows every task to holders of view_tasks and only assigned tasks to everyone else.
func (s *TaskService) List(ctx context.Context, actor *domain.Account, filter domain.TaskListFilter) (*TaskPage, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if !actor.HasPermission(domain.PermissionViewTasks) {
		own := actor.ID
		filter.AssignedTo = &own
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidTaskField, *filter.Status)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", ErrStorage, err)
	}
	total, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: count tasks: %w", ErrStorage, err)
	}
	return &TaskPage{Tasks: tasks, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *TaskService) Get(ctx context.Context, actor *domain.Account, id uuid.UUID) (*domain.Task, error) {
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeTask(actor, task) {
		return nil, ErrForbidden
	}
	return task, nil
}

// Update lets edit_tasks holders change anything; an assignee may only move status and progress.
func (s *TaskService) Update(ctx context.Context, actor *domain.Account, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.HasPermission(domain.PermissionEditTasks) {
		if !isAssignee(actor, task) {
			return nil, ErrForbidden
		}
		if update.Title != nil || update.Description != nil || update.AssignedTo != nil || update.Priority != nil || update.DueDate != nil {
			return nil, ErrForbidden
		}
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, ErrTaskTitleRequired
		}
		update.Title = &title
	}
	if update.Priority != nil && !update.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", ErrInvalidTaskField, *update.Priority)
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidTaskField, *update.Status)
	}
	if update.Progress != nil && (*update.Progress < 0 || *update.Progress > 100) {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidTaskField)
	}
	if update.Status != nil && *update.Status == domain.TaskStatusCompleted {
		full := 100
		update.Progress = &full
	}

	updated, err := s.tasks.Update(ctx, id, update)
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, ErrTaskNotFound
		case isForeignKeyViolation(err):
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("%w: update task: %w", ErrStorage, err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *domain.Account, id uuid.UUID) error {
	if actor == nil || !actor.HasPermission(domain.PermissionDeleteTasks) {
		return ErrForbidden
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("%w: delete task: %w", ErrStorage, err)
	}
	return nil
}

func (s *TaskService) find(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: find task: %w", ErrStorage, err)
	}
	return task, nil
}

func canSeeTask(actor *domain.Account, task *domain.Task) bool {
	if actor == nil {
		return false
	}
	return actor.HasPermission(domain.PermissionViewTasks) || isAssignee(actor, task) || task.CreatedBy == actor.ID
}

func isAssignee(actor *domain.Account, task *domain.Task) bool {
	return task.AssignedTo != nil && *task.AssignedTo == actor.ID
}
