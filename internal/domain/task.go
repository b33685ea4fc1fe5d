package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNew, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description,omitempty"`
	AssignedTo  *uuid.UUID   `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy   uuid.UUID    `db:"created_by" json:"created_by"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	Status      TaskStatus   `db:"status" json:"status"`
	Progress    int          `db:"progress" json:"progress"`
	DueDate     *time.Time   `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// TaskUpdate holds the fields of a partial task update. Nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	AssignedTo  *uuid.UUID
	Priority    *TaskPriority
	Status      *TaskStatus
	Progress    *int
	DueDate     *time.Time
}

type TaskListFilter struct {
	AssignedTo *uuid.UUID
	Status     *TaskStatus
	Limit      int
	Offset     int
}

type TaskStatusCount struct {
	Status TaskStatus `db:"status" json:"status"`
	Count  int64      `db:"count" json:"count"`
}
