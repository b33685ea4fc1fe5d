package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

const upcomingMeetingsOnDashboard = 5

var dashboardStatuses = []domain.TaskStatus{
	domain.TaskStatusNew,
	domain.TaskStatusInProgress,
	domain.TaskStatusCompleted,
}

type DashboardService struct {
	tasks    ports.TaskRepository
	meetings ports.MeetingRepository
	now      func() time.Time
}

func NewDashboardService(tasks ports.TaskRepository, meetings ports.MeetingRepository) *DashboardService {
	return &DashboardService{tasks: tasks, meetings: meetings, now: time.Now}
}

// Summary covers every task for view_reports holders and only assigned tasks otherwise.
// Meetings are always the caller's own.
func (s *DashboardService) Summary(ctx context.Context, actor *domain.Account) (*domain.DashboardSummary, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	now := s.now().UTC()
	self := actor.ID

	scope := "own"
	assignee := &self
	if actor.HasPermission(domain.PermissionViewReports) {
		scope = "all"
		assignee = nil
	}

	counts, err := s.tasks.CountByStatus(ctx, assignee)
	if err != nil {
		return nil, fmt.Errorf("%w: count tasks: %w", ErrStorage, err)
	}
	overdue, err := s.tasks.CountOverdue(ctx, assignee, now)
	if err != nil {
		return nil, fmt.Errorf("%w: count overdue: %w", ErrStorage, err)
	}
	meetings, err := s.meetings.List(ctx, domain.MeetingListFilter{
		ParticipantID: &self,
		From:          &now,
		Limit:         upcomingMeetingsOnDashboard,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upcoming meetings: %w", ErrStorage, err)
	}

	return &domain.DashboardSummary{
		TaskCounts:       fillStatusCounts(counts),
		OverdueTasks:     overdue,
		UpcomingMeetings: meetings,
		Scope:            scope,
	}, nil
}

func fillStatusCounts(counts []domain.TaskStatusCount) []domain.TaskStatusCount {
	byStatus := make(map[domain.TaskStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	out := make([]domain.TaskStatusCount, 0, len(dashboardStatuses))
	for _, status := range dashboardStatuses {
		out = append(out, domain.TaskStatusCount{Status: status, Count: byStatus[status]})
	}
	return out
}
