package domain

type DashboardSummary struct {
	TaskCounts       []TaskStatusCount `json:"task_counts"`
	OverdueTasks     int64             `json:"overdue_tasks"`
	UpcomingMeetings []Meeting         `json:"upcoming_meetings"`
	Scope            string            `json:"scope"`
}
