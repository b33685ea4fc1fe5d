package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const dateLayout = "2006-01-02"

// File is the YAML seed document. Accounts are provisioned in order, so a
// manager must be listed before the accounts reporting to them.
type File struct {
	Accounts []Account `json:"accounts"`
	Tasks    []Task    `json:"tasks"`
	Meetings []Meeting `json:"meetings"`
}

type Account struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Position     string   `json:"position"`
	Department   string   `json:"department"`
	JoinDate     string   `json:"join_date"`
	ManagerEmail string   `json:"manager_email"`
	Permissions  []string `json:"permissions"`
}

type Task struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	AssigneeEmail string `json:"assignee_email"`
	CreatorEmail  string `json:"created_by_email"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	DueDate       string `json:"due_date"`
}

type Meeting struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	MeetingDate    string   `json:"meeting_date"`
	Location       string   `json:"location"`
	OrganizerEmail string   `json:"organizer_email"`
	Goal           string   `json:"goal"`
	Reality        string   `json:"reality"`
	Options        string   `json:"options"`
	WayForward     string   `json:"way_forward"`
	Status         string   `json:"status"`
	AttendeeEmails []string `json:"attendee_emails"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

type Report struct {
	AccountsCreated int
	AccountsSkipped int
	TasksCreated    int
	MeetingsCreated int
}

type Seeder struct {
	accounts ports.AccountRepository
	tasks    ports.TaskRepository
	meetings ports.MeetingRepository
	policy   util.PasswordPolicy
	logger   *slog.Logger
}

func NewSeeder(accounts ports.AccountRepository, tasks ports.TaskRepository, meetings ports.MeetingRepository, policy util.PasswordPolicy, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{accounts: accounts, tasks: tasks, meetings: meetings, policy: policy, logger: logger}
}

// Run provisions the accounts of f, skipping emails that already exist. Tasks
// and meetings are only inserted into empty tables so a second run adds nothing.
func (s *Seeder) Run(ctx context.Context, f *File) (Report, error) {
	var report Report
	ids := make(map[string]uuid.UUID, len(f.Accounts))

	for i, in := range f.Accounts {
		email := normalizeEmail(in.Email)
		if email == "" {
			return report, fmt.Errorf("account %d: email is required", i)
		}
		existing, err := s.accounts.FindByEmail(ctx, email)
		switch {
		case err == nil:
			ids[email] = existing.ID
			report.AccountsSkipped++
			s.logger.Info("seed account exists, skipping", slog.String("email", email))
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return report, fmt.Errorf("account %s: %w", email, err)
		}

		created, err := s.createAccount(ctx, in, email, ids)
		if err != nil {
			return report, fmt.Errorf("account %s: %w", email, err)
		}
		ids[email] = created.ID
		report.AccountsCreated++
	}

	if len(f.Tasks) > 0 {
		n, err := s.tasks.Count(ctx, domain.TaskListFilter{})
		if err != nil {
			return report, fmt.Errorf("count tasks: %w", err)
		}
		if n > 0 {
			s.logger.Info("tasks already present, skipping task seed", slog.Int64("count", n))
		} else {
			for i, in := range f.Tasks {
				if err := s.createTask(ctx, in, ids); err != nil {
					return report, fmt.Errorf("task %d (%s): %w", i, in.Title, err)
				}
				report.TasksCreated++
			}
		}
	}

	if len(f.Meetings) > 0 {
		existing, err := s.meetings.List(ctx, domain.MeetingListFilter{Limit: 1})
		if err != nil {
			return report, fmt.Errorf("list meetings: %w", err)
		}
		if len(existing) > 0 {
			s.logger.Info("meetings already present, skipping meeting seed")
		} else {
			for i, in := range f.Meetings {
				if err := s.createMeeting(ctx, in, ids); err != nil {
					return report, fmt.Errorf("meeting %d (%s): %w", i, in.Title, err)
				}
				report.MeetingsCreated++
			}
		}
	}
	return report, nil
}

func (s *Seeder) createAccount(ctx context.Context, in Account, email string, ids map[string]uuid.UUID) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if err := s.policy.Validate(in.Password); err != nil {
		return nil, err
	}
	for _, p := range in.Permissions {
		if !domain.IsKnownPermission(p) {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
	}
	joinDate, err := parseDate(in.JoinDate)
	if err != nil {
		return nil, fmt.Errorf("join_date: %w", err)
	}
	var managerID *uuid.UUID
	if in.ManagerEmail != "" {
		id, err := s.resolve(ctx, in.ManagerEmail, ids)
		if err != nil {
			return nil, fmt.Errorf("manager: %w", err)
		}
		managerID = &id
	}
	hash, salt, err := util.DerivePassword(in.Password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.Create(ctx, domain.NewAccount{
		Name:         name,
		Email:        email,
		Position:     strings.TrimSpace(in.Position),
		Department:   strings.TrimSpace(in.Department),
		JoinDate:     joinDate,
		ManagerID:    managerID,
		Permissions:  append([]string{}, in.Permissions...),
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("seed account created", slog.String("email", email), slog.String("account_id", account.ID.String()))
	return account, nil
}

func (s *Seeder) createTask(ctx context.Context, in Task, ids map[string]uuid.UUID) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	creator, err := s.resolve(ctx, in.CreatorEmail, ids)
	if err != nil {
		return fmt.Errorf("creator: %w", err)
	}
	task := domain.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: optionalText(in.Description),
		CreatedBy:   creator,
		Priority:    domain.TaskPriority(strings.TrimSpace(in.Priority)),
		Status:      domain.TaskStatus(strings.TrimSpace(in.Status)),
		Progress:    in.Progress,
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusNew
	}
	if !task.Priority.Valid() || !task.Status.Valid() {
		return fmt.Errorf("invalid priority %q or status %q", task.Priority, task.Status)
	}
	if task.Progress < 0 || task.Progress > 100 {
		return fmt.Errorf("progress %d out of range", task.Progress)
	}
	if in.AssigneeEmail != "" {
		assignee, err := s.resolve(ctx, in.AssigneeEmail, ids)
		if err != nil {
			return fmt.Errorf("assignee: %w", err)
		}
		task.AssignedTo = &assignee
	}
	if task.DueDate, err = parseDate(in.DueDate); err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	_, err = s.tasks.Create(ctx, task)
	return err
}

func (s *Seeder) createMeeting(ctx context.Context, in Meeting, ids map[string]uuid.UUID) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	when, err := time.Parse(time.RFC3339, strings.TrimSpace(in.MeetingDate))
	if err != nil {
		return fmt.Errorf("meeting_date: %w", err)
	}
	organizer, err := s.resolve(ctx, in.OrganizerEmail, ids)
	if err != nil {
		return fmt.Errorf("organizer: %w", err)
	}
	status := domain.MeetingStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = domain.MeetingStatusScheduled
	}
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	attendees := make([]string, 0, len(in.AttendeeEmails))
	for _, email := range in.AttendeeEmails {
		id, err := s.resolve(ctx, email, ids)
		if err != nil {
			return fmt.Errorf("attendee: %w", err)
		}
		attendees = append(attendees, id.String())
	}
	_, err = s.meetings.Create(ctx, domain.Meeting{
		Title:       strings.TrimSpace(in.Title),
		Description: optionalText(in.Description),
		MeetingDate: when,
		Location:    optionalText(in.Location),
		OrganizerID: organizer,
		Goal:        optionalText(in.Goal),
		Reality:     optionalText(in.Reality),
		Options:     optionalText(in.Options),
		WayForward:  optionalText(in.WayForward),
		Attendees:   attendees,
		Status:      status,
	})
	return err
}

// resolve maps an email to an account id, preferring accounts seen in this run.
func (s *Seeder) resolve(ctx context.Context, email string, ids map[string]uuid.UUID) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if email == "" {
		return uuid.Nil, errors.New("email is required")
	}
	if id, ok := ids[email]; ok {
		return id, nil
	}
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("no account with email %s", email)
		}
		return uuid.Nil, err
	}
	ids[email] = account.ID
	return account.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalText(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
