package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

type TaskRequest struct {
	Title       string  `json:"title" validate:"required" example:"Prepare Q3 budget"`
	Description *string `json:"description"`
	AssignedTo  string  `json:"assigned_to" validate:"omitempty,uuid"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high" example:"high"`
	Status      string  `json:"status" validate:"omitempty,oneof=new in_progress completed" example:"new"`
	Progress    int     `json:"progress" validate:"gte=0,lte=100" example:"0"`
	DueDate     string  `json:"due_date" validate:"omitempty,datetime=2006-01-02" example:"2024-07-01"`
}

// TaskUpdateRequest leaves absent fields unchanged.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to" validate:"omitempty,uuid"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *string `json:"status" validate:"omitempty,oneof=new in_progress completed"`
	Progress    *int    `json:"progress" validate:"omitempty,gte=0,lte=100"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaskHandler struct {
	tasks *service.TaskService
}

func RegisterTasks(e *echo.Echo, auth *service.AuthService, tasks *service.TaskService) {
	h := &TaskHandler{tasks: tasks}

	g := e.Group("/api/v1/tasks", RequireAuth(auth))
	g.GET("", h.listTasks)
	g.POST("", h.createTask)
	g.GET("/:id", h.getTask)
	g.PUT("/:id", h.updateTask)
	g.DELETE("/:id", h.deleteTask)
}

func (h *TaskHandler) createTask(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req TaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	assignee, err := parseOptionalUUID(req.AssignedTo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("assigned_to must be a valid UUID"))
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("due_date must use the format 2006-01-02"))
	}

	task, err := h.tasks.Create(c.Request().Context(), actor, service.TaskInput{
		Title:       req.Title,
		Description: trimmedPtr(req.Description),
		AssignedTo:  assignee,
		Priority:    domain.TaskPriority(req.Priority),
		Status:      domain.TaskStatus(req.Status),
		Progress:    req.Progress,
		DueDate:     dueDate,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("task", task))
}

func (h *TaskHandler) listTasks(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	filter, err := parseTaskListFilter(c, actor)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	page, err := h.tasks.List(c.Request().Context(), actor, filter)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Page("tasks", page.Tasks, ListMeta{
		Limit:  page.Limit,
		Offset: page.Offset,
		Count:  len(page.Tasks),
		Total:  page.Total,
	}))
}

func (h *TaskHandler) getTask(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("invalid task id"))
	}
	task, err := h.tasks.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("task", task))
}

func (h *TaskHandler) updateTask(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("invalid task id"))
	}
	var req TaskUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	update, err := req.toDomain()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	task, err := h.tasks.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("task", task))
}

func (h *TaskHandler) deleteTask(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("invalid task id"))
	}
	if err := h.tasks.Delete(c.Request().Context(), actor, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// parseTaskListFilter accepts assigned_to=me as a shortcut for the caller.
func parseTaskListFilter(c echo.Context, actor *domain.Account) (domain.TaskListFilter, error) {
	var filter domain.TaskListFilter
	filter.Limit, filter.Offset = parsePagination(c, 50, 0)

	if raw := strings.TrimSpace(c.QueryParam("assigned_to")); raw != "" {
		if strings.EqualFold(raw, "me") {
			own := actor.ID
			filter.AssignedTo = &own
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filter, inputError("assigned_to must be a valid UUID or me")
			}
			filter.AssignedTo = &id
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		status := domain.TaskStatus(strings.ToLower(raw))
		if !status.Valid() {
			return filter, inputError("status must be one of: new in_progress completed")
		}
		filter.Status = &status
	}
	return filter, nil
}

func (r TaskUpdateRequest) toDomain() (domain.TaskUpdate, error) {
	update := domain.TaskUpdate{
		Title:       r.Title,
		Description: trimmedPtr(r.Description),
		Progress:    r.Progress,
	}
	if r.AssignedTo != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.AssignedTo))
		if err != nil {
			return update, inputError("assigned_to must be a valid UUID")
		}
		update.AssignedTo = &id
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		update.Priority = &p
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		update.Status = &s
	}
	if r.DueDate != nil {
		due, err := parseOptionalDate(*r.DueDate)
		if err != nil || due == nil {
			return update, inputError("due_date must use the format 2006-01-02")
		}
		update.DueDate = due
	}
	return update, nil
}

type inputError string

func (e inputError) Error() string { return string(e) }
