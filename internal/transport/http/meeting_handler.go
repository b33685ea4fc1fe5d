package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

type MeetingRequest struct {
	Title       string   `json:"title" validate:"required" example:"Weekly sync"`
	Description *string  `json:"description"`
	MeetingDate string   `json:"meeting_date" validate:"required" example:"2024-07-01T09:00:00Z"`
	Location    *string  `json:"location" example:"Room 2"`
	Goal        *string  `json:"goal"`
	Attendees   []string `json:"attendees" validate:"omitempty,dive,uuid"`
}

// MeetingMinutesRequest records the GROW minutes of a meeting.
type MeetingMinutesRequest struct {
	Goal       *string `json:"goal"`
	Reality    *string `json:"reality"`
	Options    *string `json:"options"`
	WayForward *string `json:"way_forward"`
	Status     *string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
}

type MeetingHandler struct {
	meetings *service.MeetingService
}

func RegisterMeetings(e *echo.Echo, auth *service.AuthService, meetings *service.MeetingService) {
	h := &MeetingHandler{meetings: meetings}

	g := e.Group("/api/v1/meetings", RequireAuth(auth))
	g.GET("", h.listMeetings)
	g.POST("", h.createMeeting)
	g.GET("/:id", h.getMeeting)
	g.PUT("/:id/minutes", h.updateMinutes)
}

func (h *MeetingHandler) createMeeting(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req MeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	when, err := parseMeetingDate(req.MeetingDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("meeting_date must be RFC 3339, for example 2024-07-01T09:00:00Z"))
	}
	attendees := make([]uuid.UUID, 0, len(req.Attendees))
	for _, raw := range req.Attendees {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("attendees must be valid UUIDs"))
		}
		attendees = append(attendees, id)
	}

	meeting, err := h.meetings.Create(c.Request().Context(), actor, service.MeetingInput{
		Title:       req.Title,
		Description: trimmedPtr(req.Description),
		MeetingDate: when,
		Location:    trimmedPtr(req.Location),
		Goal:        trimmedPtr(req.Goal),
		Attendees:   attendees,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("meeting", meeting))
}

func (h *MeetingHandler) listMeetings(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	limit, offset := parsePagination(c, 50, 0)
	upcoming, _ := strconv.ParseBool(c.QueryParam("upcoming"))

	meetings, err := h.meetings.List(c.Request().Context(), actor, service.MeetingQuery{
		UpcomingOnly: upcoming,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Page("meetings", meetings, ListMeta{Limit: limit, Offset: offset, Count: len(meetings)}))
}

func (h *MeetingHandler) getMeeting(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("invalid meeting id"))
	}
	meeting, err := h.meetings.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("meeting", meeting))
}

func (h *MeetingHandler) updateMinutes(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, util.Error("invalid meeting id"))
	}
	var req MeetingMinutesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	minutes := domain.MeetingMinutes{
		Goal:       req.Goal,
		Reality:    req.Reality,
		Options:    req.Options,
		WayForward: req.WayForward,
	}
	if req.Status != nil {
		status := domain.MeetingStatus(*req.Status)
		minutes.Status = &status
	}
	meeting, err := h.meetings.UpdateMinutes(c.Request().Context(), actor, id, minutes)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("meeting", meeting))
}

func parseMeetingDate(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(raw))
}
