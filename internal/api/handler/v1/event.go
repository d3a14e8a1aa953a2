package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/request"
	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/response"
	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/service"
)

var errBadTimeRange = errors.New("timeRange must be one of future, past, all")

type EventService interface {
	ListEvents(ctx context.Context, timeRange string) ([]domain.EventAttendance, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.EventAttendance, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Notifier pushes state changes to connected live clients.
type Notifier interface {
	BroadcastAttendanceUpdate(eventID string, attendingCount int, attendees []string)
	BroadcastEventUpdate(event domain.EventAttendance)
	BroadcastEventRemoved(eventID string)
}

type EventHandler struct {
	svc      EventService
	notifier Notifier
}

func NewEventHandler(svc EventService, notifier Notifier) *EventHandler {
	return &EventHandler{
		svc:      svc,
		notifier: notifier,
	}
}

// HandleListEvents godoc
// @Summary      List events with attendance
// @Tags         events
// @Produce      json
// @Param        timeRange query string false "future | past | all"
// @Success      200 {array}  domain.EventAttendance
// @Failure      400 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	timeRange := ctx.Query("timeRange")
	switch timeRange {
	case "", "future", "past", "all":
	default:
		response.RenderErr(ctx, response.ErrBadRequest(errBadTimeRange))
		return
	}

	events, err := h.svc.ListEvents(ctx.Request.Context(), timeRange)
	if err != nil {
		err = fmt.Errorf("v1.HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if events == nil {
		events = []domain.EventAttendance{}
	}
	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get a single event
// @Tags         events
// @Produce      json
// @Param        eventID path string true "Event ID"
// @Success      200 {object} domain.Event
// @Failure      404 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /events/{eventID} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	event, err := h.svc.GetEvent(ctx.Request.Context(), ctx.Param("eventID"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleUpdateEvent godoc
// @Summary      Update an event's attendance limit
// @Description  The attendance limit is the only field updatable outside calendar sync; any other body field is rejected.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        eventID path string true "Event ID"
// @Param        request body request.UpdateEventRequest true "request body"
// @Success      200 {object} domain.EventAttendance
// @Failure      400 {object} response.Err
// @Failure      401 {object} response.Err
// @Failure      404 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /events/{eventID} [put]
// @Security     AdminSecret
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	req, err := request.ParseUpdateEventRequest(body)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.UpdateAttendanceLimit(ctx.Request.Context(), ctx.Param("eventID"), req.AttendanceLimit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
		case errors.Is(err, service.ErrInvalidAttendanceLimit):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidAttendanceLimit))
		default:
			err = fmt.Errorf("v1.HandleUpdateEvent -> h.svc.UpdateAttendanceLimit -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	h.notifier.BroadcastEventUpdate(event)

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Description  Removes an event and cascades to its RSVPs.
// @Tags         events
// @Produce      json
// @Param        eventID path string true "Event ID"
// @Success      200 {object} response.Result
// @Failure      401 {object} response.Err
// @Failure      404 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /events/{eventID} [delete]
// @Security     AdminSecret
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	eventID := ctx.Param("eventID")

	if err := h.svc.DeleteEvent(ctx.Request.Context(), eventID); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteEvent -> h.svc.DeleteEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.notifier.BroadcastEventRemoved(eventID)

	ctx.JSON(http.StatusOK, response.Result{Success: true, Message: "event deleted"})
}
