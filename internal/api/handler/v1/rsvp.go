package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/request"
	"github.com/gatherhub/gatherhub-api/internal/api/handler/v1/response"
	"github.com/gatherhub/gatherhub-api/internal/service"
)

type RSVPService interface {
	AddRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error)
	RemoveRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error)
}

type RSVPHandler struct {
	svc      RSVPService
	notifier Notifier
}

func NewRSVPHandler(svc RSVPService, notifier Notifier) *RSVPHandler {
	return &RSVPHandler{
		svc:      svc,
		notifier: notifier,
	}
}

// HandleRSVP godoc
// @Summary      Add or remove an RSVP
// @Description  Adds or removes an attending name for an event, then broadcasts the new attendance to live clients.
// @Tags         rsvp
// @Accept       json
// @Produce      json
// @Param        request body request.RSVPRequest true "request body"
// @Success      200 {object} response.Result
// @Failure      400 {object} response.Err
// @Failure      404 {object} response.Err
// @Failure      500 {object} response.Err
// @Router       /rsvp [post]
func (h *RSVPHandler) HandleRSVP(ctx *gin.Context) {
	var req request.RSVPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var (
		count     int
		attendees []string
		err       error
		message   string
	)
	switch req.Action {
	case "add":
		count, attendees, err = h.svc.AddRSVP(ctx.Request.Context(), req.EventID, req.AttendeeName)
		message = "rsvp added"
	case "remove":
		count, attendees, err = h.svc.RemoveRSVP(ctx.Request.Context(), req.EventID, req.AttendeeName)
		message = "rsvp removed"
	}

	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
		case errors.Is(err, service.ErrRSVPNotFound):
			response.RenderErr(ctx, response.ErrNotFound(service.ErrRSVPNotFound))
		case errors.Is(err, service.ErrEventFull):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrEventFull))
		case errors.Is(err, service.ErrEmptyAttendeeName),
			errors.Is(err, service.ErrAttendeeNameTooLong),
			errors.Is(err, service.ErrSuspiciousAttendeeName):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleRSVP -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	h.notifier.BroadcastAttendanceUpdate(req.EventID, count, attendees)

	ctx.JSON(http.StatusOK, response.Result{Success: true, Message: message})
}
