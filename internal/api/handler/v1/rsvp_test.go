package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/service"
)

type attendanceBroadcast struct {
	eventID   string
	count     int
	attendees []string
}

type fakeNotifier struct {
	attendance []attendanceBroadcast
	updated    []domain.EventAttendance
	removed    []string
}

func (f *fakeNotifier) BroadcastAttendanceUpdate(eventID string, attendingCount int, attendees []string) {
	f.attendance = append(f.attendance, attendanceBroadcast{eventID, attendingCount, attendees})
}

func (f *fakeNotifier) BroadcastEventUpdate(event domain.EventAttendance) {
	f.updated = append(f.updated, event)
}

func (f *fakeNotifier) BroadcastEventRemoved(eventID string) {
	f.removed = append(f.removed, eventID)
}

type fakeRSVPService struct {
	addErr    error
	removeErr error
	count     int
	attendees []string

	added   []string
	removed []string
}

func (f *fakeRSVPService) AddRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error) {
	if f.addErr != nil {
		return 0, nil, f.addErr
	}
	f.added = append(f.added, eventID+"/"+attendeeName)
	return f.count, f.attendees, nil
}

func (f *fakeRSVPService) RemoveRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error) {
	if f.removeErr != nil {
		return 0, nil, f.removeErr
	}
	f.removed = append(f.removed, eventID+"/"+attendeeName)
	return f.count, f.attendees, nil
}

func newRSVPTestRouter(svc *fakeRSVPService, notifier *fakeNotifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/rsvp", NewRSVPHandler(svc, notifier).HandleRSVP)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string, headers ...http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleRSVPAddBroadcastsOnce(t *testing.T) {
	svc := &fakeRSVPService{count: 2, attendees: []string{"Alice", "Bob"}}
	notifier := &fakeNotifier{}
	router := newRSVPTestRouter(svc, notifier)

	w := postJSON(t, router, "/rsvp", `{"eventId":"cal-1","action":"add","attendeeName":"Bob"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"rsvp added"}`, w.Body.String())
	assert.Equal(t, []string{"cal-1/Bob"}, svc.added)

	require.Len(t, notifier.attendance, 1, "a successful rsvp broadcasts exactly once")
	b := notifier.attendance[0]
	assert.Equal(t, "cal-1", b.eventID)
	assert.Equal(t, 2, b.count)
	assert.Equal(t, []string{"Alice", "Bob"}, b.attendees)
}

func TestHandleRSVPRemove(t *testing.T) {
	svc := &fakeRSVPService{count: 0, attendees: []string{}}
	notifier := &fakeNotifier{}
	router := newRSVPTestRouter(svc, notifier)

	w := postJSON(t, router, "/rsvp", `{"eventId":"cal-1","action":"remove","attendeeName":"Bob"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"rsvp removed"}`, w.Body.String())
	assert.Equal(t, []string{"cal-1/Bob"}, svc.removed)
	assert.Len(t, notifier.attendance, 1)
}

func TestHandleRSVPValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid action", body: `{"eventId":"cal-1","action":"maybe","attendeeName":"Bob"}`},
		{name: "missing event id", body: `{"action":"add","attendeeName":"Bob"}`},
		{name: "missing name", body: `{"eventId":"cal-1","action":"add"}`},
		{name: "malformed json", body: `{"eventId":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeRSVPService{}
			notifier := &fakeNotifier{}
			router := newRSVPTestRouter(svc, notifier)

			w := postJSON(t, router, "/rsvp", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.added)
			assert.Empty(t, notifier.attendance, "a rejected rsvp must not broadcast")
		})
	}
}

func TestHandleRSVPErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		svc      *fakeRSVPService
		body     string
		wantCode int
	}{
		{
			name:     "unknown event",
			svc:      &fakeRSVPService{addErr: service.ErrEventNotFound},
			body:     `{"eventId":"cal-x","action":"add","attendeeName":"Bob"}`,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "event full",
			svc:      &fakeRSVPService{addErr: service.ErrEventFull},
			body:     `{"eventId":"cal-1","action":"add","attendeeName":"Bob"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "suspicious name",
			svc:      &fakeRSVPService{addErr: service.ErrSuspiciousAttendeeName},
			body:     `{"eventId":"cal-1","action":"add","attendeeName":"Bob"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "rsvp not found on remove",
			svc:      &fakeRSVPService{removeErr: service.ErrRSVPNotFound},
			body:     `{"eventId":"cal-1","action":"remove","attendeeName":"Bob"}`,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			router := newRSVPTestRouter(tc.svc, notifier)

			w := postJSON(t, router, "/rsvp", tc.body)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
			assert.Empty(t, notifier.attendance, "a failed rsvp must not broadcast")
		})
	}
}
