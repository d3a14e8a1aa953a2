package v1

import (
	"context"
	"encoding/json"
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

type fakeEventService struct {
	events    []domain.EventAttendance
	event     domain.Event
	updated   domain.EventAttendance
	listErr   error
	getErr    error
	updateErr error
	deleteErr error

	listedRange  string
	updatedLimit *int
	deletedID    string
}

func (f *fakeEventService) ListEvents(ctx context.Context, timeRange string) ([]domain.EventAttendance, error) {
	f.listedRange = timeRange
	return f.events, f.listErr
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	return f.event, f.getErr
}

func (f *fakeEventService) UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.EventAttendance, error) {
	if f.updateErr != nil {
		return domain.EventAttendance{}, f.updateErr
	}
	f.updatedLimit = limit
	return f.updated, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

func newEventTestRouter(svc *fakeEventService, notifier *fakeNotifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewEventHandler(svc, notifier)
	router.GET("/events", h.HandleListEvents)
	router.GET("/events/:eventID", h.HandleGetEvent)
	router.PUT("/events/:eventID", h.HandleUpdateEvent)
	router.DELETE("/events/:eventID", h.HandleDeleteEvent)
	return router
}

func TestHandleListEvents(t *testing.T) {
	svc := &fakeEventService{events: []domain.EventAttendance{
		{Event: domain.Event{ID: "cal-1", Title: "Picnic"}, AttendingCount: 1, Attendees: []string{"Alice"}},
	}}
	router := newEventTestRouter(svc, &fakeNotifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?timeRange=past", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "past", svc.listedRange)

	var got []domain.EventAttendance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cal-1", got[0].ID)
	assert.Equal(t, 1, got[0].AttendingCount)
}

func TestHandleListEventsEmptyIsJSONArray(t *testing.T) {
	router := newEventTestRouter(&fakeEventService{}, &fakeNotifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestHandleListEventsRejectsUnknownTimeRange(t *testing.T) {
	router := newEventTestRouter(&fakeEventService{}, &fakeNotifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?timeRange=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetEventNotFound(t *testing.T) {
	svc := &fakeEventService{getErr: service.ErrEventNotFound}
	router := newEventTestRouter(svc, &fakeNotifier{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/cal-missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestHandleUpdateEvent(t *testing.T) {
	limit := 12
	svc := &fakeEventService{updated: domain.EventAttendance{
		Event: domain.Event{ID: "cal-1", AttendanceLimit: &limit},
	}}
	notifier := &fakeNotifier{}
	router := newEventTestRouter(svc, notifier)

	w := putJSON(t, router, "/events/cal-1", `{"attendanceLimit":12}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.updatedLimit)
	assert.Equal(t, 12, *svc.updatedLimit)
	require.Len(t, notifier.updated, 1)
	assert.Equal(t, "cal-1", notifier.updated[0].ID)
}

func TestHandleUpdateEventNullClearsLimit(t *testing.T) {
	svc := &fakeEventService{updated: domain.EventAttendance{Event: domain.Event{ID: "cal-1"}}}
	notifier := &fakeNotifier{}
	router := newEventTestRouter(svc, notifier)

	w := putJSON(t, router, "/events/cal-1", `{"attendanceLimit":null}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.updatedLimit)
	assert.Len(t, notifier.updated, 1)
}

func TestHandleUpdateEventRejectsUnknownFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "extra field", body: `{"attendanceLimit":5,"title":"Hacked"}`},
		{name: "only unknown field", body: `{"title":"Hacked"}`},
		{name: "empty body object", body: `{}`},
		{name: "malformed json", body: `{"attendanceLimit":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeEventService{}
			notifier := &fakeNotifier{}
			router := newEventTestRouter(svc, notifier)

			w := putJSON(t, router, "/events/cal-1", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, notifier.updated)
		})
	}
}

func TestHandleUpdateEventErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "unknown event", err: service.ErrEventNotFound, wantCode: http.StatusNotFound},
		{name: "invalid limit", err: service.ErrInvalidAttendanceLimit, wantCode: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeEventService{updateErr: tc.err}
			notifier := &fakeNotifier{}
			router := newEventTestRouter(svc, notifier)

			w := putJSON(t, router, "/events/cal-1", `{"attendanceLimit":5}`)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Empty(t, notifier.updated, "a failed update must not broadcast")
		})
	}
}

func TestHandleDeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	notifier := &fakeNotifier{}
	router := newEventTestRouter(svc, notifier)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/events/cal-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cal-1", svc.deletedID)
	assert.Equal(t, []string{"cal-1"}, notifier.removed)
}

func TestHandleDeleteEventNotFound(t *testing.T) {
	svc := &fakeEventService{deleteErr: service.ErrEventNotFound}
	notifier := &fakeNotifier{}
	router := newEventTestRouter(svc, notifier)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/events/cal-missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, notifier.removed)
}

func putJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
