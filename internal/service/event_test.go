package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/gatherhub-api/internal/config"
	"github.com/gatherhub/gatherhub-api/internal/domain"
)

type fakeEventRepo struct {
	reconciled   []map[string][]domain.CalendarEvent
	insertedRSVP []domain.RSVP
	deletedRSVP  []string
	insertErr    error
	deleteErr    error
	updateErr    error
	updatedLimit *int
	count        int
	names        []string
	listed       []domain.EventAttendance
}

func (f *fakeEventRepo) Reconcile(ctx context.Context, fetched map[string][]domain.CalendarEvent) error {
	f.reconciled = append(f.reconciled, fetched)
	return nil
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id string) (domain.Event, error) {
	return domain.Event{ID: id}, nil
}

func (f *fakeEventRepo) ListWithAttendance(ctx context.Context, timeRange string, now time.Time) ([]domain.EventAttendance, error) {
	return f.listed, nil
}

func (f *fakeEventRepo) InsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	if f.insertErr != nil {
		return domain.RSVP{}, f.insertErr
	}
	f.insertedRSVP = append(f.insertedRSVP, rsvp)
	return rsvp, nil
}

func (f *fakeEventRepo) DeleteRSVP(ctx context.Context, eventID, attendeeName string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedRSVP = append(f.deletedRSVP, eventID+"/"+attendeeName)
	return nil
}

func (f *fakeEventRepo) CountAttendance(ctx context.Context, eventID string) (int, []string, error) {
	return f.count, f.names, nil
}

func (f *fakeEventRepo) UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.Event, error) {
	if f.updateErr != nil {
		return domain.Event{}, f.updateErr
	}
	f.updatedLimit = limit
	return domain.Event{ID: id, AttendanceLimit: limit}, nil
}

func (f *fakeEventRepo) DeleteEvent(ctx context.Context, id string) error {
	return nil
}

type fakeFeed struct {
	events map[string][]domain.CalendarEvent
	calls  int
}

func (f *fakeFeed) GetOrRefresh(ctx context.Context) map[string][]domain.CalendarEvent {
	f.calls++
	return f.events
}

func newEventsConfig(autoFetch bool) *config.EventsConfig {
	return &config.EventsConfig{
		AutoFetch:        autoFetch,
		DefaultTimeRange: "future",
		CacheTTL:         5 * time.Minute,
	}
}

func TestListEventsReconcilesFetchedEvents(t *testing.T) {
	repo := &fakeEventRepo{}
	feed := &fakeFeed{events: map[string][]domain.CalendarEvent{
		"src-a": {{ID: "cal-1", Source: "src-a"}},
	}}
	svc := NewEventService(repo, feed, newEventsConfig(true))

	_, err := svc.ListEvents(context.Background(), "all")

	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)
	require.Len(t, repo.reconciled, 1)
	assert.Equal(t, "cal-1", repo.reconciled[0]["src-a"][0].ID)
}

func TestListEventsReconcilesEmptiedCalendar(t *testing.T) {
	repo := &fakeEventRepo{}
	feed := &fakeFeed{events: map[string][]domain.CalendarEvent{"src-a": {}}}
	svc := NewEventService(repo, feed, newEventsConfig(true))

	_, err := svc.ListEvents(context.Background(), "all")

	require.NoError(t, err)
	require.Len(t, repo.reconciled, 1,
		"a successfully fetched empty calendar must reconcile so its stale rows go")
	drained, ok := repo.reconciled[0]["src-a"]
	require.True(t, ok)
	assert.Empty(t, drained)
}

func TestListEventsSkipsReconcileWhenEveryFetchFails(t *testing.T) {
	repo := &fakeEventRepo{}
	feed := &fakeFeed{}
	svc := NewEventService(repo, feed, newEventsConfig(true))

	_, err := svc.ListEvents(context.Background(), "all")

	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)
	assert.Empty(t, repo.reconciled, "a cycle with no successful fetch must not touch stored events")
}

func TestListEventsWithoutAutoFetch(t *testing.T) {
	repo := &fakeEventRepo{}
	feed := &fakeFeed{events: map[string][]domain.CalendarEvent{
		"src-a": {{ID: "cal-1", Source: "src-a"}},
	}}
	svc := NewEventService(repo, feed, newEventsConfig(false))

	_, err := svc.ListEvents(context.Background(), "")

	require.NoError(t, err)
	assert.Zero(t, feed.calls)
}

func TestAddRSVP(t *testing.T) {
	repo := &fakeEventRepo{count: 2, names: []string{"Alice", "Bob"}}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	count, names, err := svc.AddRSVP(context.Background(), "cal-1", "Bob")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"Alice", "Bob"}, names)
	require.Len(t, repo.insertedRSVP, 1)
	rsvp := repo.insertedRSVP[0]
	assert.NotEmpty(t, rsvp.ID)
	assert.Equal(t, "cal-1", rsvp.EventID)
	assert.Equal(t, "Bob", rsvp.AttendeeName)
	assert.Equal(t, domain.AttendanceYes, rsvp.Attendance)
}

func TestAddRSVPPropagatesCapacityError(t *testing.T) {
	repo := &fakeEventRepo{insertErr: ErrEventFull}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	_, _, err := svc.AddRSVP(context.Background(), "cal-1", "Bob")

	assert.ErrorIs(t, err, ErrEventFull)
}

func TestAddRSVPRejectsBadNames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrEmptyAttendeeName},
		{name: "whitespace only", input: "   ", wantErr: ErrEmptyAttendeeName},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: ErrAttendeeNameTooLong},
		{name: "script tag", input: "Bob<script>alert(1)</script>", wantErr: ErrSuspiciousAttendeeName},
		{name: "javascript scheme", input: "JavaScript:alert(1)", wantErr: ErrSuspiciousAttendeeName},
		{name: "event handler", input: "x onerror=alert(1)", wantErr: ErrSuspiciousAttendeeName},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeEventRepo{}
			svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

			_, _, err := svc.AddRSVP(context.Background(), "cal-1", tc.input)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, repo.insertedRSVP, "an invalid name must never reach storage")
		})
	}
}

func TestAddRSVPAcceptsHundredCharName(t *testing.T) {
	repo := &fakeEventRepo{count: 1}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	_, _, err := svc.AddRSVP(context.Background(), "cal-1", strings.Repeat("a", 100))

	require.NoError(t, err)
	assert.Len(t, repo.insertedRSVP, 1)
}

func TestRemoveRSVP(t *testing.T) {
	repo := &fakeEventRepo{count: 0, names: []string{}}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	count, _, err := svc.RemoveRSVP(context.Background(), "cal-1", "Bob")

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []string{"cal-1/Bob"}, repo.deletedRSVP)
}

func TestRemoveRSVPPropagatesNotFound(t *testing.T) {
	repo := &fakeEventRepo{deleteErr: ErrRSVPNotFound}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	_, _, err := svc.RemoveRSVP(context.Background(), "cal-1", "Bob")

	assert.ErrorIs(t, err, ErrRSVPNotFound)
}

func TestUpdateAttendanceLimit(t *testing.T) {
	limit := 25
	repo := &fakeEventRepo{count: 3, names: []string{"a", "b", "c"}}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	got, err := svc.UpdateAttendanceLimit(context.Background(), "cal-1", &limit)

	require.NoError(t, err)
	require.NotNil(t, repo.updatedLimit)
	assert.Equal(t, 25, *repo.updatedLimit)
	assert.Equal(t, 3, got.AttendingCount)
}

func TestUpdateAttendanceLimitAllowsNull(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

	_, err := svc.UpdateAttendanceLimit(context.Background(), "cal-1", nil)

	require.NoError(t, err)
	assert.Nil(t, repo.updatedLimit)
}

func TestUpdateAttendanceLimitRejectsNonPositive(t *testing.T) {
	for _, limit := range []int{0, -5} {
		repo := &fakeEventRepo{}
		svc := NewEventService(repo, &fakeFeed{}, newEventsConfig(false))

		l := limit
		_, err := svc.UpdateAttendanceLimit(context.Background(), "cal-1", &l)

		assert.ErrorIs(t, err, ErrInvalidAttendanceLimit)
	}
}
