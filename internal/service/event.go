package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub-api/internal/config"
	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/repository"
)

var (
	ErrEventNotFound = repository.ErrEventNotFound
	ErrEventFull     = repository.ErrEventFull
	ErrRSVPNotFound  = repository.ErrRSVPNotFound

	ErrEmptyAttendeeName      = errors.New("attendee name must not be empty")
	ErrAttendeeNameTooLong    = errors.New("attendee name must be at most 100 characters")
	ErrSuspiciousAttendeeName = errors.New("attendee name contains disallowed content")
	ErrInvalidAttendanceLimit = errors.New("attendance limit must be a positive integer or null")
)

const maxAttendeeNameLen = 100

// Patterns that get an attendee name rejected outright. Matching is
// case-insensitive substring search; the goal is rejecting script injection
// in a free-text field, not general HTML parsing.
var suspiciousNamePatterns = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onclick=",
	"onload=",
}

type EventRepository interface {
	Reconcile(ctx context.Context, fetched map[string][]domain.CalendarEvent) error
	FindByID(ctx context.Context, id string) (domain.Event, error)
	ListWithAttendance(ctx context.Context, timeRange string, now time.Time) ([]domain.EventAttendance, error)
	InsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error)
	DeleteRSVP(ctx context.Context, eventID, attendeeName string) error
	CountAttendance(ctx context.Context, eventID string) (int, []string, error)
	UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CalendarFeed is the TTL-cached calendar fetch, keyed by source calendar id.
// A source maps to an empty slice when its feed fetched fine but holds no
// events; a source that failed to fetch is absent entirely.
type CalendarFeed interface {
	GetOrRefresh(ctx context.Context) map[string][]domain.CalendarEvent
}

type EventService struct {
	repo EventRepository
	feed CalendarFeed
	conf *config.EventsConfig
}

func NewEventService(repo EventRepository, feed CalendarFeed, conf *config.EventsConfig) *EventService {
	return &EventService{
		repo: repo,
		feed: feed,
		conf: conf,
	}
}

// ListEvents serves the read path. With auto-fetch enabled it first
// reconciles storage against the (cached) upstream feeds, so a slow upstream
// fetch adds latency here rather than running on a timer.
func (s *EventService) ListEvents(ctx context.Context, timeRange string) ([]domain.EventAttendance, error) {
	if timeRange == "" {
		timeRange = s.conf.DefaultTimeRange
	}

	// Reconcile whenever at least one calendar fetched successfully. A
	// successfully fetched empty calendar must flow through so its stale
	// rows get deleted; only an all-sources-failed cycle skips.
	if s.conf.AutoFetch && s.feed != nil {
		fetched := s.feed.GetOrRefresh(ctx)
		if len(fetched) > 0 {
			if err := s.repo.Reconcile(ctx, fetched); err != nil {
				return nil, fmt.Errorf("s.repo.Reconcile -> %w", err)
			}
		}
	}

	events, err := s.repo.ListWithAttendance(ctx, timeRange, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListWithAttendance -> %w", err)
	}

	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Event{}, ErrEventNotFound
		}

		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

// AddRSVP records one attending name against an event and returns the
// post-add attendance snapshot for broadcasting.
func (s *EventService) AddRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error) {
	if err := validateAttendeeName(attendeeName); err != nil {
		return 0, nil, err
	}

	_, err := s.repo.InsertRSVP(ctx, domain.RSVP{
		ID:           uuid.NewString(),
		EventID:      eventID,
		AttendeeName: attendeeName,
		Attendance:   domain.AttendanceYes,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return 0, nil, err
	}

	return s.repo.CountAttendance(ctx, eventID)
}

// RemoveRSVP deletes one attending row for the event/name pair and returns
// the post-remove attendance snapshot.
func (s *EventService) RemoveRSVP(ctx context.Context, eventID, attendeeName string) (int, []string, error) {
	if err := validateAttendeeName(attendeeName); err != nil {
		return 0, nil, err
	}

	if err := s.repo.DeleteRSVP(ctx, eventID, attendeeName); err != nil {
		return 0, nil, err
	}

	return s.repo.CountAttendance(ctx, eventID)
}

// UpdateAttendanceLimit is the admin path; the limit is the only event field
// mutable outside calendar sync. Note that a "limit:" token in the source
// calendar's description still wins on the next sync.
func (s *EventService) UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.EventAttendance, error) {
	if limit != nil && *limit <= 0 {
		return domain.EventAttendance{}, ErrInvalidAttendanceLimit
	}

	event, err := s.repo.UpdateAttendanceLimit(ctx, id, limit)
	if err != nil {
		return domain.EventAttendance{}, err
	}

	count, names, err := s.repo.CountAttendance(ctx, id)
	if err != nil {
		return domain.EventAttendance{}, fmt.Errorf("s.repo.CountAttendance -> %w", err)
	}

	return domain.EventAttendance{
		Event:          event,
		AttendingCount: count,
		Attendees:      names,
	}, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	return s.repo.DeleteEvent(ctx, id)
}

func validateAttendeeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyAttendeeName
	}
	if len(name) > maxAttendeeNameLen {
		return ErrAttendeeNameTooLong
	}

	lowered := strings.ToLower(name)
	for _, pattern := range suspiciousNamePatterns {
		if strings.Contains(lowered, pattern) {
			return ErrSuspiciousAttendeeName
		}
	}

	return nil
}
