package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherhub/gatherhub-api/internal/domain"
	"github.com/gatherhub/gatherhub-api/internal/repository/dao"
)

var (
	ErrEventNotFound = dao.ErrEventNotFound
	ErrEventFull     = dao.ErrEventFull
	ErrRSVPNotFound  = dao.ErrRSVPNotFound
)

type EventDAO interface {
	ReconcileCalendarEvents(ctx context.Context, fetched map[string][]dao.CalendarUpsert) error
	FindByID(ctx context.Context, id string) (dao.Event, error)
	ListWithAttendance(ctx context.Context, timeRange string, now time.Time) ([]dao.Event, error)
	InsertRSVP(ctx context.Context, rsvp dao.RSVP) (dao.RSVP, error)
	DeleteRSVP(ctx context.Context, eventID, attendeeName string) error
	CountAttendance(ctx context.Context, eventID string) (int, []string, error)
	UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (dao.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) daoToDomain(ev dao.Event) domain.Event {
	return domain.Event{
		ID:              ev.ID,
		Title:           ev.Title,
		Description:     ev.Description,
		Location:        ev.Location,
		Date:            ev.Date,
		EndDate:         ev.EndDate,
		Source:          ev.Source,
		AttendanceLimit: ev.AttendanceLimit,
		CreatedAt:       ev.CreatedAt,
		UpdatedAt:       ev.UpdatedAt,
	}
}

// Reconcile maps each successfully fetched source's events into dao upserts.
// A source with zero events stays in the map so the DAO can clear its rows.
func (r *EventRepository) Reconcile(ctx context.Context, fetched map[string][]domain.CalendarEvent) error {
	upserts := make(map[string][]dao.CalendarUpsert, len(fetched))
	for source, events := range fetched {
		sourceUpserts := make([]dao.CalendarUpsert, 0, len(events))
		for _, ev := range events {
			sourceUpserts = append(sourceUpserts, dao.CalendarUpsert{
				Event: dao.Event{
					ID:          ev.ID,
					Title:       ev.Title,
					Description: ev.Description,
					Location:    ev.Location,
					Date:        ev.Date,
					EndDate:     ev.EndDate,
					Source:      ev.Source,
				},
				LimitOverride: ev.LimitOverride,
			})
		}
		upserts[source] = sourceUpserts
	}

	if err := r.dao.ReconcileCalendarEvents(ctx, upserts); err != nil {
		return fmt.Errorf("r.dao.ReconcileCalendarEvents -> %w", err)
	}

	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (domain.Event, error) {
	event, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(event), nil
}

func (r *EventRepository) ListWithAttendance(ctx context.Context, timeRange string, now time.Time) ([]domain.EventAttendance, error) {
	events, err := r.dao.ListWithAttendance(ctx, timeRange, now)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListWithAttendance -> %w", err)
	}

	out := make([]domain.EventAttendance, 0, len(events))
	for _, ev := range events {
		names := make([]string, 0, len(ev.RSVPs))
		for _, rsvp := range ev.RSVPs {
			names = append(names, rsvp.AttendeeName)
		}

		out = append(out, domain.EventAttendance{
			Event:          r.daoToDomain(ev),
			AttendingCount: len(names),
			Attendees:      names,
		})
	}

	return out, nil
}

func (r *EventRepository) InsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, error) {
	created, err := r.dao.InsertRSVP(ctx, dao.RSVP{
		ID:           rsvp.ID,
		EventID:      rsvp.EventID,
		AttendeeName: rsvp.AttendeeName,
		Attendance:   rsvp.Attendance,
		CreatedAt:    rsvp.CreatedAt,
	})
	if err != nil {
		return domain.RSVP{}, err
	}

	return domain.RSVP{
		ID:           created.ID,
		EventID:      created.EventID,
		AttendeeName: created.AttendeeName,
		Attendance:   created.Attendance,
		CreatedAt:    created.CreatedAt,
	}, nil
}

func (r *EventRepository) DeleteRSVP(ctx context.Context, eventID, attendeeName string) error {
	return r.dao.DeleteRSVP(ctx, eventID, attendeeName)
}

func (r *EventRepository) CountAttendance(ctx context.Context, eventID string) (int, []string, error) {
	count, names, err := r.dao.CountAttendance(ctx, eventID)
	if err != nil {
		return 0, nil, fmt.Errorf("r.dao.CountAttendance -> %w", err)
	}

	return count, names, nil
}

func (r *EventRepository) UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (domain.Event, error) {
	event, err := r.dao.UpdateAttendanceLimit(ctx, id, limit)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(event), nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	return r.dao.DeleteEvent(ctx, id)
}
