package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("event is at capacity")
	ErrRSVPNotFound  = errors.New("rsvp not found")
)

type Event struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	Location    string
	Date        time.Time `gorm:"not null;index"`
	EndDate     *time.Time
	Source      string `gorm:"index"`

	// nil means unlimited attendance.
	AttendanceLimit *int

	RSVPs []RSVP `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RSVP struct {
	ID           string `gorm:"primaryKey"`
	EventID      string `gorm:"not null;index"`
	AttendeeName string `gorm:"not null"`
	Attendance   string `gorm:"not null;default:yes"`
	CreatedAt    time.Time
}

func (RSVP) TableName() string {
	return "rsvps"
}

// CalendarUpsert is one freshly fetched calendar event plus its optional
// description-sourced limit override. The override is kept apart from
// Event.AttendanceLimit so that "no override" stays distinguishable from
// "override to N".
type CalendarUpsert struct {
	Event         Event
	LimitOverride *int
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

// ReconcileCalendarEvents brings persisted events into agreement with the
// latest fetch inside a single transaction. The map holds one entry per
// successfully fetched source; sources that failed to fetch must not appear.
// For each fetched event the final attendance limit is: the description
// override when present, else the existing row's limit, else nil. All other
// fields are overwritten. Events whose id disappeared from their own source
// calendar's fetch are deleted — including every row of a source whose feed
// came back empty. The staleness check is partitioned strictly by source, so
// calendar A's fetch is never evidence for deleting calendar B's rows. Any
// failure rolls the whole reconciliation back.
func (d *EventDAO) ReconcileCalendarEvents(ctx context.Context, fetched map[string][]CalendarUpsert) error {
	if len(fetched) == 0 {
		return nil
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for source, upserts := range fetched {
			ids := make([]string, 0, len(upserts))

			for _, up := range upserts {
				ev := up.Event

				var existing Event
				err := tx.First(&existing, "id = ?", ev.ID).Error
				switch {
				case err == nil:
					if up.LimitOverride != nil {
						ev.AttendanceLimit = up.LimitOverride
					} else {
						ev.AttendanceLimit = existing.AttendanceLimit
					}
					ev.CreatedAt = existing.CreatedAt
					if err := tx.Save(&ev).Error; err != nil {
						return err
					}

				case errors.Is(err, gorm.ErrRecordNotFound):
					ev.AttendanceLimit = up.LimitOverride
					if err := tx.Create(&ev).Error; err != nil {
						return err
					}

				default:
					return err
				}

				ids = append(ids, ev.ID)
			}

			stale := tx.Where("source = ?", source)
			if len(ids) > 0 {
				stale = stale.Where("id NOT IN ?", ids)
			}
			if err := stale.Delete(&Event{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (d *EventDAO) FindByID(ctx context.Context, id string) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

// ListWithAttendance returns events filtered by time range, each with its
// attending RSVPs preloaded in creation order.
func (d *EventDAO) ListWithAttendance(ctx context.Context, timeRange string, now time.Time) ([]Event, error) {
	q := d.db.WithContext(ctx).
		Preload("RSVPs", func(db *gorm.DB) *gorm.DB {
			return db.Where("attendance = ?", "yes").Order("created_at ASC")
		}).
		Order("date ASC")

	switch timeRange {
	case "future":
		q = q.Where("date > ?", now)
	case "past":
		q = q.Where("date < ?", now)
	}

	var events []Event
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

// InsertRSVP adds one attending row, enforcing the event's attendance limit.
// The event row is locked FOR UPDATE for the duration of the check-then-insert
// so two concurrent adds cannot both pass a capacity check that only one
// should pass.
func (d *EventDAO) InsertRSVP(ctx context.Context, rsvp RSVP) (RSVP, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", rsvp.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if event.AttendanceLimit != nil {
			var count int64
			if err := tx.Model(&RSVP{}).
				Where("event_id = ? AND attendance = ?", rsvp.EventID, "yes").
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(*event.AttendanceLimit) {
				return ErrEventFull
			}
		}

		if err := tx.Create(&rsvp).Error; err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return ErrEventNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return RSVP{}, err
	}

	return rsvp, nil
}

// DeleteRSVP removes at most one attending row matching the event/name pair.
// When several attendees share a name, which row goes is unspecified; that
// ambiguity is accepted, not a defect to repair by deleting all matches.
func (d *EventDAO) DeleteRSVP(ctx context.Context, eventID, attendeeName string) error {
	var rsvp RSVP

	result := d.db.WithContext(ctx).
		First(&rsvp, "event_id = ? AND attendee_name = ? AND attendance = ?", eventID, attendeeName, "yes")
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrRSVPNotFound
		}

		return result.Error
	}

	return d.db.WithContext(ctx).Delete(&RSVP{}, "id = ?", rsvp.ID).Error
}

// CountAttendance returns the attending count and ordered attendee names for
// one event.
func (d *EventDAO) CountAttendance(ctx context.Context, eventID string) (int, []string, error) {
	var rsvps []RSVP

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND attendance = ?", eventID, "yes").
		Order("created_at ASC").
		Find(&rsvps)
	if result.Error != nil {
		return 0, nil, result.Error
	}

	names := make([]string, 0, len(rsvps))
	for _, r := range rsvps {
		names = append(names, r.AttendeeName)
	}

	return len(rsvps), names, nil
}

// UpdateAttendanceLimit sets the admin-controlled attendance limit. It is the
// only event field mutable outside calendar sync; a description-sourced
// override will still win on the next reconciliation.
func (d *EventDAO) UpdateAttendanceLimit(ctx context.Context, id string, limit *int) (Event, error) {
	result := d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("attendance_limit", limit)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, id)
}

// DeleteEvent removes an event row; the database cascades to its RSVPs.
func (d *EventDAO) DeleteEvent(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
