package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/gatherhub/gatherhub-api/internal/config"
	"github.com/gatherhub/gatherhub-api/internal/domain"
)

const googleFeedBase = "https://calendar.google.com/calendar/ical"

// Fetcher retrieves the public iCal feeds of configured Google Calendars.
type Fetcher struct {
	client   *http.Client
	feedBase string
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		feedBase: googleFeedBase,
	}
}

var (
	embedSrcRe  = regexp.MustCompile(`[?&]src=([^&]+)`)
	icalPathRe  = regexp.MustCompile(`/ical/([^/]+)/`)
	genericIDRe = regexp.MustCompile(`calendar/([^/?#]+)`)
)

// ExtractCalendarID resolves a calendar's public identifier from a configured
// URL. Three shapes are recognized, first match wins: an embed URL carrying a
// src= parameter, a direct /ical/<id>/ URL, and a generic calendar/<id> path.
func ExtractCalendarID(calendarURL string) (string, bool) {
	for _, re := range []*regexp.Regexp{embedSrcRe, icalPathRe, genericIDRe} {
		if m := re.FindStringSubmatch(calendarURL); m != nil {
			id, err := url.QueryUnescape(m[1])
			if err != nil {
				return m[1], true
			}
			return id, true
		}
	}

	return "", false
}

// feedURL builds the public basic.ics URL for a calendar id.
func (f *Fetcher) feedURL(calendarID string) string {
	return fmt.Sprintf("%s/%s/public/basic.ics", f.feedBase, url.QueryEscape(calendarID))
}

// FetchAll fetches every enabled calendar and returns the parsed events keyed
// by source calendar id. A failing calendar never aborts the others: its error
// is logged and its source is absent from the result. A calendar that fetches
// fine but carries zero events IS present, with an empty slice — that is the
// upstream telling us its events are gone, which downstream reconciliation
// must act on, unlike a fetch failure.
func (f *Fetcher) FetchAll(ctx context.Context, calendars []config.CalendarConfig) map[string][]domain.CalendarEvent {
	events := make(map[string][]domain.CalendarEvent)

	for _, cal := range calendars {
		if !cal.Enabled {
			continue
		}

		id, ok := ExtractCalendarID(cal.URL)
		if !ok {
			zap.L().Error("unrecognized calendar URL shape",
				zap.String("calendar", cal.Name),
				zap.String("url", cal.URL))
			continue
		}

		body, err := f.fetchFeed(ctx, id)
		if err != nil {
			zap.L().Error("calendar fetch failed",
				zap.String("calendar", cal.Name),
				zap.String("id", id),
				zap.Error(err))
			continue
		}

		parsed := Parse(id, body)
		zap.L().Info("calendar fetched",
			zap.String("calendar", cal.Name),
			zap.Int("events", len(parsed)))
		events[id] = parsed
	}

	return events
}

func (f *Fetcher) fetchFeed(ctx context.Context, calendarID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL(calendarID), nil)
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("f.client.Do -> %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %v fetching calendar feed", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("io.ReadAll -> %w", err)
	}

	return string(body), nil
}
