package ics

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gatherhub/gatherhub-api/internal/domain"
)

// Parse converts one calendar's raw iCalendar text into CalendarEvents,
// tagged with the given source calendar id. Pure function: no I/O,
// deterministic for the same input.
//
// A VEVENT block missing SUMMARY, DTSTART or UID is not a usable event and
// is dropped. A block whose DTSTART or DTEND cannot be normalized is dropped
// entirely as well; silently losing malformed upstream entries is the
// intended policy.
func Parse(source, text string) []domain.CalendarEvent {
	blocks := strings.Split(unfold(text), "BEGIN:VEVENT")
	if len(blocks) < 2 {
		return nil
	}

	var events []domain.CalendarEvent
	for _, block := range blocks[1:] {
		ev, ok := parseBlock(source, block)
		if !ok {
			continue
		}
		events = append(events, ev)
	}

	return events
}

func parseBlock(source, block string) (domain.CalendarEvent, bool) {
	fields := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		colon := strings.Index(line, ":")
		if colon < 1 {
			continue
		}

		// Property parameters (DTSTART;VALUE=DATE:...) are not significant
		// for any field we read; strip them.
		name := line[:colon]
		if semi := strings.Index(name, ";"); semi >= 0 {
			name = name[:semi]
		}

		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = line[colon+1:]
	}

	uid := strings.TrimSpace(fields["UID"])
	summary := fields["SUMMARY"]
	dtstart := strings.TrimSpace(fields["DTSTART"])
	if uid == "" || summary == "" || dtstart == "" {
		return domain.CalendarEvent{}, false
	}

	date, err := normalizeDate(dtstart)
	if err != nil {
		return domain.CalendarEvent{}, false
	}

	var endDate *time.Time
	if dtend := strings.TrimSpace(fields["DTEND"]); dtend != "" {
		end, err := normalizeDate(dtend)
		if err != nil {
			return domain.CalendarEvent{}, false
		}
		endDate = &end
	}

	description := DecodeText(fields["DESCRIPTION"])

	return domain.CalendarEvent{
		ID:            "cal-" + uid,
		Title:         DecodeText(summary),
		Description:   description,
		Location:      DecodeText(fields["LOCATION"]),
		Date:          date,
		EndDate:       endDate,
		Source:        source,
		LimitOverride: extractLimit(description),
	}, true
}

// unfold joins RFC 5545 folded lines: a line starting with whitespace
// continues the previous one.
func unfold(text string) string {
	text = strings.ReplaceAll(text, "\r\n ", "")
	text = strings.ReplaceAll(text, "\r\n\t", "")
	text = strings.ReplaceAll(text, "\n ", "")
	text = strings.ReplaceAll(text, "\n\t", "")
	return text
}

// normalizeDate accepts the two date forms Google Calendar feeds emit: an
// 8-digit all-day date (YYYYMMDD, implying midnight UTC) and a 15- or
// 16-character timestamp (YYYYMMDDTHHMMSS with optional trailing Z). Both
// normalize to a UTC instant; anything else is unparseable.
func normalizeDate(v string) (time.Time, error) {
	switch {
	case len(v) == 8:
		return time.Parse("20060102", v)
	case len(v) == 15:
		return time.Parse("20060102T150405", v)
	case len(v) == 16 && strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	default:
		return time.Time{}, errUnparseableDate
	}
}

var errUnparseableDate = errors.New("unsupported iCal date form")

var (
	breakTagRe  = regexp.MustCompile(`(?i)<\s*(?:br|hr)\s*/?\s*>`)
	closeTagRe  = regexp.MustCompile(`(?i)</\s*(?:p|div)\s*>`)
	anchorTagRe = regexp.MustCompile(`(?is)<a\b[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	anyTagRe    = regexp.MustCompile(`<[^>]*>`)
	newlinesRe  = regexp.MustCompile(`\n{3,}`)
	limitRe     = regexp.MustCompile(`(?i)limit:\s*(\d+)`)
)

// DecodeText turns an iCal text value into plain text. The transformation
// order is fixed and load-bearing: unescape iCal backslash sequences, convert
// structural HTML tags to newlines, rewrite anchors as "text (href)", drop
// every remaining tag, decode entities, then collapse runs of blank lines.
func DecodeText(v string) string {
	if v == "" {
		return ""
	}

	v = unescape(v)

	v = breakTagRe.ReplaceAllString(v, "\n")
	v = closeTagRe.ReplaceAllString(v, "\n")
	v = anchorTagRe.ReplaceAllString(v, "$2 ($1)")
	v = anyTagRe.ReplaceAllString(v, "")

	for _, e := range [...][2]string{
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
		{"&nbsp;", " "},
	} {
		v = strings.ReplaceAll(v, e[0], e[1])
	}

	v = newlinesRe.ReplaceAllString(v, "\n\n")

	return strings.TrimSpace(v)
}

// unescape resolves the RFC 5545 TEXT escapes \n, \, \; and \\.
func unescape(v string) string {
	var b strings.Builder
	b.Grow(len(v))

	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i+1 == len(v) {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(v[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(v[i])
		}
	}

	return b.String()
}

// extractLimit scans a decoded description for an explicit "limit: N"
// attendance cap. nil means the description did not specify one; that must
// stay distinguishable from "limit: 0".
func extractLimit(description string) *int {
	m := limitRe.FindStringSubmatch(description)
	if m == nil {
		return nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	return &n
}
