package orchestrator

import (
	"regexp"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/store"
)

// isoDatetime matches an RFC3339-ish timestamp embedded in free text.
// Free-text date/time parsing in full generality is out of scope here;
// this extracts the explicit, machine-readable windows that calendaring
// intents are expected to carry (e.g. already resolved by an upstream
// date-parsing turn), per spec §4.6 step 4's "any mentioned time
// window" — a best-effort annotation, not authoritative scheduling
// logic.
var isoDatetime = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?(Z|[+-]\d{2}:\d{2})?`)

// relativeDayTime matches the handful of relative day + clock-time
// phrasings the spec's own end-to-end scenarios use (e.g. "mañana a las
// 11", "tomorrow at 3pm"), since a calendaring query rarely arrives
// pre-resolved into ISO-8601. Only the day-word-first order is matched;
// a time phrase followed by the day word ("a las 11 mañana") is not.
var relativeDayTime = regexp.MustCompile(`(?i)\b(hoy|mañana|today|tomorrow)\b.{0,20}?\b(?:a las|at)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)

// extractMentionedWindow finds the first mentioned time window in
// query, per spec §4.6 step 4's "any mentioned time window": an
// explicit ISO-8601 timestamp (or pair, forming a [start, end) window)
// takes precedence since it is unambiguous; otherwise a relative
// day+time phrase like "mañana a las 11" is resolved against now. A
// single instant is treated as a zero-length window at that instant.
// No match returns nil.
func extractMentionedWindow(query string, now time.Time) *TimeWindow {
	if w := extractISOWindow(query); w != nil {
		return w
	}
	return extractRelativeWindow(query, now)
}

func extractISOWindow(query string) *TimeWindow {
	matches := isoDatetime.FindAllStringSubmatch(query, 2)
	if len(matches) == 0 {
		return nil
	}
	start, err := time.Parse(time.RFC3339, normaliseISO(matches[0][0], matches[0][2]))
	if err != nil {
		return nil
	}
	end := start
	if len(matches) == 2 {
		if parsed, err := time.Parse(time.RFC3339, normaliseISO(matches[1][0], matches[1][2])); err == nil {
			end = parsed
		}
	}
	return &TimeWindow{Start: start, End: end}
}

// extractRelativeWindow resolves "hoy/mañana/today/tomorrow a las/at
// H[:MM] [am|pm]" against now's local date, in now's location.
func extractRelativeWindow(query string, now time.Time) *TimeWindow {
	m := relativeDayTime.FindStringSubmatch(query)
	if m == nil {
		return nil
	}

	day := now
	switch m[1] {
	case "mañana", "tomorrow":
		day = day.AddDate(0, 0, 1)
	}

	hour := atoiDefault(m[2], 0)
	minute := atoiDefault(m[3], 0)
	switch m[4] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 {
		return nil
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return &TimeWindow{Start: at, End: at}
}

func atoiDefault(s string, fallback int) int {
	n := 0
	if s == "" {
		return fallback
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normaliseISO appends a UTC marker to raw when the match carried no
// timezone offset (tz empty).
func normaliseISO(raw, tz string) string {
	if tz == "" {
		return raw + "Z"
	}
	return raw
}

// conflictsForWindow returns the non-rejected events overlapping window,
// scanning the full upcoming-events feed since the store has no
// range-indexed query.
func conflictsForWindow(upcoming []store.ExtractedEvent, window *TimeWindow) []store.ExtractedEvent {
	if window == nil {
		return nil
	}
	var conflicts []store.ExtractedEvent
	for _, e := range upcoming {
		end := e.EndAt
		if end.IsZero() {
			end = e.StartAt
		}
		overlaps := e.StartAt.Before(window.End) && end.After(window.Start)
		if window.End.Equal(window.Start) {
			// A single instant overlaps an event that contains it,
			// including one that starts exactly at that instant.
			overlaps = !e.StartAt.After(window.Start) && end.After(window.Start)
		}
		if overlaps {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}
