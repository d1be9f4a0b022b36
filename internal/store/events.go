package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// EventStatus enumerates the forward-only lifecycle of an ExtractedEvent
// (spec §3): proposed|suggested → confirmed → created, or → rejected.
type EventStatus string

const (
	StatusProposed  EventStatus = "proposed"
	StatusSuggested EventStatus = "suggested"
	StatusConfirmed EventStatus = "confirmed"
	StatusCreated   EventStatus = "created"
	StatusRejected  EventStatus = "rejected"
)

// allowedTransitions encodes the forward-only status graph.
var allowedTransitions = map[EventStatus]map[EventStatus]bool{
	StatusProposed:  {StatusConfirmed: true, StatusRejected: true},
	StatusSuggested: {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusCreated: true, StatusRejected: true},
}

// CanTransition reports whether moving from 'from' to 'to' is a valid
// forward-only transition.
func CanTransition(from, to EventStatus) bool {
	return allowedTransitions[from][to]
}

// ExtractedEvent is a calendar event candidate inferred from
// conversation or tool activity (spec §3).
type ExtractedEvent struct {
	ID              string
	Source          string
	Title           string
	StartAt         time.Time
	EndAt           time.Time // zero value means absent
	Timezone        string
	Location        string
	Attendees       []string
	Status          EventStatus
	Confidence      float64
	RelevanceScore  *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InsertExtractedEvent persists a new event. end_at ≥ start_at is
// enforced when end_at is present, per spec §3.
func (s *Store) InsertExtractedEvent(e ExtractedEvent) error {
	if !e.EndAt.IsZero() && e.EndAt.Before(e.StartAt) {
		return apperror.New(apperror.Application, "store: extracted event end_at precedes start_at")
	}
	attendees, err := json.Marshal(e.Attendees)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: marshal attendees", err)
	}
	now := nowRFC3339()
	_, err = s.db.Exec(
		`INSERT INTO extracted_events
			(id, source, title, start_at, end_at, timezone, location, attendees, status, confidence, relevance_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, e.Title, e.StartAt.Format(time.RFC3339), nullableTime(e.EndAt),
		e.Timezone, nullableString(e.Location), string(attendees), string(e.Status),
		e.Confidence, nullableFloat(e.RelevanceScore), now, now,
	)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: insert extracted event", err)
	}
	s.recordAudit("extracted_event", e.ID, "created", string(e.Status))
	return nil
}

// GetExtractedEvent fetches an event by id.
func (s *Store) GetExtractedEvent(id string) (*ExtractedEvent, error) {
	row := s.db.QueryRow(
		`SELECT id, source, title, start_at, end_at, timezone, location, attendees, status, confidence, relevance_score, created_at, updated_at
		 FROM extracted_events WHERE id = ?`, id)
	e, err := scanExtractedEvent(row)
	if err == sql.ErrNoRows {
		return nil, apperror.New(apperror.Application, fmt.Sprintf("store: extracted event %q not found", id))
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: scan extracted event", err)
	}
	return e, nil
}

// TransitionStatus moves an event to a new status, rejecting any
// transition not present in the forward-only status graph.
func (s *Store) TransitionStatus(id string, to EventStatus) error {
	e, err := s.GetExtractedEvent(id)
	if err != nil {
		return err
	}
	if !CanTransition(e.Status, to) {
		return apperror.New(apperror.Application,
			fmt.Sprintf("store: invalid transition %s -> %s for event %q", e.Status, to, id))
	}
	_, err = s.db.Exec(
		`UPDATE extracted_events SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), nowRFC3339(), id,
	)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: update event status", err)
	}
	s.recordAudit("extracted_event", id, "status_transition", fmt.Sprintf("%s->%s", e.Status, to))
	return nil
}

func scanExtractedEvent(row *sql.Row) (*ExtractedEvent, error) {
	var e ExtractedEvent
	var startAt, createdAt, updatedAt string
	var endAt, location sql.NullString
	var attendeesJSON string
	var status string
	var relevance sql.NullFloat64

	if err := row.Scan(&e.ID, &e.Source, &e.Title, &startAt, &endAt, &e.Timezone, &location,
		&attendeesJSON, &status, &e.Confidence, &relevance, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	e.StartAt, _ = time.Parse(time.RFC3339, startAt)
	if endAt.Valid {
		e.EndAt, _ = time.Parse(time.RFC3339, endAt.String)
	}
	e.Location = location.String
	e.Status = EventStatus(status)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if relevance.Valid {
		v := relevance.Float64
		e.RelevanceScore = &v
	}
	_ = json.Unmarshal([]byte(attendeesJSON), &e.Attendees)
	return &e, nil
}

// UpcomingExtractedEvents returns up to limit non-rejected events
// ordered by start_at ascending — the feed list_agenda_events reads.
func (s *Store) UpcomingExtractedEvents(limit int) ([]ExtractedEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, source, title, start_at, end_at, timezone, location, attendees, status, confidence, relevance_score, created_at, updated_at
		 FROM extracted_events WHERE status != ? ORDER BY start_at ASC LIMIT ?`,
		string(StatusRejected), limit,
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: query upcoming events", err)
	}
	defer rows.Close()

	var out []ExtractedEvent
	for rows.Next() {
		var e ExtractedEvent
		var startAt, createdAt, updatedAt string
		var endAt, location sql.NullString
		var attendeesJSON string
		var status string
		var relevance sql.NullFloat64

		if err := rows.Scan(&e.ID, &e.Source, &e.Title, &startAt, &endAt, &e.Timezone, &location,
			&attendeesJSON, &status, &e.Confidence, &relevance, &createdAt, &updatedAt); err != nil {
			return nil, apperror.Wrap(apperror.Internal, "store: scan upcoming event row", err)
		}
		e.StartAt, _ = time.Parse(time.RFC3339, startAt)
		if endAt.Valid {
			e.EndAt, _ = time.Parse(time.RFC3339, endAt.String)
		}
		e.Location = location.String
		e.Status = EventStatus(status)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		if relevance.Valid {
			v := relevance.Float64
			e.RelevanceScore = &v
		}
		_ = json.Unmarshal([]byte(attendeesJSON), &e.Attendees)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CalendarEvent is the materialised, provider-synced counterpart of an
// ExtractedEvent once it transitions to status=created (spec §3).
type CalendarEvent struct {
	Provider        string
	ProviderEventID string
	CalendarID      string
	Title           string
	StartAt         time.Time
	EndAt           time.Time
	Status          string
	LastSyncAt      time.Time
}

// UpsertCalendarEvent creates or refreshes the (provider, provider_event_id)
// row backing a created ExtractedEvent.
func (s *Store) UpsertCalendarEvent(c CalendarEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO calendar_events (provider, provider_event_id, calendar_id, title, start_at, end_at, status, last_sync_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider, provider_event_id) DO UPDATE SET
			calendar_id = excluded.calendar_id, title = excluded.title,
			start_at = excluded.start_at, end_at = excluded.end_at,
			status = excluded.status, last_sync_at = excluded.last_sync_at`,
		c.Provider, c.ProviderEventID, c.CalendarID, c.Title, c.StartAt.Format(time.RFC3339),
		nullableTime(c.EndAt), c.Status, nowRFC3339(),
	)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: upsert calendar event", err)
	}
	return nil
}

// GetCalendarEvent fetches a calendar event by provider id pair.
func (s *Store) GetCalendarEvent(provider, providerEventID string) (*CalendarEvent, error) {
	row := s.db.QueryRow(
		`SELECT provider, provider_event_id, calendar_id, title, start_at, end_at, status, last_sync_at
		 FROM calendar_events WHERE provider = ? AND provider_event_id = ?`, provider, providerEventID)

	var c CalendarEvent
	var startAt, lastSync string
	var endAt sql.NullString
	if err := row.Scan(&c.Provider, &c.ProviderEventID, &c.CalendarID, &c.Title, &startAt, &endAt, &c.Status, &lastSync); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.New(apperror.Application, fmt.Sprintf("store: calendar event %s/%s not found", provider, providerEventID))
		}
		return nil, apperror.Wrap(apperror.Internal, "store: scan calendar event", err)
	}
	c.StartAt, _ = time.Parse(time.RFC3339, startAt)
	if endAt.Valid {
		c.EndAt, _ = time.Parse(time.RFC3339, endAt.String)
	}
	c.LastSyncAt, _ = time.Parse(time.RFC3339, lastSync)
	return &c, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
