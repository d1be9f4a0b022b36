package store

import (
	"database/sql"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// ConversationMessage is an inbound chat message keyed by its external
// webhook delivery id (message_sid), per spec §3.
type ConversationMessage struct {
	MessageSID     string
	ConversationID string
	From           string
	To             string
	Body           string
	ReceivedAt     time.Time
	Processed      bool
	EventExtracted bool
	LinkedEventID  string
}

// InsertMessageIdempotent inserts a message, returning (false, nil) for
// rows whose message_sid already exists — the webhook idempotency
// guarantee required by spec §3 ("duplicate deliveries are idempotent
// no-ops"). The second return value reports whether a new row was
// actually inserted.
func (s *Store) InsertMessageIdempotent(m ConversationMessage) (bool, error) {
	res, err := s.db.Exec(
		`INSERT INTO conversation_messages
			(message_sid, conversation_id, sender, recipient, body, received_at, processed, event_extracted, linked_event_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_sid) DO NOTHING`,
		m.MessageSID, m.ConversationID, m.From, m.To, m.Body, m.ReceivedAt.Format(time.RFC3339),
		m.Processed, m.EventExtracted, nullableString(m.LinkedEventID),
	)
	if err != nil {
		return false, apperror.Wrap(apperror.Internal, "store: insert message", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(apperror.Internal, "store: rows affected", err)
	}
	return n > 0, nil
}

// MarkMessageProcessed flips processed=true and records whether an
// event was extracted plus the linked event id, if any.
func (s *Store) MarkMessageProcessed(messageSID string, eventExtracted bool, linkedEventID string) error {
	_, err := s.db.Exec(
		`UPDATE conversation_messages SET processed = 1, event_extracted = ?, linked_event_id = ? WHERE message_sid = ?`,
		eventExtracted, nullableString(linkedEventID), messageSID,
	)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: mark message processed", err)
	}
	return nil
}

// UnprocessedMessages returns messages with processed=false for a
// conversation, ordered by received_at — the feed a batch reprocessing
// run (spec §4.9) walks.
func (s *Store) UnprocessedMessages(conversationID string) ([]ConversationMessage, error) {
	rows, err := s.db.Query(
		`SELECT message_sid, conversation_id, sender, recipient, body, received_at, processed, event_extracted, linked_event_id
		 FROM conversation_messages WHERE conversation_id = ? AND processed = 0 ORDER BY received_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: query unprocessed messages", err)
	}
	defer rows.Close()

	var out []ConversationMessage
	for rows.Next() {
		var m ConversationMessage
		var receivedAt string
		var linkedEventID sql.NullString
		if err := rows.Scan(&m.MessageSID, &m.ConversationID, &m.From, &m.To, &m.Body, &receivedAt,
			&m.Processed, &m.EventExtracted, &linkedEventID); err != nil {
			return nil, apperror.Wrap(apperror.Internal, "store: scan message row", err)
		}
		m.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
		m.LinkedEventID = linkedEventID.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
