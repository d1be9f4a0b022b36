package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/conversation"
	"github.com/ivanintech/agentic-assistant/internal/webhook"
)

// handleCalendlyWebhook validates the Calendly-Webhook-Signature HMAC
// over the exact raw body, then re-pulls the provider's event list
// through the already-registered ingest_calendly_events tool — spec §6
// names this endpoint as a trigger, not a payload source, since
// Calendly's webhook body varies by event type and the tool already
// knows how to fetch the authoritative list.
func (s *server) handleCalendlyWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}
	if !webhook.Validate(r.Header, webhook.HeaderCalendly, raw, s.deps.CalendlySecret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result := s.deps.Exec.Execute(ctx, "ingest_calendly_events", nil)
		if !result.Success {
			s.log.Error().Str("tool", result.ToolName).Str("error_kind", result.ErrorKind).
				Str("error", result.ErrorMessage).Msg("calendly webhook ingestion failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

type whatsAppWebhookPayload struct {
	MessageSID     string `json:"message_sid"`
	ConversationID string `json:"conversation_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Body           string `json:"body"`
}

// handleWhatsAppWebhook validates the provider's X-Hub-Signature-256
// HMAC, then ingests the inbound message through
// internal/conversation.Processor — idempotent on message_sid, per spec
// §3/§8.
func (s *server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}
	if !webhook.Validate(r.Header, webhook.HeaderWhatsApp, raw, s.deps.WhatsAppSecret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload whatsAppWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if payload.ConversationID == "" || payload.Body == "" {
		http.Error(w, "conversation_id and body are required", http.StatusBadRequest)
		return
	}

	msg := conversation.NewInboundMessage(payload.MessageSID, payload.ConversationID, payload.From, payload.To, payload.Body, time.Now())
	inserted, err := s.deps.Conv.Ingest(r.Context(), msg)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true, "new_message": inserted})
}
