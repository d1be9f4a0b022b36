// Package conversation implements the Conversation Processor of spec
// §4.9: idempotent webhook ingestion, an asynchronous orchestrator
// invocation, and a batch reprocessing entry point over the same
// contract.
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

// AgentRunner is the subset of orchestrator.Graph the processor depends on.
type AgentRunner interface {
	Run(ctx context.Context, query string, history []llmclient.Message, now time.Time) (*orchestrator.AgentState, error)
}

// Messenger sends the final reply back to the conversation's channel.
type Messenger interface {
	Send(ctx context.Context, to, body string) error
}

// HistoryWindow is the default number of prior messages composed into
// chat_history before invoking the orchestrator (spec §4.9 step 4).
const HistoryWindow = 10

// Processor wires the persistent message store to the orchestrator and
// a reply channel.
type Processor struct {
	store   *store.Store
	agent   AgentRunner
	replyTo Messenger
	window  int
}

// New builds a Processor. window<=0 uses HistoryWindow.
func New(s *store.Store, agent AgentRunner, replyTo Messenger, window int) *Processor {
	if window <= 0 {
		window = HistoryWindow
	}
	return &Processor{store: s, agent: agent, replyTo: replyTo, window: window}
}

// Ingest runs spec §4.9 steps 1-2 synchronously (the caller has already
// verified the webhook signature via internal/webhook before calling
// Ingest) and returns immediately so the HTTP handler can answer the
// provider's SLA; process runs the rest asynchronously in the
// background.
func (p *Processor) Ingest(ctx context.Context, msg store.ConversationMessage) (inserted bool, err error) {
	inserted, err = p.store.InsertMessageIdempotent(msg)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil // duplicate delivery — silent success, per spec §3
	}
	go p.process(context.WithoutCancel(ctx), msg)
	return true, nil
}

// process runs spec §4.9 steps 4-5 for one newly-ingested message.
func (p *Processor) process(ctx context.Context, msg store.ConversationMessage) {
	history, err := p.recentHistory(msg.ConversationID, msg.ReceivedAt)
	if err != nil {
		return
	}

	state, err := p.agent.Run(ctx, msg.Body, history, time.Now())
	if err != nil {
		return
	}

	linkedEventID := p.linkedEventID(state)
	_ = p.store.MarkMessageProcessed(msg.MessageSID, linkedEventID != "", linkedEventID)

	if p.replyTo != nil {
		_ = p.replyTo.Send(ctx, msg.From, state.Response)
	}
}

// linkedEventID finds the event id of the first successful
// calendar-intent tool call in state's tool results, if any, per spec
// §4.9 step 4's "mark the triggering message event_extracted=true and
// link linked_event_id."
func (p *Processor) linkedEventID(state *orchestrator.AgentState) string {
	for _, r := range state.ToolResults {
		if !r.Success {
			continue
		}
		m, ok := r.Result.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := m["event_id"].(string); ok && id != "" {
			return id
		}
		if id, ok := m["provider_event_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// recentHistory composes the last window still-unprocessed messages of
// conversationID (the store.UnprocessedMessages feed, which includes the
// message being processed) into chat_history, oldest first. Messages
// already marked processed are not included, and before does not bound
// the window.
func (p *Processor) recentHistory(conversationID string, before time.Time) ([]llmclient.Message, error) {
	all, err := p.store.UnprocessedMessages(conversationID)
	if err != nil {
		return nil, err
	}
	start := 0
	if len(all) > p.window {
		start = len(all) - p.window
	}
	history := make([]llmclient.Message, 0, len(all)-start)
	for _, m := range all[start:] {
		history = append(history, llmclient.Message{Role: llmclient.RoleUser, Content: m.Body})
	}
	return history, nil
}

// ReprocessConversation is the batch reprocessing entry point of spec
// §4.9: it re-scans a conversation's unprocessed messages (possibly
// spanning more than one message per extracted event) and runs the
// same orchestrator contract Ingest uses. The synthesised request's
// received_at is preserved from the newest unprocessed message in the
// batch, not the reprocessing run's own time, since the event's
// narrative grounding is the conversation history (resolved Open
// Question, see DESIGN.md).
func (p *Processor) ReprocessConversation(ctx context.Context, conversationID string) error {
	messages, err := p.store.UnprocessedMessages(conversationID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	history := make([]llmclient.Message, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		history = append(history, llmclient.Message{Role: llmclient.RoleUser, Content: m.Body})
	}
	latest := messages[len(messages)-1]

	state, err := p.agent.Run(ctx, latest.Body, history, latest.ReceivedAt)
	if err != nil {
		return apperror.Wrap(apperror.Internal, fmt.Sprintf("conversation: reprocess %s", conversationID), err)
	}

	linkedEventID := p.linkedEventID(state)
	for _, m := range messages {
		if err := p.store.MarkMessageProcessed(m.MessageSID, linkedEventID != "", linkedEventID); err != nil {
			return err
		}
	}

	if p.replyTo != nil {
		return p.replyTo.Send(ctx, latest.From, state.Response)
	}
	return nil
}

// NewInboundMessage builds a ConversationMessage from webhook fields,
// minting an id if the provider delivers none (rare, defensive).
func NewInboundMessage(messageSID, conversationID, from, to, body string, receivedAt time.Time) store.ConversationMessage {
	if messageSID == "" {
		messageSID = uuid.NewString()
	}
	return store.ConversationMessage{
		MessageSID: messageSID, ConversationID: conversationID,
		From: from, To: to, Body: body, ReceivedAt: receivedAt,
	}
}
