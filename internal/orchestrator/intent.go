package orchestrator

import (
	"context"
	"strings"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
)

// lexiconBucket is one precedence-ordered entry of the rule-based
// classifier's keyword table.
type lexiconBucket struct {
	intent   Intent
	keywords []string
}

// ruleLexicon is the cheap first-pass keyword lexicon, per language,
// spec §4.6 step 2 requires, checked in a fixed precedence order rather
// than map order: Calendly-specific phrases first (so a scheduling-link
// request is never misclassified as a direct calendar action, per
// `original_source/app/agents/orchestrator.py detect_intent`), then
// Email, Comms, Calendar, and finally the generic Scheduling bucket
// (reschedule/availability wording that a calendar-keyword query should
// take precedence over). A query matching no bucket abstains and falls
// through to the LLM classifier.
var ruleLexicon = []lexiconBucket{
	{IntentScheduling, []string{
		"calendly",
	}},
	{IntentEmail, []string{
		"email", "e-mail", "inbox", "send a message to", "correo",
	}},
	{IntentComms, []string{
		"whatsapp", "text me", "send a whatsapp", "mensaje de whatsapp",
	}},
	{IntentCalendar, []string{
		"calendar", "agenda", "event", "schedule a", "meeting",
		"calendario", "reunión", "evento",
	}},
	{IntentScheduling, []string{
		"reschedule", "move the meeting", "available", "availability",
		"disponibilidad", "reprogramar",
	}},
}

// classifyByRule runs the keyword lexicon against query in ruleLexicon's
// declared precedence order and returns the first matching bucket. ok
// is false when no bucket matches — the caller must fall back to the
// LLM classifier.
func classifyByRule(query string) (Intent, bool) {
	lower := strings.ToLower(query)
	for _, bucket := range ruleLexicon {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.intent, true
			}
		}
	}
	return "", false
}

var validIntents = map[string]Intent{
	"CALENDAR": IntentCalendar, "EMAIL": IntentEmail, "SCHEDULING": IntentScheduling,
	"COMMS": IntentComms, "GENERAL": IntentGeneral,
}

// classifyByLLM is the fallback tier: a single, tool-free chat call
// asking the model to pick exactly one label.
func classifyByLLM(ctx context.Context, llm *llmclient.Client, query string) (Intent, error) {
	prompt := llmclient.Message{
		Role: llmclient.RoleSystem,
		Content: "Classify the user's message into exactly one label: CALENDAR, EMAIL, SCHEDULING, COMMS, or GENERAL. " +
			"Respond with the label only, nothing else.",
	}
	resp, err := llm.Chat(ctx, []llmclient.Message{prompt, {Role: llmclient.RoleUser, Content: query}}, nil)
	if err != nil {
		return "", err
	}
	label := strings.ToUpper(strings.TrimSpace(resp.Content))
	if intent, ok := validIntents[label]; ok {
		return intent, nil
	}
	return IntentGeneral, nil
}

// classify runs the two-tier classifier and returns the resolved
// Intent and its mapped AgentCode.
func classify(ctx context.Context, llm *llmclient.Client, query string) (Intent, AgentCode, error) {
	if intent, ok := classifyByRule(query); ok {
		return intent, intentToAgentCode[intent], nil
	}
	intent, err := classifyByLLM(ctx, llm, query)
	if err != nil {
		return "", "", err
	}
	return intent, intentToAgentCode[intent], nil
}
