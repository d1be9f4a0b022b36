package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// PolicyConfig bounds the hard rules stage 5 enforces.
type PolicyConfig struct {
	WorkingHourStart int // 0-23, local time
	WorkingHourEnd   int // 0-23, local time
	MaxLookahead     time.Duration
}

// destructiveKeywords name actions that require an explicit user
// confirmation token before dispatch.
var destructiveKeywords = []string{
	"cancel", "delete", "remove the event",
	"cancelar", "eliminar", "borrar", "borrando",
}

const confirmationToken = "confirm:"

// evaluatePolicy applies spec §4.6 step 5's hard rules against state. A
// non-empty refusal short-circuits the graph straight to response.
func evaluatePolicy(state *AgentState, cfg PolicyConfig, now time.Time) string {
	if window := state.MentionedWindow; window != nil {
		if refusal := checkWorkingHours(window, cfg); refusal != "" {
			return refusal
		}
		if cfg.MaxLookahead > 0 && window.Start.After(now.Add(cfg.MaxLookahead)) {
			return fmt.Sprintf("That falls more than %s ahead, which is beyond what I'm allowed to schedule.", cfg.MaxLookahead)
		}
	}

	if isDestructive(state.UserQuery) && !strings.Contains(strings.ToLower(state.UserQuery), confirmationToken) {
		return "That action deletes or cancels something — reply with a confirmation before I proceed."
	}

	return ""
}

func checkWorkingHours(window *TimeWindow, cfg PolicyConfig) string {
	hour := window.Start.Hour()
	if hour < cfg.WorkingHourStart || hour >= cfg.WorkingHourEnd {
		return fmt.Sprintf("That time is outside working hours (%02d:00-%02d:00).", cfg.WorkingHourStart, cfg.WorkingHourEnd)
	}
	return ""
}

func isDestructive(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range destructiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
