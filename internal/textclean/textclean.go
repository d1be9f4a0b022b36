// Package textclean holds the small deterministic text transforms
// shared by the LLM Client (spec §4.7) and the Humanisation
// Post-Processor (spec §4.12) — both must strip internal reasoning
// spans before the text reaches a user or a caller.
package textclean

import "regexp"

var thinkSpan = regexp.MustCompile(`(?is)<think>.*?</think>`)

// StripReasoningSpans removes every substring between literal <think>
// and </think> markers, case-insensitive and non-greedy: each span ends
// at the first </think> after its opening marker.
func StripReasoningSpans(text string) string {
	return thinkSpan.ReplaceAllString(text, "")
}
