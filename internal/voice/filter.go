package voice

import (
	"regexp"
	"strings"
)

// DefaultFillerWords is the English-default filler-word list; callers
// may configure another list (e.g. Spanish) via NewNonsenseFilter,
// mirroring the locale-pluggability decided for the embedding cache's
// text-normalisation Open Question.
var DefaultFillerWords = []string{
	"um", "uh", "uhh", "umm", "like", "you know", "basically",
	"actually", "literally", "so", "er", "ah", "hmm", "well", "okay",
}

// NonsenseFilter rejects a transcription before it reaches the
// Orchestrator, per spec §4.8: the transcription must be at least
// MinChars long and contain at least one non-filler token.
type NonsenseFilter struct {
	MinChars int
	pattern  *regexp.Regexp
}

// NewNonsenseFilter builds a filter over fillerWords (DefaultFillerWords
// if nil) with the given minimum character threshold (spec default 3).
func NewNonsenseFilter(fillerWords []string, minChars int) *NonsenseFilter {
	if fillerWords == nil {
		fillerWords = DefaultFillerWords
	}
	if minChars <= 0 {
		minChars = 3
	}
	escaped := make([]string, len(fillerWords))
	for i, w := range fillerWords {
		escaped[i] = `\b` + regexp.QuoteMeta(strings.ToLower(w)) + `\b`
	}
	return &NonsenseFilter{
		MinChars: minChars,
		pattern:  regexp.MustCompile(`(?i)(` + strings.Join(escaped, "|") + `)`),
	}
}

// IsNonsense reports whether text fails the filter — too short, or
// composed entirely of filler words / punctuation. The session must
// emit cancel(reason="message_no_sense") and return to IDLE when true.
func (f *NonsenseFilter) IsNonsense(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < f.MinChars {
		return true
	}
	withoutFillers := strings.TrimSpace(f.pattern.ReplaceAllString(trimmed, ""))
	withoutFillers = strings.Join(strings.Fields(withoutFillers), " ")
	return withoutFillers == "" || isPunctuationOnly(withoutFillers)
}

var punctuationOnly = regexp.MustCompile(`^[.,!?;:\s]*$`)

func isPunctuationOnly(s string) bool {
	return punctuationOnly.MatchString(s)
}
