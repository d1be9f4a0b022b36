// Package humaniser implements the Humanisation Post-Processor of spec
// §4.12: a deterministic, idempotent rewrite of the LLM's raw text
// before it reaches the user.
package humaniser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ivanintech/agentic-assistant/internal/textclean"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

// defaultPreambles are known preamble fragments dropped from the start
// of the output when present, per spec §4.12.
var defaultPreambles = []string{
	"Let me think",
	"We note that",
	"Okay, so",
	"Sure, let me",
}

var opaqueEventID = regexp.MustCompile(`event_id=(\S+)`)

// Humanise rewrites raw LLM text into its user-facing form.
//
//   - Strips <think>...</think> reasoning spans.
//   - Drops a leading known preamble fragment.
//   - Prefers the final tool result's formatted_text as the visible
//     body when present; raw becomes a short prefix, or is dropped
//     entirely if the formatted body already stands alone.
//   - Substitutes event_id=<n> with the matching tool result's title,
//     when resolvable.
//   - Collapses duplicate whitespace.
//
// Humanise is idempotent: Humanise(Humanise(x)) == Humanise(x).
func Humanise(raw string, citations []string, toolResults []toolregistry.ToolResult) string {
	text := textclean.StripReasoningSpans(raw)
	text = dropLeadingPreamble(text)
	text = substituteOpaqueIDs(text, toolResults)

	if formatted := lastFormattedText(toolResults); formatted != "" {
		prefix := strings.TrimSpace(text)
		trimmedFormatted := strings.TrimSpace(formatted)
		switch {
		case prefix == "" || prefix == trimmedFormatted:
			text = formatted
		case strings.HasSuffix(prefix, trimmedFormatted):
			// Already humanised once: prefix is "original\n\nformatted".
			// Appending again would duplicate the formatted body.
		default:
			text = prefix + "\n\n" + formatted
		}
	}

	return collapseWhitespace(strings.TrimSpace(text))
}

func dropLeadingPreamble(text string) string {
	trimmed := strings.TrimLeft(text, " \t\n")
	for _, p := range defaultPreambles {
		if strings.HasPrefix(trimmed, p) {
			rest := trimmed[len(p):]
			rest = strings.TrimLeft(rest, ",: ")
			return rest
		}
	}
	return text
}

func substituteOpaqueIDs(text string, toolResults []toolregistry.ToolResult) string {
	titles := titlesByID(toolResults)
	return opaqueEventID.ReplaceAllStringFunc(text, func(match string) string {
		id := opaqueEventID.FindStringSubmatch(match)[1]
		if title, ok := titles[id]; ok {
			return title
		}
		return match
	})
}

// titlesByID extracts an {id: title} map from tool results whose
// Result payload carries one — e.g. create_calendar_event's
// provider_event_id or confirm_agenda_event's event_id, paired with
// whatever title-bearing field is present.
func titlesByID(toolResults []toolregistry.ToolResult) map[string]string {
	titles := make(map[string]string)
	for _, tr := range toolResults {
		m, ok := tr.Result.(map[string]any)
		if !ok {
			continue
		}
		id, hasID := stringField(m, "event_id", "provider_event_id", "id")
		title, hasTitle := stringField(m, "title", "name", "subject")
		if hasID && hasTitle {
			titles[id] = title
		}
	}
	return titles
}

func stringField(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// lastFormattedText returns the most recent non-empty FormattedText
// among toolResults, in call order.
func lastFormattedText(toolResults []toolregistry.ToolResult) string {
	for i := len(toolResults) - 1; i >= 0; i-- {
		if toolResults[i].FormattedText != "" {
			return toolResults[i].FormattedText
		}
	}
	return ""
}

var whitespaceRun = regexp.MustCompile(`[ \t]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

func collapseWhitespace(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return text
}

// FormatCitations renders an ordered citations list as a trailing
// "Sources: [a], [b]" note, used by callers that want citations
// visible outside the context block.
func FormatCitations(citations []string) string {
	if len(citations) == 0 {
		return ""
	}
	parts := make([]string, len(citations))
	for i, c := range citations {
		parts[i] = fmt.Sprintf("[%s]", c)
	}
	return "Sources: " + strings.Join(parts, ", ")
}
