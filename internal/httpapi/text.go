package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
)

type textRequest struct {
	Query       string            `json:"query"`
	ChatHistory []textHistoryTurn `json:"chat_history,omitempty"`
	TopK        int               `json:"top_k,omitempty"`
}

type textHistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textResponse struct {
	Text      string         `json:"text"`
	Citations []string       `json:"citations"`
	Debug     textDebugTrace `json:"debug"`
}

// textDebugTrace surfaces enough of AgentState to make the illustrative
// `debug` field of spec §6 useful without leaking internal types across
// the wire.
type textDebugTrace struct {
	Intent         string   `json:"intent"`
	AgentCode      string   `json:"agent_code"`
	IterationCount int      `json:"iteration_count"`
	Truncated      bool     `json:"truncated"`
	ToolsInvoked   []string `json:"tools_invoked"`
}

// handleText is the synchronous entry point of spec §6: POST /text
// {query, chat_history?, top_k?} -> {text, citations, debug}. top_k is
// accepted but not wired per-call — retrieval's k is a Service-level
// construction parameter (spec's names here are explicitly illustrative).
// A caller-supplied top_k is decoded and then ignored; it does not
// appear in the debug trace either.
func (s *server) handleText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	var req textRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	history := make([]llmclient.Message, 0, len(req.ChatHistory))
	for _, turn := range req.ChatHistory {
		history = append(history, llmclient.Message{Role: llmclient.Role(turn.Role), Content: turn.Content})
	}

	state, err := s.deps.Agent.Run(r.Context(), req.Query, history, time.Now())
	if err != nil {
		writeAPIError(w, err)
		return
	}

	toolNames := make([]string, 0, len(state.ToolResults))
	for _, tr := range state.ToolResults {
		toolNames = append(toolNames, tr.ToolName)
	}

	writeJSON(w, http.StatusOK, textResponse{
		Text:      state.Response,
		Citations: state.Citations,
		Debug: textDebugTrace{
			Intent:         string(state.Intent),
			AgentCode:      string(state.AgentCode),
			IterationCount: state.IterationCount,
			Truncated:      state.Truncated,
			ToolsInvoked:   toolNames,
		},
	})
}
