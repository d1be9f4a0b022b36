package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

type emailSendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// handleEmailSend dispatches through the Tool Execution Facade rather
// than the mail collaborator directly, so this endpoint observes the
// same MCP/local/mock routing and error taxonomy every other tool call
// does (spec §4.5).
func (s *server) handleEmailSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req emailSendRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.To == "" || req.Subject == "" {
		http.Error(w, "to and subject are required", http.StatusBadRequest)
		return
	}

	result := s.deps.Exec.Execute(r.Context(), "send_email", map[string]any{
		"to": req.To, "subject": req.Subject, "body": req.Body,
	})
	if !result.Success {
		writeJSON(w, statusForErrorKind(result.ErrorKind), map[string]any{
			"error": result.ErrorMessage, "error_kind": result.ErrorKind,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}
