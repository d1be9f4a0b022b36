// Package httpapi implements the external HTTP surface of spec §6: a
// single mux carrying the text/voice entry points, provider webhooks,
// the event-approval surface, and the operational health/tools/metrics
// endpoints.
//
// Grounded on germanoeich-crabstack's crab-gateway httpapi package —
// the same handler shape (a `server` struct of collaborators,
// `http.NewServeMux`, a shared `writeJSON` helper, `http.Server{
// ReadHeaderTimeout: 5*time.Second}`, `json.NewDecoder(...)
// .DisallowUnknownFields()` request parsing, `gorilla/websocket
// .Upgrader{CheckOrigin: isWebSocketOriginAllowed}`) generalised from
// that repo's event/pairing routes to this spec's text/voice/webhook/
// events contract.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/conversation"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/metrics"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/store"
	"github.com/ivanintech/agentic-assistant/internal/toolexec"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
	"github.com/ivanintech/agentic-assistant/internal/voice"
)

// AgentRunner is the subset of orchestrator.Graph the server depends on
// — an interface rather than the concrete type so tests can substitute
// a fake without building a full Graph.
type AgentRunner interface {
	Run(ctx context.Context, query string, history []llmclient.Message, now time.Time) (*orchestrator.AgentState, error)
	RunWithProgress(ctx context.Context, query string, history []llmclient.Message, now time.Time, onProgress orchestrator.ProgressFunc) (*orchestrator.AgentState, error)
}

// Deps collects every collaborator a handler needs. The composition
// root (internal/server) builds one of these and hands it to NewServer.
type Deps struct {
	Agent   AgentRunner
	Tools   *toolregistry.Registry
	Exec    *toolexec.Facade
	Store   *store.Store
	Metrics *metrics.Registry
	Conv    *conversation.Processor

	CalendlySecret string
	WhatsAppSecret string

	VoiceConfig voice.Config
	STT         voice.Transcriber
	TTSPrimary  voice.TTSBackend
	TTSFallback voice.TTSBackend
}

type server struct {
	log  zerolog.Logger
	deps Deps
}

// NewServer builds the assistant's http.Server, routed per spec §6.
func NewServer(log zerolog.Logger, addr string, deps Deps) *http.Server {
	s := &server{log: log, deps: deps}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/metrics", s.handleMetricsJSON)
	mux.Handle("/metrics/prom", promhttp.Handler())

	mux.HandleFunc("/text", s.handleText)
	mux.HandleFunc("/voice", s.handleVoice)

	mux.HandleFunc("/calendly/webhook", s.handleCalendlyWebhook)
	mux.HandleFunc("/whatsapp/webhook", s.handleWhatsAppWebhook)

	mux.HandleFunc("/email/send", s.handleEmailSend)

	mux.HandleFunc("/events", s.handleEventsList)
	mux.HandleFunc("/events/suggest", s.handleEventsSuggest)
	mux.HandleFunc("/events/", s.handleEventsAction) // /events/{id}/approve|reject

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tools := s.deps.Tools.List()
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name(),
			"agent_codes": t.AgentCodes(),
			"definition":  t.Definition(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

// handleMetricsJSON serves the snapshot contract spec §6 names literally
// (a JSON body). /metrics/prom lives alongside it rather than replacing
// it — DESIGN.md records this split decision. That endpoint serves
// promhttp.Handler(), which gathers Prometheus's process-wide default
// registry; collectors metrics.New registers on any other registerer
// (internal/server passes a private prometheus.NewRegistry()) do not
// appear there.
func (s *server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, err error) {
	kind, ok := apperror.Of(err)
	if !ok {
		kind = apperror.Internal
	}
	writeJSON(w, statusForKind(kind), map[string]any{"error": err.Error(), "error_kind": string(kind)})
}

// statusForErrorKind maps a ToolResult.ErrorKind string (spec §3) onto
// an HTTP status for handlers that surface a ToolResult rather than an
// apperror.Error.
func statusForErrorKind(kind string) int {
	return statusForKind(apperror.Kind(kind))
}

// statusForKind maps the error taxonomy of spec §7 onto HTTP status
// codes for the handlers that surface apperror.Error directly.
func statusForKind(kind apperror.Kind) int {
	switch kind {
	case apperror.Config, apperror.Internal:
		return http.StatusInternalServerError
	case apperror.Application:
		return http.StatusBadRequest
	case apperror.Policy:
		return http.StatusForbidden
	case apperror.Cancelled:
		return http.StatusRequestTimeout
	case apperror.Transport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: isWebSocketOriginAllowed}

// isWebSocketOriginAllowed mirrors crab-gateway's same-host check: an
// absent Origin header (non-browser clients) is allowed; a present one
// must match the request's own Host.
func isWebSocketOriginAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return false
	}
	return strings.EqualFold(parsed.Host, r.Host)
}
