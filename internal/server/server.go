// Package server is the assistant's composition root (DIP): it builds
// every concrete collaborator leaves-first (per SYSTEM OVERVIEW §2's
// ordering) and wires them into the Container the process entry point
// hands to internal/httpapi. No business logic lives here, only
// wiring — the same "single place where all dependencies are resolved"
// shape the teacher's MCP composition root used, generalised from a
// spec-authoring MCP server to this assistant's HTTP/voice surface.
package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/calendar"
	"github.com/ivanintech/agentic-assistant/internal/calendly"
	"github.com/ivanintech/agentic-assistant/internal/config"
	"github.com/ivanintech/agentic-assistant/internal/conversation"
	"github.com/ivanintech/agentic-assistant/internal/embedding"
	"github.com/ivanintech/agentic-assistant/internal/httpapi"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/logging"
	"github.com/ivanintech/agentic-assistant/internal/mail"
	"github.com/ivanintech/agentic-assistant/internal/mcpmanager"
	"github.com/ivanintech/agentic-assistant/internal/metrics"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/retrieval"
	"github.com/ivanintech/agentic-assistant/internal/store"
	"github.com/ivanintech/agentic-assistant/internal/toolexec"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
	"github.com/ivanintech/agentic-assistant/internal/voice"
	"github.com/ivanintech/agentic-assistant/internal/webfetch"
	"github.com/ivanintech/agentic-assistant/internal/whatsapp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Container holds every long-lived collaborator the process needs, so
// cmd/assistant can start the HTTP server and, on shutdown, release
// the store's connection without reaching back into this package's
// internals.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	Store     *store.Store
	Embedding *embedding.Service
	Retrieval *retrieval.Service
	Tools     *toolregistry.Registry
	MCP       *mcpmanager.Manager
	Exec      *toolexec.Facade
	LLM       *llmclient.Client
	Graph     *orchestrator.Graph
	Metrics   *metrics.Registry
	Conv      *conversation.Processor

	HTTP httpapi.Deps
}

// noop is the cleanup returned when construction fails before anything
// needs releasing.
func noop() {}

// New builds a Container from cfg. The returned cleanup function closes
// the store's database connection and is always non-nil, safe to call
// even if construction failed partway (it only closes what was
// actually opened).
func New(cfg *config.Config) (*Container, func(), error) {
	log := logging.Default(cfg.LogLevel)

	st, err := store.New(store.Config{DataDir: cfg.DataDir, EmbeddingDimension: cfg.EmbeddingDimension})
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() { _ = st.Close() }

	embProvider := buildEmbeddingProvider(cfg)
	cacheSize := cfg.CacheMaxSize
	if !cfg.CacheEnabled {
		cacheSize = 0
	}
	embSvc := embedding.NewService(embProvider, embedding.NewCache(cacheSize, cfg.CacheTTL))

	retrievalSvc := retrieval.NewService(embSvc, st)

	registry, err := buildToolRegistry(cfg, st)
	if err != nil {
		return nil, cleanup, err
	}

	mcpServers, err := mcpmanager.LoadServerConfigs(cfg.MCPConfigPath)
	if err != nil {
		return nil, cleanup, err
	}
	mcpMgr := mcpmanager.NewManager(mcpmanager.Config{}, mcpServers, mcpmanager.DefaultDialer)

	mappings, err := toolexec.LoadMappings(cfg.MCPMappingPath)
	if err != nil {
		return nil, cleanup, err
	}
	exec := toolexec.New(mappings, mcpMgr, registry, cfg.MockMode)

	llm := llmclient.New(buildLLMProvider(cfg))

	graph := orchestrator.New(retrievalSvc, registry, exec, llm, st, orchestrator.Config{
		MaxIterations: cfg.MaxIterations,
		RAGTopK:       6,
		Policy: orchestrator.PolicyConfig{
			WorkingHourStart: cfg.WorkingHourStart,
			WorkingHourEnd:   cfg.WorkingHourEnd,
			MaxLookahead:     cfg.MaxLookahead,
		},
	})

	promReg := prometheus.NewRegistry()
	metricsReg := metrics.New(promReg)

	msgClient := whatsapp.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.MessengerFrom)
	convProc := conversation.New(st, graph, whatsapp.NewConversationMessenger(msgClient), conversation.HistoryWindow)

	stt := buildSTT(cfg)
	ttsPrimary, ttsFallback := buildTTS(cfg)

	deps := httpapi.Deps{
		Agent:   graph,
		Tools:   registry,
		Exec:    exec,
		Store:   st,
		Metrics: metricsReg,
		Conv:    convProc,

		CalendlySecret: cfg.CalendlyWebhookSecret,
		WhatsAppSecret: cfg.WhatsAppWebhookSecret,

		VoiceConfig: voice.Config{AllowBargeIn: true},
		STT:         stt,
		TTSPrimary:  ttsPrimary,
		TTSFallback: ttsFallback,
	}

	return &Container{
		Config:    cfg,
		Log:       log,
		Store:     st,
		Embedding: embSvc,
		Retrieval: retrievalSvc,
		Tools:     registry,
		MCP:       mcpMgr,
		Exec:      exec,
		LLM:       llm,
		Graph:     graph,
		Metrics:   metricsReg,
		Conv:      convProc,
		HTTP:      deps,
	}, cleanup, nil
}

func buildEmbeddingProvider(cfg *config.Config) embedding.Provider {
	if cfg.EmbeddingProvider == "openai" {
		return embedding.NewOpenAIProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	}
	return embedding.NewMockProvider(cfg.EmbeddingDimension)
}

func buildLLMProvider(cfg *config.Config) llmclient.Provider {
	switch cfg.LLMProvider {
	case "openai":
		return llmclient.NewOpenAIProvider(cfg.LLMAPIKey, cfg.LLMModel)
	case "anthropic":
		return llmclient.NewAnthropicProvider(cfg.LLMAPIKey, cfg.LLMModel)
	default:
		return llmclient.MockProvider{}
	}
}

func buildSTT(cfg *config.Config) voice.Transcriber {
	if cfg.STTBackend != "whisper" {
		return voice.MockTranscriber{}
	}
	return voice.NewWhisperSTTBackend(cfg.STTProvider, cfg.GroqAPIKey, cfg.GroqWhisperModel, cfg.OpenAIAPIKey, cfg.OpenAIWhisperModel)
}

func buildTTS(cfg *config.Config) (primary, fallback voice.TTSBackend) {
	fallback = voice.MockTTSBackend{}
	if cfg.TTSBackend != "elevenlabs" {
		return voice.MockTTSBackend{}, fallback
	}
	return voice.ElevenLabsTTSBackend{APIKey: cfg.ElevenLabsAPIKey, VoiceID: cfg.ElevenLabsVoiceID}, fallback
}

// buildToolRegistry registers every core tool of spec §4.3. The
// calendar, Calendly, mail and messenger tools get the real collaborator
// client when its credential is configured and the mock fixture
// otherwise, whatever mock_mode says; the web tools get the real fetcher
// only when mock_mode is off.
func buildToolRegistry(cfg *config.Config, st *store.Store) (*toolregistry.Registry, error) {
	r := toolregistry.NewRegistry()

	var calendarProvider toolregistry.CalendarProvider = toolregistry.MockCalendarProvider{}
	if cfg.GoogleCalendarAccessToken != "" {
		calendarProvider = calendar.NewGoogleClient(cfg.GoogleCalendarAccessToken, cfg.GoogleCalendarID)
	}

	var calendlyClient toolregistry.CalendlyClient = toolregistry.MockCalendlyClient{}
	if cfg.CalendlyAccessToken != "" {
		calendlyClient = calendly.NewClient(cfg.CalendlyAccessToken, cfg.CalendlyUserURI)
	}

	var mailClient toolregistry.MailClient = toolregistry.MockMailClient{}
	if cfg.SMTPHost != "" {
		mailClient = mail.NewClient(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUser)
	}

	var messenger toolregistry.Messenger = toolregistry.MockMessenger{}
	if cfg.TwilioAccountSID != "" {
		messenger = whatsapp.NewToolMessenger(whatsapp.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.MessengerFrom))
	}

	var fetcher toolregistry.WebFetcher = toolregistry.MockWebFetcher{}
	if !cfg.MockMode {
		fetcher = webfetch.NewClient()
	}

	tools := []toolregistry.Tool{
		toolregistry.NewListAgendaEventsTool(st),
		toolregistry.NewCreateCalendarEventTool(st, calendarProvider),
		toolregistry.NewConfirmAgendaEventTool(st),
		toolregistry.NewSearchEmailsTool(mailClient),
		toolregistry.NewReadEmailTool(mailClient),
		toolregistry.NewSendEmailTool(mailClient),
		toolregistry.NewSendWhatsAppTool(messenger),
		toolregistry.NewListCalendlyEventsTool(calendlyClient),
		toolregistry.NewCreateCalendlyEventTool(calendlyClient),
		toolregistry.NewIngestCalendlyEventsTool(calendlyClient, st),
		toolregistry.NewExtractURLsTool(),
		toolregistry.NewScrapeWebContentTool(fetcher),
		toolregistry.NewScrapeNewsForEventsTool(fetcher),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, apperror.Wrap(apperror.Config, "server: register tool", err)
		}
	}
	return r, nil
}
