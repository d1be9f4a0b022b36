// Package config loads the assistant's process-wide configuration once at
// startup from environment variables, per spec §6 "Configuration".
//
// The result is an immutable value passed by reference into the
// ServiceContainer (internal/server) and from there into every component
// that needs it — there is no package-level mutable global beyond the
// loader itself, per the "configuration-by-decorated-global" redesign
// note.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/spf13/viper"
)

// Config is the assistant's immutable, process-wide configuration.
type Config struct {
	// Store
	DataDir           string
	EmbeddingDimension int

	// LLM provider
	LLMProvider string // openai | anthropic | mock
	LLMModel    string
	LLMAPIKey   string

	// Embedding
	EmbeddingProvider string // openai | mock
	EmbeddingAPIKey   string
	EmbeddingModel    string

	// Voice
	STTBackend string // whisper | mock
	TTSBackend string // elevenlabs | mock

	STTProvider        string // groq | openai, only consulted when STTBackend=whisper
	GroqAPIKey         string
	GroqWhisperModel   string
	OpenAIAPIKey       string // audio endpoints use their own key, independent of LLMAPIKey
	OpenAIWhisperModel string
	ElevenLabsAPIKey   string
	ElevenLabsVoiceID  string

	// SMTP / IMAP (mail tool collaborators)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	IMAPHost string
	IMAPPort int
	IMAPUser string
	IMAPPass string

	// Messenger (Twilio WhatsApp collaborator)
	TwilioAccountSID string
	TwilioAuthToken  string
	MessengerFrom    string

	// Calendar (Google Calendar collaborator)
	GoogleCalendarAccessToken string
	GoogleCalendarID          string

	// Calendly
	CalendlyAccessToken string
	CalendlyUserURI     string

	// MCP
	MCPConfigPath  string
	MCPMappingPath string

	// Feature flags
	MockMode       bool
	CacheEnabled   bool
	CacheTTL       time.Duration
	CacheMaxSize   int
	MaxIterations  int

	// Policy
	WorkingHourStart int // 0-23, local time
	WorkingHourEnd   int // 0-23, local time
	MaxLookahead     time.Duration

	// HTTP
	HTTPAddr string

	// Webhook shared secrets
	CalendlyWebhookSecret string
	WhatsAppWebhookSecret string

	// Logging
	LogLevel string
}

// Load reads environment variables (prefixed ASSISTANT_) into a Config.
// Required keys missing or invalid produce a Config-kind apperror.Error —
// callers must fail fast on it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ASSISTANT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("data_dir", "")
	v.SetDefault("embedding_dimension", 1024)
	v.SetDefault("llm_provider", "mock")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("embedding_provider", "mock")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("stt_backend", "mock")
	v.SetDefault("tts_backend", "mock")
	v.SetDefault("stt_provider", "groq")
	v.SetDefault("groq_whisper_model", "whisper-large-v3")
	v.SetDefault("openai_whisper_model", "whisper-1")
	v.SetDefault("elevenlabs_voice_id", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("imap_port", 993)
	v.SetDefault("mcp_config_path", "")
	v.SetDefault("mcp_mapping_path", "")
	v.SetDefault("mock_mode", true)
	v.SetDefault("cache_enabled", true)
	v.SetDefault("cache_ttl_seconds", 3600)
	v.SetDefault("cache_max_size", 1000)
	v.SetDefault("max_iterations", 5)
	v.SetDefault("working_hour_start", 9)
	v.SetDefault("working_hour_end", 19)
	v.SetDefault("max_lookahead_days", 90)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		home, err := homeDir()
		if err != nil {
			return nil, apperror.Wrap(apperror.Config, "resolving default data directory", err)
		}
		dataDir = home
	}

	provider := strings.ToLower(v.GetString("llm_provider"))
	switch provider {
	case "openai", "anthropic", "mock":
	default:
		return nil, apperror.New(apperror.Config, fmt.Sprintf("unsupported llm_provider %q", provider))
	}
	if provider != "mock" && v.GetString("llm_api_key") == "" {
		return nil, apperror.New(apperror.Config, fmt.Sprintf("llm_api_key is required for provider %q", provider))
	}

	start, end := v.GetInt("working_hour_start"), v.GetInt("working_hour_end")
	if start < 0 || start > 23 || end < 0 || end > 23 || start >= end {
		return nil, apperror.New(apperror.Config, fmt.Sprintf("invalid working hours %d-%d", start, end))
	}

	cfg := &Config{
		DataDir:            dataDir,
		EmbeddingDimension: v.GetInt("embedding_dimension"),

		LLMProvider: provider,
		LLMModel:    v.GetString("llm_model"),
		LLMAPIKey:   v.GetString("llm_api_key"),

		EmbeddingProvider: strings.ToLower(v.GetString("embedding_provider")),
		EmbeddingAPIKey:   v.GetString("embedding_api_key"),
		EmbeddingModel:    v.GetString("embedding_model"),

		STTBackend: strings.ToLower(v.GetString("stt_backend")),
		TTSBackend: strings.ToLower(v.GetString("tts_backend")),

		STTProvider:        strings.ToLower(v.GetString("stt_provider")),
		GroqAPIKey:         v.GetString("groq_api_key"),
		GroqWhisperModel:   v.GetString("groq_whisper_model"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIWhisperModel: v.GetString("openai_whisper_model"),
		ElevenLabsAPIKey:   v.GetString("elevenlabs_api_key"),
		ElevenLabsVoiceID:  v.GetString("elevenlabs_voice_id"),

		SMTPHost: v.GetString("smtp_host"),
		SMTPPort: v.GetInt("smtp_port"),
		SMTPUser: v.GetString("smtp_user"),
		SMTPPass: v.GetString("smtp_pass"),
		IMAPHost: v.GetString("imap_host"),
		IMAPPort: v.GetInt("imap_port"),
		IMAPUser: v.GetString("imap_user"),
		IMAPPass: v.GetString("imap_pass"),

		TwilioAccountSID: v.GetString("twilio_account_sid"),
		TwilioAuthToken:  v.GetString("twilio_auth_token"),
		MessengerFrom:    v.GetString("messenger_from"),

		GoogleCalendarAccessToken: v.GetString("google_calendar_access_token"),
		GoogleCalendarID:          v.GetString("google_calendar_id"),

		CalendlyAccessToken: v.GetString("calendly_access_token"),
		CalendlyUserURI:     v.GetString("calendly_user_uri"),

		MCPConfigPath:  v.GetString("mcp_config_path"),
		MCPMappingPath: v.GetString("mcp_mapping_path"),

		MockMode:      v.GetBool("mock_mode"),
		CacheEnabled:  v.GetBool("cache_enabled"),
		CacheTTL:      time.Duration(v.GetInt("cache_ttl_seconds")) * time.Second,
		CacheMaxSize:  v.GetInt("cache_max_size"),
		MaxIterations: v.GetInt("max_iterations"),

		WorkingHourStart: start,
		WorkingHourEnd:   end,
		MaxLookahead:     time.Duration(v.GetInt("max_lookahead_days")) * 24 * time.Hour,

		HTTPAddr: v.GetString("http_addr"),

		CalendlyWebhookSecret: v.GetString("calendly_webhook_secret"),
		WhatsAppWebhookSecret: v.GetString("whatsapp_webhook_secret"),

		LogLevel: v.GetString("log_level"),
	}

	return cfg, nil
}
