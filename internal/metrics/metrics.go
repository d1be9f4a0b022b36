// Package metrics implements the Metrics Service of spec §4.11:
// per-tool and per-stage invocation/failure/latency counters, embedding
// cache gauges, and voice pipeline timings, exported both as Prometheus
// series (registered on the prometheus.Registerer passed to New) and as
// a read-only JSON snapshot (served at /metrics by internal/httpapi).
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ivanintech/agentic-assistant/internal/embedding"
)

// Registry is the process-wide metrics sink. Safe for concurrent use.
type Registry struct {
	toolMu sync.Mutex
	tools  map[string]*durationSeries

	stageMu sync.Mutex
	stages  map[string]*durationSeries

	voice struct {
		stt, agent, tts, ttsFirstChunk, endToEnd *durationSeries
	}

	cacheMu    sync.Mutex
	cacheStats embedding.Stats

	toolInvocations *prometheus.CounterVec
	toolFailures    *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	voiceDuration   *prometheus.HistogramVec
	cacheGauge      *prometheus.GaugeVec
}

// New builds a Registry and registers its Prometheus collectors against
// reg (pass prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		tools:  make(map[string]*durationSeries),
		stages: make(map[string]*durationSeries),
	}
	r.voice.stt = newDurationSeries()
	r.voice.agent = newDurationSeries()
	r.voice.tts = newDurationSeries()
	r.voice.ttsFirstChunk = newDurationSeries()
	r.voice.endToEnd = newDurationSeries()

	factory := promauto.With(reg)
	r.toolInvocations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tool_invocations_total", Help: "Tool invocations by tool name.",
	}, []string{"tool"})
	r.toolFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tool_failures_total", Help: "Tool failures by tool name.",
	}, []string{"tool"})
	r.toolDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name: "assistant_tool_duration_seconds", Help: "Tool execution latency by tool name.",
	}, []string{"tool"})
	r.stageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name: "assistant_orchestrator_stage_duration_seconds", Help: "Orchestrator stage latency.",
	}, []string{"stage"})
	r.voiceDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name: "assistant_voice_duration_seconds", Help: "Voice pipeline segment latency.",
	}, []string{"segment"})
	r.cacheGauge = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assistant_embedding_cache", Help: "Embedding cache counters.",
	}, []string{"counter"})

	return r
}

// RecordTool records one tool invocation's outcome and latency.
func (r *Registry) RecordTool(toolName string, duration time.Duration, success bool) {
	r.toolMu.Lock()
	series, ok := r.tools[toolName]
	if !ok {
		series = newDurationSeries()
		r.tools[toolName] = series
	}
	r.toolMu.Unlock()

	series.record(duration, !success)
	r.toolInvocations.WithLabelValues(toolName).Inc()
	if !success {
		r.toolFailures.WithLabelValues(toolName).Inc()
	}
	r.toolDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordStage records one orchestrator stage's latency, per spec §4.6.
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.stageMu.Lock()
	series, ok := r.stages[stage]
	if !ok {
		series = newDurationSeries()
		r.stages[stage] = series
	}
	r.stageMu.Unlock()

	series.record(duration, false)
	r.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// VoiceSegment names one leg of the voice pipeline spec §4.11 tracks.
type VoiceSegment string

const (
	VoiceSTT           VoiceSegment = "stt"
	VoiceAgent         VoiceSegment = "agent"
	VoiceTTS           VoiceSegment = "tts"
	VoiceTTSFirstChunk VoiceSegment = "tts_first_chunk"
	VoiceEndToEnd      VoiceSegment = "end_to_end"
)

// RecordVoice records one voice pipeline segment's duration.
func (r *Registry) RecordVoice(segment VoiceSegment, duration time.Duration) {
	var series *durationSeries
	switch segment {
	case VoiceSTT:
		series = r.voice.stt
	case VoiceAgent:
		series = r.voice.agent
	case VoiceTTS:
		series = r.voice.tts
	case VoiceTTSFirstChunk:
		series = r.voice.ttsFirstChunk
	case VoiceEndToEnd:
		series = r.voice.endToEnd
	default:
		return
	}
	series.record(duration, false)
	r.voiceDuration.WithLabelValues(string(segment)).Observe(duration.Seconds())
}

// RecordCacheStats refreshes the embedding cache gauges from a Stats
// snapshot — callers pull this from embedding.Service.CacheStats() on
// whatever cadence they like (e.g. once per request, or periodically).
func (r *Registry) RecordCacheStats(stats embedding.Stats) {
	r.cacheMu.Lock()
	r.cacheStats = stats
	r.cacheMu.Unlock()

	r.cacheGauge.WithLabelValues("hits").Set(float64(stats.Hits))
	r.cacheGauge.WithLabelValues("misses").Set(float64(stats.Misses))
	r.cacheGauge.WithLabelValues("evictions").Set(float64(stats.Evictions))
	r.cacheGauge.WithLabelValues("size").Set(float64(stats.Size))
}

// SnapshotJSON is the read-only query operation's response shape.
type SnapshotJSON struct {
	Tools          map[string]Snapshot `json:"tools"`
	Stages         map[string]Snapshot `json:"stages"`
	EmbeddingCache embedding.Stats     `json:"embedding_cache"`
	Voice          VoiceSnapshot       `json:"voice"`
}

// VoiceSnapshot is the voice pipeline's per-segment snapshot.
type VoiceSnapshot struct {
	STT           Snapshot `json:"stt"`
	Agent         Snapshot `json:"agent"`
	TTS           Snapshot `json:"tts"`
	TTSFirstChunk Snapshot `json:"tts_first_chunk"`
	EndToEnd      Snapshot `json:"end_to_end"`
}

// Snapshot returns a JSON-serialisable point-in-time view of every
// tracked series, per spec §4.11's "read-only query operation."
func (r *Registry) Snapshot() SnapshotJSON {
	r.toolMu.Lock()
	tools := make(map[string]Snapshot, len(r.tools))
	for name, series := range r.tools {
		tools[name] = series.snapshot()
	}
	r.toolMu.Unlock()

	r.stageMu.Lock()
	stages := make(map[string]Snapshot, len(r.stages))
	for name, series := range r.stages {
		stages[name] = series.snapshot()
	}
	r.stageMu.Unlock()

	r.cacheMu.Lock()
	cache := r.cacheStats
	r.cacheMu.Unlock()

	return SnapshotJSON{
		Tools: tools, Stages: stages, EmbeddingCache: cache,
		Voice: VoiceSnapshot{
			STT: r.voice.stt.snapshot(), Agent: r.voice.agent.snapshot(),
			TTS: r.voice.tts.snapshot(), TTSFirstChunk: r.voice.ttsFirstChunk.snapshot(),
			EndToEnd: r.voice.endToEnd.snapshot(),
		},
	}
}
