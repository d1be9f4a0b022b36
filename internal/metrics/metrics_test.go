package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ivanintech/agentic-assistant/internal/embedding"
	"github.com/ivanintech/agentic-assistant/internal/metrics"
)

func TestRecordTool_SnapshotReflectsInvocationsAndFailures(t *testing.T) {
	r := metrics.New(prometheus.NewRegistry())

	r.RecordTool("send_email", 10*time.Millisecond, true)
	r.RecordTool("send_email", 20*time.Millisecond, true)
	r.RecordTool("send_email", 30*time.Millisecond, false)

	snap := r.Snapshot().Tools["send_email"]
	if snap.Invocations != 3 {
		t.Errorf("Snapshot: Invocations = %d, want 3", snap.Invocations)
	}
	if snap.Failures != 1 {
		t.Errorf("Snapshot: Failures = %d, want 1", snap.Failures)
	}
	if snap.P50MS <= 0 {
		t.Errorf("Snapshot: P50MS = %v, want > 0", snap.P50MS)
	}
}

func TestRecordStage_TracksIndependentlyFromTools(t *testing.T) {
	r := metrics.New(prometheus.NewRegistry())
	r.RecordStage("rag", 5*time.Millisecond)

	snap := r.Snapshot()
	if _, ok := snap.Stages["rag"]; !ok {
		t.Fatalf("Snapshot: Stages = %+v, want an entry for \"rag\"", snap.Stages)
	}
	if len(snap.Tools) != 0 {
		t.Errorf("Snapshot: Tools = %+v, want empty", snap.Tools)
	}
}

func TestRecordCacheStats_AppearsInSnapshot(t *testing.T) {
	r := metrics.New(prometheus.NewRegistry())
	r.RecordCacheStats(embedding.Stats{Hits: 10, Misses: 2, Evictions: 1, Size: 50})

	snap := r.Snapshot()
	if snap.EmbeddingCache.Hits != 10 || snap.EmbeddingCache.Size != 50 {
		t.Errorf("Snapshot: EmbeddingCache = %+v, want Hits=10 Size=50", snap.EmbeddingCache)
	}
}

func TestRecordVoice_EachSegmentIsIndependentlyTracked(t *testing.T) {
	r := metrics.New(prometheus.NewRegistry())
	r.RecordVoice(metrics.VoiceSTT, 100*time.Millisecond)
	r.RecordVoice(metrics.VoiceTTSFirstChunk, 1500*time.Millisecond)

	snap := r.Snapshot().Voice
	if snap.STT.Invocations != 1 {
		t.Errorf("Snapshot: Voice.STT.Invocations = %d, want 1", snap.STT.Invocations)
	}
	if snap.TTSFirstChunk.Invocations != 1 {
		t.Errorf("Snapshot: Voice.TTSFirstChunk.Invocations = %d, want 1", snap.TTSFirstChunk.Invocations)
	}
	if snap.Agent.Invocations != 0 {
		t.Errorf("Snapshot: Voice.Agent.Invocations = %d, want 0 (never recorded)", snap.Agent.Invocations)
	}
}
