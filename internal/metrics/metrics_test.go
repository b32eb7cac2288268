package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.ActiveSessions.Inc()
	m.SessionsStarted.Inc()
	m.ChunksReceived.Inc()
	m.BytesReceived.Add(4096)
	m.WindowsProcessed.Inc()
	m.TranscriptionFailures.Inc()
	m.AnalysisFailures.Inc()
	m.PipelineDuration.Observe(0.5)

	body := scrape(t, m)

	for _, name := range []string{
		"steward_active_sessions 1",
		"steward_sessions_started_total 1",
		"steward_audio_chunks_received_total 1",
		"steward_audio_bytes_received_total 4096",
		"steward_windows_processed_total 1",
		"steward_transcription_failures_total 1",
		"steward_analysis_failures_total 1",
		"steward_window_pipeline_duration_seconds_count 1",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("exposition missing %q", name)
		}
	}
}

func TestWindowsInFlightGauge(t *testing.T) {
	m := New()

	m.WindowsInFlight.Inc()
	if body := scrape(t, m); !strings.Contains(body, "steward_windows_in_flight 1") {
		t.Error("gauge should read 1 while a window is in flight")
	}

	m.WindowsInFlight.Dec()
	if body := scrape(t, m); !strings.Contains(body, "steward_windows_in_flight 0") {
		t.Error("gauge should return to 0 once the window completes")
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.SessionsStarted.Inc()

	if body := scrape(t, b); strings.Contains(body, "steward_sessions_started_total 1") {
		t.Error("instances must not share a registry")
	}
}
