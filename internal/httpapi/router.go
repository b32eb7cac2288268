package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/stewardlabs/steward/internal/eventlog"
	"github.com/stewardlabs/steward/internal/llm"
	"github.com/stewardlabs/steward/internal/metrics"
	"github.com/stewardlabs/steward/internal/refdata"
	"github.com/stewardlabs/steward/internal/stt"
)

type RouterConfig struct {
	// OpenAI-compatible providers
	OpenAIAPIKey   string
	WhisperAPIURL  string // defaults to the OpenAI transcription endpoint
	WhisperModel   string // e.g., "whisper-1"
	AnalysisAPIURL string // defaults to the OpenAI chat completions endpoint
	AnalysisModel  string // e.g., "gpt-4o"
	RequestTimeout time.Duration

	// Audio segmentation (all sizes in bytes of PCM)
	SampleRate    int
	SegmentSize   int
	OverlapSize   int
	MaxBufferSize int

	DiarizationEnabled bool
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	ref      *refdata.Store
	eventLog *eventlog.Logger
	metrics  *metrics.Metrics
	sessions *SessionRegistry
	stt      stt.Client
	llm      llm.Client
	mux      *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, ref *refdata.Store, eventLog *eventlog.Logger, m *metrics.Metrics, sessions *SessionRegistry) http.Handler {
	sttClient := stt.NewWhisperClient(stt.WhisperConfig{
		APIKey:     cfg.OpenAIAPIKey,
		APIURL:     cfg.WhisperAPIURL,
		Model:      cfg.WhisperModel,
		SampleRate: cfg.SampleRate,
		Timeout:    cfg.RequestTimeout,
	})
	llmClient := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		APIURL:  cfg.AnalysisAPIURL,
		Model:   cfg.AnalysisModel,
		Timeout: cfg.RequestTimeout,
	})
	return newRouter(cfg, logger, ref, eventLog, m, sessions, sttClient, llmClient)
}

// newRouter wires an explicit transcription and analysis client, which lets
// tests substitute stubs.
func newRouter(cfg RouterConfig, logger *log.Logger, ref *refdata.Store, eventLog *eventlog.Logger, m *metrics.Metrics, sessions *SessionRegistry, sttClient stt.Client, llmClient llm.Client) http.Handler {
	r := &Router{
		cfg:      cfg,
		logger:   logger,
		ref:      ref,
		eventLog: eventLog,
		metrics:  m,
		sessions: sessions,
		stt:      sttClient,
		llm:      llmClient,
		mux:      http.NewServeMux(),
	}
	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health and readiness checks
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /readyz", r.handleReadyz)

	// Streaming audio (WebSocket upgrade)
	r.mux.HandleFunc("GET /ws/audio", r.handleAudioWS)

	// Prometheus scrape endpoint
	r.mux.Handle("GET /metrics", r.metrics.Handler())
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if r.sessions.IsDraining() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("draining"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
