package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stewardlabs/steward/internal/eventlog"
	"github.com/stewardlabs/steward/internal/httpapi"
	"github.com/stewardlabs/steward/internal/metrics"
	"github.com/stewardlabs/steward/internal/refdata"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	ref      *refdata.Store
	eventLog *eventlog.Logger
	metrics  *metrics.Metrics
}

// New wires the process-wide dependencies. The database is optional: without
// DATABASE_URL the service runs with session event logging disabled.
func New(cfg Config, logger *log.Logger) (*App, error) {
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		db = pool
	} else {
		logger.Printf("app: no DATABASE_URL, session event log disabled")
	}

	ref := refdata.Load(refdata.Paths{
		Locations: cfg.LocationsPath,
		Guests:    cfg.GuestsPath,
		Issues:    cfg.IssuesPath,
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		ref:      ref,
		eventLog: eventlog.New(db),
		metrics:  metrics.New(),
	}, nil
}

func (a *App) Router(sessions *httpapi.SessionRegistry) http.Handler {
	routerCfg := httpapi.RouterConfig{
		OpenAIAPIKey:       a.cfg.OpenAIAPIKey,
		WhisperAPIURL:      a.cfg.WhisperAPIURL,
		WhisperModel:       a.cfg.WhisperModel,
		AnalysisAPIURL:     a.cfg.AnalysisAPIURL,
		AnalysisModel:      a.cfg.AnalysisModel,
		RequestTimeout:     a.cfg.RequestTimeout,
		SampleRate:         a.cfg.SampleRate,
		SegmentSize:        a.cfg.SegmentSizeBytes(),
		OverlapSize:        a.cfg.OverlapSizeBytes(),
		MaxBufferSize:      a.cfg.MaxBufferSizeBytes(),
		DiarizationEnabled: a.cfg.DiarizationEnabled,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.ref, a.eventLog, a.metrics, sessions)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
