package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	SentryDSN   string
	LogLevel    string

	// Analysis providers
	OpenAIAPIKey   string
	WhisperAPIURL  string
	WhisperModel   string
	AnalysisAPIURL string
	AnalysisModel  string
	RequestTimeout time.Duration

	// Audio segmentation (durations; byte sizes are derived from the
	// sample rate, mono 16-bit PCM)
	SampleRate       int
	SegmentSeconds   int
	OverlapSeconds   int
	MaxBufferSeconds int

	DiarizationEnabled bool

	// Reference datasets
	LocationsPath string
	GuestsPath    string
	IssuesPath    string
}

// fileConfig mirrors Config for the optional YAML config file. Every field is
// a pointer so that an absent key leaves the default untouched.
type fileConfig struct {
	HTTPAddr           *string `yaml:"httpAddr"`
	DatabaseURL        *string `yaml:"databaseUrl"`
	SentryDSN          *string `yaml:"sentryDsn"`
	LogLevel           *string `yaml:"logLevel"`
	OpenAIAPIKey       *string `yaml:"openaiApiKey"`
	WhisperAPIURL      *string `yaml:"whisperApiUrl"`
	WhisperModel       *string `yaml:"whisperModel"`
	AnalysisAPIURL     *string `yaml:"analysisApiUrl"`
	AnalysisModel      *string `yaml:"analysisModel"`
	RequestTimeout     *string `yaml:"requestTimeout"`
	SampleRate         *int    `yaml:"sampleRate"`
	SegmentSeconds     *int    `yaml:"segmentSeconds"`
	OverlapSeconds     *int    `yaml:"overlapSeconds"`
	MaxBufferSeconds   *int    `yaml:"maxBufferSeconds"`
	DiarizationEnabled *bool   `yaml:"diarizationEnabled"`
	LocationsPath      *string `yaml:"locationsPath"`
	GuestsPath         *string `yaml:"guestsPath"`
	IssuesPath         *string `yaml:"issuesPath"`
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		WhisperModel:     "whisper-1",
		AnalysisModel:    "gpt-4o",
		RequestTimeout:   30 * time.Second,
		SampleRate:       16000,
		SegmentSeconds:   5,
		OverlapSeconds:   1,
		MaxBufferSeconds: 30,
		LocationsPath:    "datasets/locations.json",
		GuestsPath:       "datasets/guests.json",
		IssuesPath:       "datasets/issues.json",
	}
}

// LoadConfig builds the config in three layers: built-in defaults, then the
// optional YAML file named by CONFIG_PATH, then environment variables.
// Environment always wins.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.DatabaseURL, fc.DatabaseURL)
	setString(&cfg.SentryDSN, fc.SentryDSN)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.OpenAIAPIKey, fc.OpenAIAPIKey)
	setString(&cfg.WhisperAPIURL, fc.WhisperAPIURL)
	setString(&cfg.WhisperModel, fc.WhisperModel)
	setString(&cfg.AnalysisAPIURL, fc.AnalysisAPIURL)
	setString(&cfg.AnalysisModel, fc.AnalysisModel)
	setInt(&cfg.SampleRate, fc.SampleRate)
	setInt(&cfg.SegmentSeconds, fc.SegmentSeconds)
	setInt(&cfg.OverlapSeconds, fc.OverlapSeconds)
	setInt(&cfg.MaxBufferSeconds, fc.MaxBufferSeconds)
	setString(&cfg.LocationsPath, fc.LocationsPath)
	setString(&cfg.GuestsPath, fc.GuestsPath)
	setString(&cfg.IssuesPath, fc.IssuesPath)
	if fc.DiarizationEnabled != nil {
		cfg.DiarizationEnabled = *fc.DiarizationEnabled
	}
	if fc.RequestTimeout != nil {
		d, err := time.ParseDuration(*fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("requestTimeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SentryDSN = getenv("SENTRY_DSN", cfg.SentryDSN)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.WhisperAPIURL = getenv("WHISPER_API_URL", cfg.WhisperAPIURL)
	cfg.WhisperModel = getenv("WHISPER_MODEL", cfg.WhisperModel)
	cfg.AnalysisAPIURL = getenv("ANALYSIS_API_URL", cfg.AnalysisAPIURL)
	cfg.AnalysisModel = getenv("ANALYSIS_MODEL", cfg.AnalysisModel)
	cfg.SampleRate = getenvInt("SAMPLE_RATE", cfg.SampleRate)
	cfg.SegmentSeconds = getenvInt("SEGMENT_SECONDS", cfg.SegmentSeconds)
	cfg.OverlapSeconds = getenvInt("OVERLAP_SECONDS", cfg.OverlapSeconds)
	cfg.MaxBufferSeconds = getenvInt("MAX_BUFFER_SECONDS", cfg.MaxBufferSeconds)
	cfg.DiarizationEnabled = getenvBool("DIARIZATION_ENABLED", cfg.DiarizationEnabled)
	cfg.LocationsPath = getenv("LOCATIONS_PATH", cfg.LocationsPath)
	cfg.GuestsPath = getenv("GUESTS_PATH", cfg.GuestsPath)
	cfg.IssuesPath = getenv("ISSUES_PATH", cfg.IssuesPath)

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.SegmentSeconds <= 0 {
		return fmt.Errorf("segment duration must be positive, got %ds", c.SegmentSeconds)
	}
	if c.OverlapSeconds < 0 || c.OverlapSeconds >= c.SegmentSeconds {
		return fmt.Errorf("overlap (%ds) must be shorter than the segment (%ds)", c.OverlapSeconds, c.SegmentSeconds)
	}
	if c.MaxBufferSeconds < c.SegmentSeconds {
		return fmt.Errorf("max buffer (%ds) must hold at least one segment (%ds)", c.MaxBufferSeconds, c.SegmentSeconds)
	}
	return nil
}

// bytesPerSecond returns the PCM byte rate: mono, 16-bit samples.
func (c Config) bytesPerSecond() int {
	return c.SampleRate * 2
}

func (c Config) SegmentSizeBytes() int   { return c.SegmentSeconds * c.bytesPerSecond() }
func (c Config) OverlapSizeBytes() int   { return c.OverlapSeconds * c.bytesPerSecond() }
func (c Config) MaxBufferSizeBytes() int { return c.MaxBufferSeconds * c.bytesPerSecond() }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
