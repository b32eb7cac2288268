package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		defValue string
		want     string
	}{
		{
			name:     "env set",
			envKey:   "TEST_ENV_VAR",
			envValue: "custom_value",
			defValue: "default",
			want:     "custom_value",
		},
		{
			name:     "env not set",
			envKey:   "TEST_ENV_VAR_NOTSET",
			envValue: "",
			defValue: "default",
			want:     "default",
		},
		{
			name:     "empty default",
			envKey:   "TEST_ENV_VAR_EMPTY",
			envValue: "",
			defValue: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.envKey, tt.envValue)
			}

			got := getenv(tt.envKey, tt.defValue)
			if got != tt.want {
				t.Errorf("getenv(%q, %q) = %q, want %q", tt.envKey, tt.defValue, got, tt.want)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		def      int
		want     int
	}{
		{
			name:     "valid value",
			envKey:   "TEST_INT_NORMAL",
			envValue: "500",
			def:      100,
			want:     500,
		},
		{
			name:     "env not set - use default",
			envKey:   "TEST_INT_NOTSET",
			envValue: "",
			def:      100,
			want:     100,
		},
		{
			name:     "invalid value - use default",
			envKey:   "TEST_INT_INVALID",
			envValue: "not_a_number",
			def:      100,
			want:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.envKey, tt.envValue)
			}

			got := getenvInt(tt.envKey, tt.def)
			if got != tt.want {
				t.Errorf("getenvInt(%q, %d) = %d, want %d", tt.envKey, tt.def, got, tt.want)
			}
		})
	}
}

func TestGetenvBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		want     bool
	}{
		{name: "true", envValue: "true", def: false, want: true},
		{name: "numeric true", envValue: "1", def: false, want: true},
		{name: "false", envValue: "false", def: true, want: false},
		{name: "invalid - use default", envValue: "yep", def: true, want: true},
		{name: "not set - use default", envValue: "", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL_VAR", tt.envValue)
			}

			got := getenvBool("TEST_BOOL_VAR", tt.def)
			if got != tt.want {
				t.Errorf("getenvBool(%q, %v) = %v, want %v", tt.envValue, tt.def, got, tt.want)
			}
		})
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG_PATH", "HTTP_ADDR", "DATABASE_URL", "SENTRY_DSN", "LOG_LEVEL",
		"OPENAI_API_KEY", "WHISPER_API_URL", "WHISPER_MODEL",
		"ANALYSIS_API_URL", "ANALYSIS_MODEL", "REQUEST_TIMEOUT",
		"SAMPLE_RATE", "SEGMENT_SECONDS", "OVERLAP_SECONDS", "MAX_BUFFER_SECONDS",
		"DIARIZATION_ENABLED", "LOCATIONS_PATH", "GUESTS_PATH", "ISSUES_PATH",
	}
	for _, key := range keys {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.WhisperModel != "whisper-1" {
		t.Errorf("WhisperModel = %q, want %q", cfg.WhisperModel, "whisper-1")
	}
	if cfg.AnalysisModel != "gpt-4o" {
		t.Errorf("AnalysisModel = %q, want %q", cfg.AnalysisModel, "gpt-4o")
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.SegmentSeconds != 5 || cfg.OverlapSeconds != 1 {
		t.Errorf("segmentation = %d/%d, want 5/1", cfg.SegmentSeconds, cfg.OverlapSeconds)
	}
	if cfg.MaxBufferSeconds != 30 {
		t.Errorf("MaxBufferSeconds = %d, want 30", cfg.MaxBufferSeconds)
	}
	if cfg.DiarizationEnabled {
		t.Error("DiarizationEnabled should default to false")
	}
}

func TestLoadConfigDerivedSizes(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	// 16kHz mono 16-bit: 32000 bytes per second.
	if got := cfg.SegmentSizeBytes(); got != 160000 {
		t.Errorf("SegmentSizeBytes() = %d, want 160000", got)
	}
	if got := cfg.OverlapSizeBytes(); got != 32000 {
		t.Errorf("OverlapSizeBytes() = %d, want 32000", got)
	}
	if got := cfg.MaxBufferSizeBytes(); got != 960000 {
		t.Errorf("MaxBufferSizeBytes() = %d, want 960000", got)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SEGMENT_SECONDS", "10")
	t.Setenv("OVERLAP_SECONDS", "2")
	t.Setenv("DIARIZATION_ENABLED", "true")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("OpenAIAPIKey = %q, want %q", cfg.OpenAIAPIKey, "sk-test")
	}
	if cfg.SegmentSeconds != 10 || cfg.OverlapSeconds != 2 {
		t.Errorf("segmentation = %d/%d, want 10/2", cfg.SegmentSeconds, cfg.OverlapSeconds)
	}
	if !cfg.DiarizationEnabled {
		t.Error("DiarizationEnabled should be true")
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
httpAddr: ":7070"
analysisModel: gpt-4o-mini
segmentSeconds: 8
overlapSeconds: 2
diarizationEnabled: true
requestTimeout: 20s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	// Environment still beats the file.
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.HTTPAddr != ":6060" {
		t.Errorf("HTTPAddr = %q, want env override %q", cfg.HTTPAddr, ":6060")
	}
	if cfg.AnalysisModel != "gpt-4o-mini" {
		t.Errorf("AnalysisModel = %q, want %q", cfg.AnalysisModel, "gpt-4o-mini")
	}
	if cfg.SegmentSeconds != 8 || cfg.OverlapSeconds != 2 {
		t.Errorf("segmentation = %d/%d, want 8/2", cfg.SegmentSeconds, cfg.OverlapSeconds)
	}
	if !cfg.DiarizationEnabled {
		t.Error("DiarizationEnabled should be true from file")
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want 20s", cfg.RequestTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.WhisperModel != "whisper-1" {
		t.Errorf("WhisperModel = %q, want default", cfg.WhisperModel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail for a missing CONFIG_PATH file")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero segment", func(c *Config) { c.SegmentSeconds = 0 }},
		{"overlap equals segment", func(c *Config) { c.OverlapSeconds = c.SegmentSeconds }},
		{"negative overlap", func(c *Config) { c.OverlapSeconds = -1 }},
		{"buffer smaller than segment", func(c *Config) { c.MaxBufferSeconds = c.SegmentSeconds - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate() should fail")
			}
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := defaultConfig()
		if err := cfg.validate(); err != nil {
			t.Errorf("validate() = %v, want nil", err)
		}
	})
}
