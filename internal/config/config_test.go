package config

import "testing"

func validConfig() *Config {
	return &Config{
		Env:                       "development",
		SampleRate:                16000,
		Channels:                  1,
		CaptureFrameMs:            64,
		RingCapacityFrames:        32,
		ModelDir:                  "/opt/models/zipformer",
		RecognizerThreads:         1,
		EndpointTrailingSilenceMs: 800,
		EndpointMinUtteranceMs:    300,
		MaxDecodeFailures:         3,
		LatencyHistorySize:        256,
		ExportDir:                 ".",
		ExportFormats:             []string{"txt", "vtt", "srt"},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingModelDir(t *testing.T) {
	cfg := validConfig()
	cfg.ModelDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when MODEL_DIR is missing")
	}
}

func TestValidate_InvalidChannels(t *testing.T) {
	cfg := validConfig()
	cfg.Channels = 4
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported channel count")
	}
}

func TestValidate_RingTooSmall(t *testing.T) {
	cfg := validConfig()
	cfg.RingCapacityFrames = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ring capacity below two frames")
	}
}

func TestValidate_UnknownExportFormat(t *testing.T) {
	cfg := validConfig()
	cfg.ExportFormats = []string{"txt", "pdf"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown export format")
	}
}

func TestFrameSamples(t *testing.T) {
	cfg := validConfig()
	if got := cfg.FrameSamples(); got != 1024 {
		t.Fatalf("expected 1024 samples per frame at 16kHz/64ms mono, got %d", got)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}
