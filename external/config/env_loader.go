package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/jimakun/internal/config"
)

type envConfig struct {
	Env                       string   `env:"ENV" envDefault:"production"`
	AudioDeviceID             string   `env:"AUDIO_DEVICE_ID"`
	SampleRate                int      `env:"SAMPLE_RATE" envDefault:"16000"`
	Channels                  int      `env:"CHANNELS" envDefault:"1"`
	CaptureFrameMs            int      `env:"CAPTURE_FRAME_MS" envDefault:"64"`
	RingCapacityFrames        int      `env:"RING_CAPACITY_FRAMES" envDefault:"32"`
	ModelDir                  string   `env:"MODEL_DIR,required"`
	RecognizerThreads         int      `env:"RECOGNIZER_THREADS" envDefault:"1"`
	EndpointTrailingSilenceMs int      `env:"ENDPOINT_TRAILING_SILENCE_MS" envDefault:"800"`
	EndpointMinUtteranceMs    int      `env:"ENDPOINT_MIN_UTTERANCE_MS" envDefault:"300"`
	MaxDecodeFailures         int      `env:"MAX_DECODE_FAILURES" envDefault:"3"`
	LatencyHistorySize        int      `env:"LATENCY_HISTORY_SIZE" envDefault:"256"`
	ExportDir                 string   `env:"EXPORT_DIR" envDefault:"."`
	ExportFormats             []string `env:"EXPORT_FORMATS" envSeparator:"," envDefault:"txt,vtt,srt"`
	MetricsAddr               string   `env:"METRICS_ADDR"`
	DatabaseURL               string   `env:"DATABASE_URL"`
	TranscriptWebhookURL      string   `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                       raw.Env,
		AudioDeviceID:             raw.AudioDeviceID,
		SampleRate:                raw.SampleRate,
		Channels:                  raw.Channels,
		CaptureFrameMs:            raw.CaptureFrameMs,
		RingCapacityFrames:        raw.RingCapacityFrames,
		ModelDir:                  raw.ModelDir,
		RecognizerThreads:         raw.RecognizerThreads,
		EndpointTrailingSilenceMs: raw.EndpointTrailingSilenceMs,
		EndpointMinUtteranceMs:    raw.EndpointMinUtteranceMs,
		MaxDecodeFailures:         raw.MaxDecodeFailures,
		LatencyHistorySize:        raw.LatencyHistorySize,
		ExportDir:                 raw.ExportDir,
		ExportFormats:             raw.ExportFormats,
		MetricsAddr:               raw.MetricsAddr,
		DatabaseURL:               raw.DatabaseURL,
		TranscriptWebhookURL:      raw.TranscriptWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
