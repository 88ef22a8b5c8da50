package config

import (
	"fmt"
)

type Config struct {
	Env                       string
	AudioDeviceID             string
	SampleRate                int
	Channels                  int
	CaptureFrameMs            int
	RingCapacityFrames        int
	ModelDir                  string
	RecognizerThreads         int
	EndpointTrailingSilenceMs int
	EndpointMinUtteranceMs    int
	MaxDecodeFailures         int
	LatencyHistorySize        int
	ExportDir                 string
	ExportFormats             []string
	MetricsAddr               string
	DatabaseURL               string
	TranscriptWebhookURL      string
}

func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("CHANNELS must be 1 or 2, got %d", c.Channels)
	}
	if c.CaptureFrameMs <= 0 {
		return fmt.Errorf("CAPTURE_FRAME_MS must be positive, got %d", c.CaptureFrameMs)
	}
	if c.RingCapacityFrames < 2 {
		return fmt.Errorf("RING_CAPACITY_FRAMES must be at least 2, got %d", c.RingCapacityFrames)
	}
	if c.RecognizerThreads <= 0 {
		return fmt.Errorf("RECOGNIZER_THREADS must be positive, got %d", c.RecognizerThreads)
	}
	if c.EndpointTrailingSilenceMs <= 0 {
		return fmt.Errorf("ENDPOINT_TRAILING_SILENCE_MS must be positive, got %d", c.EndpointTrailingSilenceMs)
	}
	if c.MaxDecodeFailures <= 0 {
		return fmt.Errorf("MAX_DECODE_FAILURES must be positive, got %d", c.MaxDecodeFailures)
	}
	if c.LatencyHistorySize <= 0 {
		return fmt.Errorf("LATENCY_HISTORY_SIZE must be positive, got %d", c.LatencyHistorySize)
	}
	for _, f := range c.ExportFormats {
		switch f {
		case "txt", "vtt", "srt":
		default:
			return fmt.Errorf("EXPORT_FORMATS contains unknown format %q", f)
		}
	}
	return nil
}

// FrameSamples is the number of samples per capture frame across all channels.
func (c *Config) FrameSamples() int {
	return c.SampleRate * c.CaptureFrameMs * c.Channels / 1000
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
