package webhook

import "context"

const TranscriptWebhookSchemaVersion = 1

type TranscriptWebhookSegment struct {
	SequenceID  uint64 `json:"sequence_id"`
	StartTimeMs int64  `json:"start_time_ms"`
	EndTimeMs   int64  `json:"end_time_ms"`
	Text        string `json:"text"`
}

type TranscriptWebhookPayload struct {
	SchemaVersion   int                        `json:"schema_version"`
	SessionID       string                     `json:"session_id"`
	DeviceID        string                     `json:"device_id"`
	StartedAt       string                     `json:"started_at"`
	EndedAt         string                     `json:"ended_at"`
	StopReason      string                     `json:"stop_reason"`
	DurationSeconds int64                      `json:"duration_seconds"`
	SegmentCount    int                        `json:"segment_count"`
	Segments        []TranscriptWebhookSegment `json:"segments"`
	Transcript      string                     `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
