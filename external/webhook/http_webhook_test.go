package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/jimakun/internal/webhook"
)

func samplePayload() webhook.TranscriptWebhookPayload {
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:   webhook.TranscriptWebhookSchemaVersion,
		SessionID:       "session-1",
		DeviceID:        "0",
		StartedAt:       "2026-08-25T10:00:00Z",
		EndedAt:         "2026-08-25T10:05:00Z",
		StopReason:      "stop requested",
		DurationSeconds: 300,
		SegmentCount:    1,
		Segments: []webhook.TranscriptWebhookSegment{
			{SequenceID: 0, StartTimeMs: 0, EndTimeMs: 2000, Text: "hello"},
		},
		Transcript: "hello",
	}
}

func TestSendTranscript_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendTranscript_Success(t *testing.T) {
	var got webhook.TranscriptWebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %s", ct)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("failed to unmarshal payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.SessionID != "session-1" {
		t.Fatalf("unexpected session id: %s", got.SessionID)
	}
	if len(got.Segments) != 1 || got.Segments[0].Text != "hello" {
		t.Fatalf("unexpected segments: %+v", got.Segments)
	}
}

func TestSendTranscript_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
