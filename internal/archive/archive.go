package archive

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	SessionID string
	DeviceID  string
	StartedAt time.Time
}

type CompleteSessionInput struct {
	SessionID    string
	EndedAt      time.Time
	StopReason   string
	SegmentCount int
}

type InsertSegmentInput struct {
	SessionID   string
	SequenceID  uint64
	Content     string
	StartTimeMs int64
	EndTimeMs   int64
}

type ArchivedSegment struct {
	SessionID   string
	SequenceID  uint64
	Content     string
	StartTimeMs int64
	EndTimeMs   int64
	CreatedAt   time.Time
}

// Repository mirrors finished captioning sessions to durable storage. It is
// optional: the in-memory transcript store stays the source of truth either
// way.
type Repository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) error
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
	InsertSegment(ctx context.Context, input InsertSegmentInput) error
	ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]ArchivedSegment, error)
}
