package archive

import (
	"context"

	"github.com/foxseedlab/jimakun/internal/archive"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) archive.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input archive.CreateSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO caption_sessions (id, device_id, started_at, status)
		 VALUES ($1, $2, $3, 'running')`,
		input.SessionID, input.DeviceID, input.StartedAt)
	return err
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input archive.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE caption_sessions
		 SET status = 'completed', ended_at = $2, stop_reason = $3, segment_count = $4
		 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.StopReason, input.SegmentCount)
	return err
}

func (r *PostgresRepository) InsertSegment(ctx context.Context, input archive.InsertSegmentInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO caption_segments (session_id, sequence_id, content, start_time_ms, end_time_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		input.SessionID, input.SequenceID, input.Content, input.StartTimeMs, input.EndTimeMs)
	return err
}

func (r *PostgresRepository) ListSegmentsBySessionID(ctx context.Context, sessionID string) ([]archive.ArchivedSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, sequence_id, content, start_time_ms, end_time_ms, created_at
		 FROM caption_segments WHERE session_id = $1 ORDER BY sequence_id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []archive.ArchivedSegment
	for rows.Next() {
		var seg archive.ArchivedSegment
		if err := rows.Scan(&seg.SessionID, &seg.SequenceID, &seg.Content, &seg.StartTimeMs, &seg.EndTimeMs, &seg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, seg)
	}
	return list, rows.Err()
}
