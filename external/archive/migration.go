package archive

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE caption_session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS caption_sessions (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		stop_reason TEXT NOT NULL DEFAULT '',
		segment_count INTEGER NOT NULL DEFAULT 0,
		status caption_session_status NOT NULL DEFAULT 'running'
	)`,
	`CREATE TABLE IF NOT EXISTS caption_segments (
		session_id TEXT NOT NULL REFERENCES caption_sessions(id) ON DELETE CASCADE,
		sequence_id BIGINT NOT NULL,
		content TEXT NOT NULL,
		start_time_ms BIGINT NOT NULL,
		end_time_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, sequence_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_caption_segments_session ON caption_segments (session_id, sequence_id)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
