package pgstore

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS client_profiles (
  client_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL,
  registered_at TIMESTAMPTZ NOT NULL,
  last_active TIMESTAMPTZ NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_client_profiles_last_active ON client_profiles(last_active DESC NULLS LAST)`,
		`
CREATE TABLE IF NOT EXISTS saved_tracks (
  client_id TEXT NOT NULL,
  track_id TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  added_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (client_id, track_id)
)`,
		`
CREATE TABLE IF NOT EXISTS imported_parcels (
  id TEXT PRIMARY KEY,
  record JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS app_blobs (
  key TEXT PRIMARY KEY,
  value JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS activity_log (
  id UUID PRIMARY KEY,
  client_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  detail TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_log_client_created ON activity_log(client_id, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
