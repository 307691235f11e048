package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// app_blobs — key -> JSON. Сюда ложится overrides настроек
// (ключи с префиксом "yaqiin_cargo_").

func (s *Storage) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM app_blobs WHERE key = $1`, key).Scan(&b)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select blob")
	}
	return b, true, nil
}

func (s *Storage) SetBlob(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO app_blobs (key, value, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, key, value, time.Now().UTC())
	return errors.Wrap(err, "set blob")
}
