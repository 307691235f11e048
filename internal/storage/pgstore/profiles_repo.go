package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

// UpsertProfile регистрирует профиль или обновляет существующий.
// Профили никогда не удаляются: logout чистит только сессию на клиенте.
func (s *Storage) UpsertProfile(ctx context.Context, p *models.ClientProfile) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO client_profiles (client_id, name, phone, registered_at, last_active)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (client_id)
DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, last_active = EXCLUDED.last_active
`, p.ClientID, p.Name, p.Phone, p.RegisteredAt, p.LastActive)
	return errors.Wrap(err, "upsert profile")
}

func (s *Storage) GetProfile(ctx context.Context, clientID string) (*models.ClientProfile, error) {
	var p models.ClientProfile
	err := s.db.QueryRow(ctx, `
SELECT client_id, name, phone, registered_at, last_active
FROM client_profiles
WHERE client_id = $1
`, clientID).Scan(&p.ClientID, &p.Name, &p.Phone, &p.RegisteredAt, &p.LastActive)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select profile")
	}
	return &p, nil
}

// ListProfiles — реестр всех регистраций для админки, активные сверху.
func (s *Storage) ListProfiles(ctx context.Context) ([]*models.ClientProfile, error) {
	rows, err := s.db.Query(ctx, `
SELECT client_id, name, phone, registered_at, last_active
FROM client_profiles
ORDER BY last_active DESC NULLS LAST, registered_at DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select profiles")
	}
	defer rows.Close()

	var out []*models.ClientProfile
	for rows.Next() {
		var p models.ClientProfile
		if err := rows.Scan(&p.ClientID, &p.Name, &p.Phone, &p.RegisteredAt, &p.LastActive); err != nil {
			return nil, errors.Wrap(err, "scan profile")
		}
		out = append(out, &p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) TouchActivity(ctx context.Context, clientID string, at time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE client_profiles SET last_active = $2 WHERE client_id = $1`, clientID, at)
	return errors.Wrap(err, "touch activity")
}

type ActivityEntry struct {
	ID       string
	ClientID string
	Event    string
	Detail   string
	At       time.Time
}

func (s *Storage) AppendActivity(ctx context.Context, e ActivityEntry) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO activity_log (id, client_id, event_type, detail, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, e.ID, e.ClientID, e.Event, e.Detail, e.At)
	return errors.Wrap(err, "append activity")
}

func (s *Storage) ListActivity(ctx context.Context, clientID string, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
SELECT id, client_id, event_type, detail, created_at
FROM activity_log
WHERE client_id = $1
ORDER BY created_at DESC
LIMIT $2
`, clientID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select activity")
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Event, &e.Detail, &e.At); err != nil {
			return nil, errors.Wrap(err, "scan activity")
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
