package pgstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

// Список отслеживаемых треков изолирован по client_id, чтобы профили
// на одном устройстве не видели чужие посылки.

func (s *Storage) AddTrack(ctx context.Context, clientID string, tr models.SavedTrack) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO saved_tracks (client_id, track_id, note, added_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (client_id, track_id) DO NOTHING
`, clientID, tr.ID, tr.Note, tr.AddedAt)
	return errors.Wrap(err, "add track")
}

func (s *Storage) ListTracks(ctx context.Context, clientID string) ([]models.SavedTrack, error) {
	rows, err := s.db.Query(ctx, `
SELECT track_id, note, added_at
FROM saved_tracks
WHERE client_id = $1
ORDER BY added_at DESC
`, clientID)
	if err != nil {
		return nil, errors.Wrap(err, "select tracks")
	}
	defer rows.Close()

	out := []models.SavedTrack{}
	for rows.Next() {
		var tr models.SavedTrack
		if err := rows.Scan(&tr.ID, &tr.Note, &tr.AddedAt); err != nil {
			return nil, errors.Wrap(err, "scan track")
		}
		out = append(out, tr)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) RemoveTrack(ctx context.Context, clientID, trackID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM saved_tracks WHERE client_id = $1 AND track_id = $2`, clientID, trackID)
	return errors.Wrap(err, "remove track")
}
