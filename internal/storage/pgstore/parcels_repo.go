package pgstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

// Вручную импортированные записи (админский импорт из Excel).
// Резолвер смотрит сюда после встроенного набора и до поиска по рейсам.

func (s *Storage) UpsertParcels(ctx context.Context, parcels []*models.ParcelRecord) error {
	if len(parcels) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, p := range parcels {
		b, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(err, "marshal parcel")
		}
		_, err = tx.Exec(ctx, `
INSERT INTO imported_parcels (id, record, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (id)
DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
`, p.ID, b, now)
		if err != nil {
			return errors.Wrap(err, "upsert parcel")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) GetParcel(ctx context.Context, id string) (*models.ParcelRecord, error) {
	var b []byte
	err := s.db.QueryRow(ctx, `SELECT record FROM imported_parcels WHERE id = $1`, id).Scan(&b)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select parcel")
	}
	var p models.ParcelRecord
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal parcel")
	}
	return &p, nil
}
