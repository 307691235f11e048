package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
)

const blobKey = "yaqiin_cargo_settings"

type Repository interface {
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	SetBlob(ctx context.Context, key string, value []byte) error
}

type Store struct {
	repo     Repository
	fetcher  sheets.Fetcher
	sheetURL string
}

func New(repo Repository, fetcher sheets.Fetcher, sheetURL string) *Store {
	return &Store{repo: repo, fetcher: fetcher, sheetURL: sheetURL}
}

// Defaults — зашитые значения. Merge с частичным override обязан давать
// полную структуру: отсутствующий лист откатывается к дефолту, не к нулю.
func Defaults() models.AppSettings {
	var s models.AppSettings
	s.ExchangeRate = 12850
	s.Prices.Avto = models.ServicePrices{Standard: 6.0, Bulk: 7.5}
	s.Prices.Avia = models.ServicePrices{Standard: 9.5, Bulk: 11.0}
	s.DeliveryTime.Avto = "14-18 Kun"
	s.DeliveryTime.Avia = "3-5 Kun"
	return s
}

// Get никогда не фейлится: битый или отсутствующий override -> дефолты.
func (s *Store) Get(ctx context.Context) models.AppSettings {
	def := Defaults()
	if s.repo == nil {
		return def
	}
	b, ok, err := s.repo.GetBlob(ctx, blobKey)
	if err != nil || !ok {
		return def
	}
	var stored models.AppSettings
	if json.Unmarshal(b, &stored) != nil {
		return def
	}
	return merge(stored, def)
}

func (s *Store) Save(ctx context.Context, st models.AppSettings) error {
	b, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}
	return s.repo.SetBlob(ctx, blobKey, b)
}

func merge(stored, def models.AppSettings) models.AppSettings {
	out := def
	if stored.ExchangeRate > 0 {
		out.ExchangeRate = stored.ExchangeRate
	}
	mergePrices(&out.Prices.Avto, stored.Prices.Avto)
	mergePrices(&out.Prices.Avia, stored.Prices.Avia)
	if stored.DeliveryTime.Avto != "" {
		out.DeliveryTime.Avto = stored.DeliveryTime.Avto
	}
	if stored.DeliveryTime.Avia != "" {
		out.DeliveryTime.Avia = stored.DeliveryTime.Avia
	}
	return out
}

func mergePrices(dst *models.ServicePrices, src models.ServicePrices) {
	if src.Standard > 0 {
		dst.Standard = src.Standard
	}
	if src.Bulk > 0 {
		dst.Bulk = src.Bulk
	}
}

// Фиксированная раскладка строки данных (вторая строка таблицы):
// C=avia std, D=avto std, E=avia bulk, F=avto bulk,
// G=avia срок, H=avto срок, I=курс (опционально).
const (
	colAviaStd  = 2
	colAvtoStd  = 3
	colAviaBulk = 4
	colAvtoBulk = 5
	colAviaTime = 6
	colAvtoTime = 7
	colRate     = 8
)

// SyncFromRemote подтягивает настройки из таблицы. Недоступный или
// кривой источник — просто "без обновления" (nil): таблицы периодически
// отдают HTML вместо CSV, это штатная ситуация. Ошибка возвращается
// только если не удалось сохранить уже распарсенные значения.
func (s *Store) SyncFromRemote(ctx context.Context) error {
	if s.sheetURL == "" {
		return nil
	}
	text, ok := s.fetcher.Fetch(ctx, s.sheetURL)
	if !ok || sheets.IsHTML(text) {
		slog.Debug("settings sheet unavailable, keeping current values")
		return nil
	}

	rows := strings.Split(text, "\n")
	if len(rows) < 2 {
		return nil
	}
	dataRow := sheets.SplitRow(rows[1])
	if len(dataRow) < 6 {
		return nil
	}

	cur := s.Get(ctx)

	// Каждое поле заменяется только если ячейка парсится; иначе остаётся
	// прежнее значение.
	applyPrice(&cur.Prices.Avia.Standard, col(dataRow, colAviaStd))
	applyPrice(&cur.Prices.Avto.Standard, col(dataRow, colAvtoStd))
	applyPrice(&cur.Prices.Avia.Bulk, col(dataRow, colAviaBulk))
	applyPrice(&cur.Prices.Avto.Bulk, col(dataRow, colAvtoBulk))
	if v := col(dataRow, colAviaTime); v != "" {
		cur.DeliveryTime.Avia = v
	}
	if v := col(dataRow, colAvtoTime); v != "" {
		cur.DeliveryTime.Avto = v
	}
	applyPrice(&cur.ExchangeRate, col(dataRow, colRate))

	return s.Save(ctx, cur)
}

func applyPrice(dst *float64, cell string) {
	if v := sheets.ParseDecimal(cell); v > 0 {
		*dst = v
	}
}

func col(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
