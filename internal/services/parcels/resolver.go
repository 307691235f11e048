package parcels

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
)

// ErrNotFound — посылка не найдена ни в одном источнике. Транспортные
// сбои отдельных рейсов сюда же: для пользователя это "не найдено",
// а не авария.
var ErrNotFound = errors.New("parcel not found")

type OverridesRepo interface {
	GetParcel(ctx context.Context, id string) (*models.ParcelRecord, error)
}

type SettingsProvider interface {
	Get(ctx context.Context) models.AppSettings
}

// Resolver ищет посылку по порядку: встроенные демо-записи ->
// вручную импортированные -> параллельный поиск по всем рейсам
// из справочника (гонка до первого успеха).
type Resolver struct {
	fetcher   sheets.Fetcher
	overrides OverridesRepo
	settings  SettingsProvider

	directoryURL  string
	sourceTimeout time.Duration
	seed          map[string]*models.ParcelRecord
}

func New(fetcher sheets.Fetcher, overrides OverridesRepo, settings SettingsProvider, directoryURL string) *Resolver {
	return &Resolver{
		fetcher:       fetcher,
		overrides:     overrides,
		settings:      settings,
		directoryURL:  directoryURL,
		sourceTimeout: 15 * time.Second,
		seed:          models.SeedParcels,
	}
}

func (r *Resolver) WithSourceTimeout(d time.Duration) *Resolver {
	if d > 0 {
		r.sourceTimeout = d
	}
	return r
}

func (r *Resolver) WithSeed(seed map[string]*models.ParcelRecord) *Resolver {
	r.seed = seed
	return r
}

func (r *Resolver) Resolve(ctx context.Context, rawID string) (*models.ParcelRecord, error) {
	id := models.NormalizeID(rawID)
	if id == "" {
		return nil, ErrNotFound
	}

	if rec, ok := r.seed[id]; ok {
		return rec, nil
	}

	if r.overrides != nil {
		rec, err := r.overrides.GetParcel(ctx, id)
		if err != nil {
			// Локальное хранилище недоступно — не повод останавливать
			// поиск по рейсам.
			slog.Error("imported parcels lookup", "id", id, "error", err.Error())
		}
		if rec != nil {
			return rec, nil
		}
	}

	sources := r.ListSources(ctx)
	if len(sources) == 0 {
		return nil, ErrNotFound
	}
	return r.searchAll(ctx, sources, id)
}

// searchAll — гонка до первого успеха. Обычный first-settled race здесь
// не годится: быстрый отказ одного рейса перебил бы медленный успех
// другого. Поэтому считаем отказы и сдаёмся только когда отказали все N.
func (r *Resolver) searchAll(ctx context.Context, sources []Source, id string) (*models.ParcelRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Буфер на все ветки: проигравшие дописывают результат и завершаются,
	// никто не блокируется на отправке.
	results := make(chan *models.ParcelRecord, len(sources))
	for _, src := range sources {
		go func(src Source) {
			results <- r.searchSource(ctx, src, id)
		}(src)
	}

	failed := 0
	for {
		select {
		case rec := <-results:
			if rec != nil {
				return rec, nil
			}
			failed++
			if failed == len(sources) {
				return nil, ErrNotFound
			}
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

// searchSource ищет id в одном рейсе; nil — ветка отказала.
func (r *Resolver) searchSource(ctx context.Context, src Source, id string) *models.ParcelRecord {
	sctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()

	text, ok := r.fetcher.Fetch(sctx, src.URL)
	if !ok || sheets.IsHTML(text) {
		return nil
	}
	// Дешёвая проверка по сырому тексту до построчного парсинга.
	if !strings.Contains(text, id) {
		return nil
	}
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, id) {
			continue
		}
		if rec := r.rowToRecord(sctx, line, src.Name, id); rec != nil {
			return rec
		}
	}
	return nil
}

// Раскладка строки рейса: B=дата выхода, C=трек-код, D=отправитель,
// G=вес, H=получатель. Доступ к колонкам только через col(): длина
// строк в реальных таблицах гуляет.
const (
	colDate     = 1
	colTrackID  = 2
	colSender   = 3
	colWeight   = 6
	colReceiver = 7
)

func (r *Resolver) rowToRecord(ctx context.Context, line, reysName, id string) *models.ParcelRecord {
	cols := sheets.SplitRow(line)
	if len(cols) < 3 {
		return nil
	}
	// Подстрочный pre-check мог сработать на чужой колонке.
	if !strings.Contains(strings.ToUpper(cols[colTrackID]), id) {
		return nil
	}

	date := col(cols, colDate)
	if date == "" {
		date = time.Now().Format("02.01.2006")
	}
	weight := sheets.ParseDecimal(col(cols, colWeight))

	isAvia := strings.Contains(strings.ToLower(reysName), "avia")
	st := r.settings.Get(ctx)
	rate := st.Prices.Avto.Standard
	location := "Guangzhou Ombori"
	if isAvia {
		rate = st.Prices.Avia.Standard
		location = "Guangzhou Aeroport"
	}

	sender := col(cols, colSender)
	if sender == "" {
		sender = "Yuk"
	}
	receiver := col(cols, colReceiver)
	if receiver == "" {
		receiver = "Mijoz"
	}

	return &models.ParcelRecord{
		ID:       cols[colTrackID],
		Sender:   sender,
		Receiver: receiver,
		Weight:   strconv.FormatFloat(weight, 'f', -1, 64),
		ReysCode: reysName,
		Price:    weight * rate,
		History: []models.TrackingEvent{{
			Date:      date,
			Time:      "12:00",
			Status:    "Yo'lga chiqdi (" + reysName + ")",
			Location:  location,
			Completed: false,
		}},
	}
}

func col(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}
