package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

type SettingsSyncer interface {
	SyncFromRemote(ctx context.Context) error
}

type ArrivalsFetcher interface {
	FetchManifest(ctx context.Context) models.ArrivalManifest
}

// Syncer периодически подтягивает тарифы из таблицы настроек и греет
// кэш манифеста прибытий, чтобы пользовательские запросы ходили по
// тёплому кэшу.
type Syncer struct {
	settings SettingsSyncer
	arrivals ArrivalsFetcher

	interval  time.Duration
	triggerCh chan struct{}

	startedAtUnixNano int64
	lastCycleUnixNano atomic.Int64
	totalCycles       atomic.Int64
	totalErrors       atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(settings SettingsSyncer, arrivals ArrivalsFetcher) *Syncer {
	return &Syncer{
		settings:          settings,
		arrivals:          arrivals,
		interval:          5 * time.Minute,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (s *Syncer) WithInterval(d time.Duration) *Syncer {
	if d > 0 {
		s.interval = d
	}
	return s
}

// Trigger форсирует немедленный цикл (best-effort, без блокировки).
func (s *Syncer) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt   time.Time  `json:"startedAt"`
	LastCycleAt *time.Time `json:"lastCycleAt,omitempty"`
	TotalCycles int64      `json:"totalCycles"`
	TotalErrors int64      `json:"totalErrors"`
	LastError   string     `json:"lastError,omitempty"`
}

func (s *Syncer) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalCycles: s.totalCycles.Load(),
		TotalErrors: s.totalErrors.Load(),
	}
	if n := s.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Syncer) Run(ctx context.Context) error {
	// Первый цикл сразу: тарифы нужны до первого запроса пользователя.
	s.runOnce(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	s.lastCycleUnixNano.Store(now.UnixNano())
	s.totalCycles.Add(1)

	if err := s.settings.SyncFromRemote(ctx); err != nil {
		s.totalErrors.Add(1)
		s.lastErrorMu.Lock()
		s.lastError = err.Error()
		s.lastErrorMu.Unlock()
		slog.Error("sync settings", "error", err.Error())
	}

	if s.arrivals != nil {
		m := s.arrivals.FetchManifest(ctx)
		slog.Info("arrivals warmed", "avia", len(m.Avia), "avto", len(m.Avto))
	}
}
