package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/YaqiinCargo/CargoBox/config"
	"github.com/YaqiinCargo/CargoBox/internal/broker/kafka"
	"github.com/YaqiinCargo/CargoBox/internal/broker/messages"
	"github.com/YaqiinCargo/CargoBox/internal/cache/rediscache"
	"github.com/YaqiinCargo/CargoBox/internal/services/arrivals"
	"github.com/YaqiinCargo/CargoBox/internal/services/settings"
	"github.com/YaqiinCargo/CargoBox/internal/services/syncer"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
	"github.com/YaqiinCargo/CargoBox/internal/storage/pgstore"
)

type workerStorage interface {
	GetBlob(ctx context.Context, key string) ([]byte, bool, error)
	SetBlob(ctx context.Context, key string, value []byte) error
	AppendActivity(ctx context.Context, e pgstore.ActivityEntry) error
	TouchActivity(ctx context.Context, clientID string, at time.Time) error
}

type activityConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (workerStorage, func(), error)
	newFetcher  func(cfg *config.Config) *sheets.CachedFetcher
	newConsumer func(cfg *config.Config, topic, group string) activityConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (workerStorage, func(), error) {
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgstore.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newFetcher: func(cfg *config.Config) *sheets.CachedFetcher {
			cacheTTL := time.Duration(cfg.Cargo.SheetCacheTTLSeconds) * time.Second
			if cacheTTL <= 0 {
				cacheTTL = 5 * time.Minute
			}
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return sheets.NewCachedFetcher(rediscache.New(redisAddr), cacheTTL)
		},
		newConsumer: func(cfg *config.Config, topic, group string) activityConsumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
	}
}

func RunCargoWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.Kafka.ClientActivityTopicName
	if topic == "" {
		topic = "client.activity"
	}
	group := cfg.Cargo.KafkaConsumerGroup
	if group == "" {
		group = "cargo-worker"
	}
	syncInterval := time.Duration(cfg.Cargo.SyncIntervalSeconds) * time.Second
	if syncInterval <= 0 {
		syncInterval = 5 * time.Minute
	}

	st, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	fetcher := f.newFetcher(cfg)
	settingsStore := settings.New(st, fetcher, cfg.Cargo.SettingsSheetURL)
	arrivalsResolver := arrivals.New(fetcher, cfg.Cargo.ArrivedReysSheetURL)

	s := syncer.New(settingsStore, arrivalsResolver).WithInterval(syncInterval)

	consumer := f.newConsumer(cfg, topic, group)
	defer func() { _ = consumer.Close() }()

	errCh := make(chan error, 3)

	go func() { errCh <- s.Run(ctx) }()

	go func() {
		slog.Info("kafka consumer started", "topic", topic, "group", group)
		errCh <- consumer.Consume(ctx, func(_ []byte, value []byte) error {
			return applyActivity(ctx, st, value)
		})
	}()

	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: cfg.Cargo.WorkerHTTPAddr,
			syncer:   s,
			cfg:      cfg,
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// applyActivity пишет событие в журнал и обновляет last_active профиля.
// Битое сообщение логируем и коммитим: одно кривое событие не должно
// останавливать консьюмер.
func applyActivity(ctx context.Context, st workerStorage, value []byte) error {
	var m messages.ClientActivity
	if err := json.Unmarshal(value, &m); err != nil {
		slog.Error("malformed activity message", "error", err.Error())
		return nil
	}
	if m.ClientID == "" || m.Event == "" {
		slog.Warn("incomplete activity message", "client_id", m.ClientID, "event", m.Event)
		return nil
	}

	if err := st.AppendActivity(ctx, pgstore.ActivityEntry{
		ID:       m.ID,
		ClientID: m.ClientID,
		Event:    m.Event,
		Detail:   m.Detail,
		At:       m.At,
	}); err != nil {
		return err
	}
	return st.TouchActivity(ctx, m.ClientID, m.At)
}
