package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YaqiinCargo/CargoBox/config"
	"github.com/YaqiinCargo/CargoBox/internal/api/cargoapi"
	"github.com/YaqiinCargo/CargoBox/internal/broker/kafka"
	"github.com/YaqiinCargo/CargoBox/internal/cache/rediscache"
	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant"
	assistantfake "github.com/YaqiinCargo/CargoBox/internal/integrations/assistant/fake"
	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant/geminihttp"
	"github.com/YaqiinCargo/CargoBox/internal/services/arrivals"
	"github.com/YaqiinCargo/CargoBox/internal/services/clients"
	"github.com/YaqiinCargo/CargoBox/internal/services/parcels"
	"github.com/YaqiinCargo/CargoBox/internal/services/settings"
	"github.com/YaqiinCargo/CargoBox/internal/services/telemetry"
	"github.com/YaqiinCargo/CargoBox/internal/services/tracks"
	"github.com/YaqiinCargo/CargoBox/internal/sheets"
	"github.com/YaqiinCargo/CargoBox/internal/storage/pgstore"
)

type cargoAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   cargoAPIOpts
	api    *cargoapi.API

	producer *kafka.Producer
	closeDB  func()
}

func mustBootstrapCargoAPI() *cargoAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Cargo.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.ClientActivityTopicName
	if topic == "" {
		topic = "client.activity"
	}
	cacheTTL := time.Duration(cfg.Cargo.SheetCacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	fetchTimeout := time.Duration(cfg.Cargo.FetchTimeoutSeconds) * time.Second
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	sourceTimeout := time.Duration(cfg.Cargo.SourceTimeoutSeconds) * time.Second
	if sourceTimeout <= 0 {
		sourceTimeout = 15 * time.Second
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	fetcher := sheets.NewCachedFetcher(rc, cacheTTL).WithTimeout(fetchTimeout)

	settingsStore := settings.New(st, fetcher, cfg.Cargo.SettingsSheetURL)
	arrivalsResolver := arrivals.New(fetcher, cfg.Cargo.ArrivedReysSheetURL)
	parcelsResolver := parcels.New(fetcher, st, settingsStore, cfg.Cargo.ReysDirectoryURL).
		WithSourceTimeout(sourceTimeout)
	verifier := clients.New(fetcher, cfg.Cargo.ClientsSheetURL)
	tracksSvc := tracks.New(st)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers, topic)
	recorder := telemetry.New(producer)

	var chat assistant.Client
	if cfg.Cargo.AssistantAPIKey != "" {
		chat = geminihttp.New(cfg.Cargo.AssistantBaseURL, cfg.Cargo.AssistantModel, cfg.Cargo.AssistantAPIKey)
	} else {
		// Без ключа чат работает в оффлайн-режиме с запасной фразой.
		chat = assistantfake.New(assistant.FallbackMessage)
	}

	api := cargoapi.New(verifier, parcelsResolver, arrivalsResolver, settingsStore,
		tracksSvc, st, st, recorder, fetcher, chat, rl).
		WithChatRateLimit(cfg.Cargo.ChatRateLimitPerMinute)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &cargoAPIApp{
		ctx:      ctx,
		cancel:   cancel,
		opts:     cargoAPIOpts{httpAddr: httpAddr},
		api:      api,
		producer: producer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgstore.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgstore.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *cargoAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *cargoAPIApp) Run() error {
	return runCargoAPI(a.ctx, a.opts, a.api.Router())
}
