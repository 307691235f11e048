package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/config"
	"github.com/YaqiinCargo/CargoBox/internal/services/syncer"
	"github.com/YaqiinCargo/CargoBox/internal/storage/pgstore"
)

type fakeWorkerStorage struct {
	blobs    map[string][]byte
	appended []pgstore.ActivityEntry
	touched  []string
}

func newFakeWorkerStorage() *fakeWorkerStorage {
	return &fakeWorkerStorage{blobs: map[string][]byte{}}
}

func (s *fakeWorkerStorage) GetBlob(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := s.blobs[key]
	return b, ok, nil
}

func (s *fakeWorkerStorage) SetBlob(_ context.Context, key string, value []byte) error {
	s.blobs[key] = value
	return nil
}

func (s *fakeWorkerStorage) AppendActivity(_ context.Context, e pgstore.ActivityEntry) error {
	s.appended = append(s.appended, e)
	return nil
}

func (s *fakeWorkerStorage) TouchActivity(_ context.Context, clientID string, _ time.Time) error {
	s.touched = append(s.touched, clientID)
	return nil
}

func TestApplyActivity_WritesLogAndTouchesProfile(t *testing.T) {
	st := newFakeWorkerStorage()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	b, err := json.Marshal(map[string]any{
		"id": "ev-1", "clientId": "YQN-1", "event": "login", "at": at,
	})
	require.NoError(t, err)

	require.NoError(t, applyActivity(context.Background(), st, b))
	require.Len(t, st.appended, 1)
	require.Equal(t, "YQN-1", st.appended[0].ClientID)
	require.Equal(t, "login", st.appended[0].Event)
	require.Equal(t, []string{"YQN-1"}, st.touched)
}

func TestApplyActivity_MalformedCommitted(t *testing.T) {
	st := newFakeWorkerStorage()
	// Кривой JSON не должен останавливать консьюмер.
	require.NoError(t, applyActivity(context.Background(), st, []byte("{broken")))
	require.NoError(t, applyActivity(context.Background(), st, []byte(`{"event":"login"}`)))
	require.Empty(t, st.appended)
}

func TestWorkerHTTPServer_StatsAndTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := syncer.New(noopSettings{}, nil).WithInterval(time.Hour)

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: "127.0.0.1:0",
			onListen: func(addr string) { addrCh <- addr },
			syncer:   s,
			cfg:      &config.Config{},
		})
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	require.Contains(t, string(body), "startedAt")

	tresp, err := http.Post("http://"+addr+"/trigger", "application/json", nil)
	require.NoError(t, err)
	tbody, _ := io.ReadAll(tresp.Body)
	tresp.Body.Close()
	require.Contains(t, string(tbody), "triggered")

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting ops server to stop")
	}
}

type noopSettings struct{}

func (noopSettings) SyncFromRemote(context.Context) error { return nil }

type stubConsumer struct{}

func (stubConsumer) Consume(ctx context.Context, _ func(key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stubConsumer) Close() error { return nil }

func TestRunCargoWorker_ContextCanceled(t *testing.T) {
	closed := false
	f := workerFactories{
		newStorage: func(*config.Config) (workerStorage, func(), error) {
			return newFakeWorkerStorage(), func() { closed = true }, nil
		},
		newFetcher: defaultWorkerFactories().newFetcher,
		newConsumer: func(*config.Config, string, string) activityConsumer {
			return stubConsumer{}
		},
	}

	cfg := &config.Config{}
	cfg.Cargo.WorkerHTTPAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- RunCargoWorker(ctx, cfg, f) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting worker to stop")
	}
	require.True(t, closed)
}
