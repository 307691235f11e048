package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/internal/broker/messages"
)

type capturePublisher struct {
	keys   [][]byte
	values [][]byte
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, key, value []byte) error {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return p.err
}

func TestRecord_PublishesActivity(t *testing.T) {
	pub := &capturePublisher{}
	rec := New(pub)
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return at }
	rec.newID = func() string { return "id-1" }

	rec.Record(context.Background(), "YQN-1001", "parcel_search", "YAQ-882190")

	require.Len(t, pub.values, 1)
	require.Equal(t, []byte("YQN-1001"), pub.keys[0])

	var got messages.ClientActivity
	require.NoError(t, json.Unmarshal(pub.values[0], &got))
	require.Equal(t, messages.ClientActivity{
		ID:       "id-1",
		ClientID: "YQN-1001",
		Event:    "parcel_search",
		Detail:   "YAQ-882190",
		At:       at,
	}, got)
}

func TestRecord_SkipsIncomplete(t *testing.T) {
	pub := &capturePublisher{}
	rec := New(pub)

	rec.Record(context.Background(), "", "login", "")
	rec.Record(context.Background(), "YQN-1001", "", "")
	require.Empty(t, pub.values)
}

func TestRecord_PublishErrorSwallowed(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	rec := New(pub)

	// Ошибка брокера не должна дойти до вызывающего.
	rec.Record(context.Background(), "YQN-1001", "login", "")
	require.Len(t, pub.values, 1)
}

func TestRecord_NilProducerNoop(t *testing.T) {
	rec := New(nil)
	rec.Record(context.Background(), "YQN-1001", "login", "")
}
