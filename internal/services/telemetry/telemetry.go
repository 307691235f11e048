package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/YaqiinCargo/CargoBox/internal/broker/messages"
)

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Recorder отправляет события активности в брокер. Телеметрия не должна
// ломать пользовательский путь, поэтому Record ошибок не возвращает.
type Recorder struct {
	producer Publisher
	now      func() time.Time
	newID    func() string
}

func New(producer Publisher) *Recorder {
	return &Recorder{
		producer: producer,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

func (r *Recorder) Record(ctx context.Context, clientID, event, detail string) {
	if r.producer == nil || clientID == "" || event == "" {
		return
	}
	msg := messages.ClientActivity{
		ID:       r.newID(),
		ClientID: clientID,
		Event:    event,
		Detail:   detail,
		At:       r.now(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal activity", "error", err.Error())
		return
	}
	if err := r.producer.Publish(ctx, []byte(clientID), body); err != nil {
		slog.Error("publish activity", "client_id", clientID, "event", event, "error", err.Error())
	}
}
