package tracks

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

type Repository interface {
	AddTrack(ctx context.Context, clientID string, tr models.SavedTrack) error
	ListTracks(ctx context.Context, clientID string) ([]models.SavedTrack, error)
	RemoveTrack(ctx context.Context, clientID, trackID string) error
}

// Service — личный список отслеживаемых посылок клиента.
type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Add сохраняет трек в список клиента. Повторное добавление того же
// кода не ошибка и не дубль.
func (s *Service) Add(ctx context.Context, clientID, rawID, note string) error {
	id := models.NormalizeID(rawID)
	if id == "" {
		return errors.New("empty track id")
	}
	tr := models.SavedTrack{ID: id, Note: note, AddedAt: s.now()}
	return errors.Wrap(s.repo.AddTrack(ctx, clientID, tr), "save track")
}

func (s *Service) List(ctx context.Context, clientID string) ([]models.SavedTrack, error) {
	list, err := s.repo.ListTracks(ctx, clientID)
	return list, errors.Wrap(err, "list tracks")
}

func (s *Service) Remove(ctx context.Context, clientID, rawID string) error {
	id := models.NormalizeID(rawID)
	if id == "" {
		return nil
	}
	return errors.Wrap(s.repo.RemoveTrack(ctx, clientID, id), "remove track")
}
