package tracks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/internal/models"
)

type memTracks struct {
	byClient map[string][]models.SavedTrack
}

func newMemTracks() *memTracks {
	return &memTracks{byClient: map[string][]models.SavedTrack{}}
}

func (m *memTracks) AddTrack(_ context.Context, clientID string, tr models.SavedTrack) error {
	for _, cur := range m.byClient[clientID] {
		if cur.ID == tr.ID {
			return nil
		}
	}
	m.byClient[clientID] = append([]models.SavedTrack{tr}, m.byClient[clientID]...)
	return nil
}

func (m *memTracks) ListTracks(_ context.Context, clientID string) ([]models.SavedTrack, error) {
	return m.byClient[clientID], nil
}

func (m *memTracks) RemoveTrack(_ context.Context, clientID, trackID string) error {
	var kept []models.SavedTrack
	for _, cur := range m.byClient[clientID] {
		if cur.ID != trackID {
			kept = append(kept, cur)
		}
	}
	m.byClient[clientID] = kept
	return nil
}

func TestAdd_NormalizesAndStamps(t *testing.T) {
	repo := newMemTracks()
	svc := New(repo)
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	require.NoError(t, svc.Add(context.Background(), "YQN-1", " yaq-123 456 ", "telefon"))

	list, err := svc.List(context.Background(), "YQN-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "YAQ-123456", list[0].ID)
	require.Equal(t, "telefon", list[0].Note)
	require.Equal(t, at, list[0].AddedAt)
}

func TestAdd_EmptyIDRejected(t *testing.T) {
	svc := New(newMemTracks())
	require.Error(t, svc.Add(context.Background(), "YQN-1", "   ", ""))
}

func TestAdd_DuplicateIsNoop(t *testing.T) {
	repo := newMemTracks()
	svc := New(repo)
	require.NoError(t, svc.Add(context.Background(), "YQN-1", "YAQ-1", ""))
	require.NoError(t, svc.Add(context.Background(), "YQN-1", "yaq-1", ""))

	list, err := svc.List(context.Background(), "YQN-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRemove_OtherClientUnaffected(t *testing.T) {
	repo := newMemTracks()
	svc := New(repo)
	require.NoError(t, svc.Add(context.Background(), "YQN-1", "YAQ-1", ""))
	require.NoError(t, svc.Add(context.Background(), "YQN-2", "YAQ-1", ""))

	require.NoError(t, svc.Remove(context.Background(), "YQN-1", "yaq-1"))

	one, _ := svc.List(context.Background(), "YQN-1")
	two, _ := svc.List(context.Background(), "YQN-2")
	require.Empty(t, one)
	require.Len(t, two, 1)
}
