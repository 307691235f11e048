package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/internal/models"
	"github.com/YaqiinCargo/CargoBox/internal/sheets/fake"
)

type memRepo struct {
	blobs map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{blobs: map[string][]byte{}} }

func (m *memRepo) GetBlob(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memRepo) SetBlob(_ context.Context, key string, value []byte) error {
	m.blobs[key] = value
	return nil
}

func TestGet_NoOverrideReturnsDefaults(t *testing.T) {
	st := New(newMemRepo(), fake.New(), "")
	got := st.Get(context.Background())
	require.Equal(t, Defaults(), got)
}

func TestGet_CorruptOverrideReturnsDefaults(t *testing.T) {
	repo := newMemRepo()
	repo.blobs[blobKey] = []byte("{not json")
	st := New(repo, fake.New(), "")
	require.Equal(t, Defaults(), st.Get(context.Background()))
}

func TestGet_MergeIdempotentOnDefaults(t *testing.T) {
	repo := newMemRepo()
	st := New(repo, fake.New(), "")
	require.NoError(t, st.Save(context.Background(), Defaults()))
	require.Equal(t, Defaults(), st.Get(context.Background()))
}

func TestGet_PartialOverrideKeepsOtherLeaves(t *testing.T) {
	repo := newMemRepo()
	repo.blobs[blobKey] = []byte(`{"exchangeRate": 13000}`)
	st := New(repo, fake.New(), "")

	got := st.Get(context.Background())
	want := Defaults()
	want.ExchangeRate = 13000
	require.Equal(t, want, got)
}

func TestGet_PartialPriceLeafMerge(t *testing.T) {
	repo := newMemRepo()
	repo.blobs[blobKey] = []byte(`{"prices":{"avia":{"standard":10.5}}}`)
	st := New(repo, fake.New(), "")

	got := st.Get(context.Background())
	require.Equal(t, 10.5, got.Prices.Avia.Standard)
	require.Equal(t, Defaults().Prices.Avia.Bulk, got.Prices.Avia.Bulk)
	require.Equal(t, Defaults().Prices.Avto, got.Prices.Avto)
	require.Equal(t, Defaults().DeliveryTime.Avto, got.DeliveryTime.Avto)
}

func TestSyncFromRemote_AppliesSheetRow(t *testing.T) {
	f := fake.New()
	f.Set("http://settings", "header,a,b,c,d,e,f,g,h\n"+
		`reys,info,"10,0",6.5,12.0,8.0,2-4 Kun,12-16 Kun,13100`)
	repo := newMemRepo()
	st := New(repo, f, "http://settings")

	require.NoError(t, st.SyncFromRemote(context.Background()))

	got := st.Get(context.Background())
	require.Equal(t, 10.0, got.Prices.Avia.Standard)
	require.Equal(t, 6.5, got.Prices.Avto.Standard)
	require.Equal(t, 12.0, got.Prices.Avia.Bulk)
	require.Equal(t, 8.0, got.Prices.Avto.Bulk)
	require.Equal(t, "2-4 Kun", got.DeliveryTime.Avia)
	require.Equal(t, "12-16 Kun", got.DeliveryTime.Avto)
	require.Equal(t, 13100.0, got.ExchangeRate)
}

func TestSyncFromRemote_MalformedCellsKeepPrevious(t *testing.T) {
	f := fake.New()
	f.Set("http://settings", "header\nreys,info,garbage,,x,y,,,")
	repo := newMemRepo()
	st := New(repo, f, "http://settings")

	require.NoError(t, st.SyncFromRemote(context.Background()))
	require.Equal(t, Defaults(), st.Get(context.Background()))
}

func TestSyncFromRemote_HTMLPageIsNoUpdate(t *testing.T) {
	f := fake.New()
	f.Set("http://settings", "<html>Access denied</html>")
	repo := newMemRepo()
	st := New(repo, f, "http://settings")

	require.NoError(t, st.SyncFromRemote(context.Background()))
	_, ok := repo.blobs[blobKey]
	require.False(t, ok)
}

func TestSyncFromRemote_UnavailableSourceIsNoUpdate(t *testing.T) {
	st := New(newMemRepo(), fake.New(), "http://settings-down")
	require.NoError(t, st.SyncFromRemote(context.Background()))
}

func TestSave_RoundTrip(t *testing.T) {
	repo := newMemRepo()
	st := New(repo, fake.New(), "")

	s := Defaults()
	s.Prices.Avto.Bulk = 8.25
	require.NoError(t, st.Save(context.Background(), s))

	var stored models.AppSettings
	require.NoError(t, json.Unmarshal(repo.blobs[blobKey], &stored))
	require.Equal(t, 8.25, stored.Prices.Avto.Bulk)
}
