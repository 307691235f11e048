package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/internal/sheets/fake"
)

const rosterCSV = "ID,Ism,Telefon\n" +
	"YQN-1001,Azizbek Tursunov,+998 90 123 45 67\n" +
	"YQN-1002,,998911234567\n" +
	"broken\n" +
	"YQN-1003,Malika Shop,712345\n"

func newVerifier(csv string) (*Verifier, *fake.Fetcher) {
	f := fake.New()
	f.Set("http://clients", csv)
	v := New(f, "http://clients")
	v.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	return v, f
}

func TestVerify_MatchesIDAndLastNineDigits(t *testing.T) {
	v, _ := newVerifier(rosterCSV)

	// Пользователь вводит номер с кодом страны и пробелами.
	p, err := v.Verify(context.Background(), " yqn-1001 ", "+998 (90) 123-45-67")
	require.NoError(t, err)
	require.Equal(t, "YQN-1001", p.ClientID)
	require.Equal(t, "Azizbek Tursunov", p.Name)
	require.Equal(t, "+998 901234567", p.Phone)
	require.False(t, p.RegisteredAt.IsZero())
}

func TestVerify_LocalNumberWithoutCountryCode(t *testing.T) {
	v, _ := newVerifier(rosterCSV)
	p, err := v.Verify(context.Background(), "YQN-1001", "901234567")
	require.NoError(t, err)
	require.Equal(t, "YQN-1001", p.ClientID)
}

func TestVerify_PhoneMismatch(t *testing.T) {
	v, _ := newVerifier(rosterCSV)
	_, err := v.Verify(context.Background(), "YQN-1001", "909999999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerify_UnknownID(t *testing.T) {
	v, _ := newVerifier(rosterCSV)
	_, err := v.Verify(context.Background(), "YQN-9999", "901234567")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerify_EmptyNameFallsBack(t *testing.T) {
	v, _ := newVerifier(rosterCSV)
	p, err := v.Verify(context.Background(), "YQN-1002", "911234567")
	require.NoError(t, err)
	require.Equal(t, "Mijoz", p.Name)
}

func TestVerify_SourceDownIsDistinctFromNotFound(t *testing.T) {
	f := fake.New()
	f.SetSource("http://clients", fake.Source{Fail: true})
	v := New(f, "http://clients")

	_, err := v.Verify(context.Background(), "YQN-1001", "901234567")
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestVerify_HTMLResponseIsUnavailable(t *testing.T) {
	v, _ := newVerifier("<!DOCTYPE html><html>Access denied</html>")
	_, err := v.Verify(context.Background(), "YQN-1001", "901234567")
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestVerify_NoSheetConfigured(t *testing.T) {
	v := New(fake.New(), "")
	_, err := v.Verify(context.Background(), "YQN-1001", "901234567")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestListRoster_SkipsHeaderAndBrokenRows(t *testing.T) {
	v, _ := newVerifier(rosterCSV)

	roster := v.ListRoster(context.Background())
	require.Len(t, roster, 3)

	require.Equal(t, "YQN-1001", roster[0].ClientID)
	require.Equal(t, "+998 901234567", roster[0].Phone)
	require.Equal(t, "Mijoz", roster[1].Name)
	// Короткий номер остаётся как есть, без префикса страны.
	require.Equal(t, "712345", roster[2].Phone)
}

func TestListRoster_FailSoft(t *testing.T) {
	f := fake.New()
	f.SetSource("http://clients", fake.Source{Fail: true})
	require.Empty(t, New(f, "http://clients").ListRoster(context.Background()))
	require.Empty(t, New(fake.New(), "").ListRoster(context.Background()))
}
