package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "arthik.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Settings("dappier")
	require.ErrorIs(t, err, ErrNotFound)

	saved, err := s.SaveSettings("Dappier", Settings{ServerURL: " https://api.dappier.com/x ", APIKey: "ak"})
	require.NoError(t, err)
	require.Equal(t, "https://api.dappier.com/x", saved.ServerURL)
	require.Equal(t, 2024, saved.UpdatedAt.Year())

	got, err := s.Settings("dappier")
	require.NoError(t, err)
	require.Equal(t, saved, got)

	require.NoError(t, s.DeleteSettings("dappier"))
	require.NoError(t, s.DeleteSettings("dappier"))
	_, err = s.Settings("dappier")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRecords(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordFetch(FetchRecord{ProviderID: "rss", Count: 4, Path: "rss"}))
	require.NoError(t, s.RecordFetch(FetchRecord{ProviderID: "dappier", Count: 3, Path: "fallback", Fallback: true}))
	require.NoError(t, s.RecordFetch(FetchRecord{ProviderID: "dappier", Count: 10, Path: "linked-bold"}))

	last, err := s.LastFetch("dappier")
	require.NoError(t, err)
	require.Equal(t, 10, last.Count)
	require.False(t, last.Fallback)
	require.Equal(t, s.now(), last.FetchedAt)

	all, err := s.Fetches()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "dappier", all[0].ProviderID)
	require.Equal(t, "rss", all[1].ProviderID)

	_, err = s.LastFetch("mcp")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arthik.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveSettings("mcp", Settings{ServerURL: "http://localhost:8080", APIKey: "k"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Settings("mcp")
	require.NoError(t, err)
	require.Equal(t, "k", got.APIKey)
}
