package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fpl-harvester/internal/scrape"
)

func testRecord(id string) *scrape.PlayerRecord {
	return &scrape.PlayerRecord{
		ID:          id,
		Name:        "Harry Kane",
		UUID:        uuid.NewString(),
		Position:    "Forward",
		Team:        "Spurs",
		Status:      scrape.DefaultStatus,
		LastScraped: "2026-08-25T10:00:00",
		Attributes:  map[string]string{"Form": "5.0"},
		Tables:      map[string]scrape.TableData{"Fixtures": nil},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "raw_data"))
	require.NoError(t, err)
	return s
}

func TestStore_WriteThenRead(t *testing.T) {
	s := newTestStore(t)
	id := "Spurs-Forward-Kane"
	rec := testRecord(id)

	require.NoError(t, s.WriteRecord(id, rec))

	got, err := s.ReadRecord(id)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// The corpus layout partitions by identifier.
	assert.FileExists(t, filepath.Join(s.Root(), id, id+"_data.json"))
	assert.DirExists(t, filepath.Join(s.Root(), id, "images"))
}

func TestStore_ReadMissingRecord(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadRecord("nobody")
	assert.True(t, scrape.IsNotFound(err))
}

func TestStore_WriteOverExistingRecordConflicts(t *testing.T) {
	s := newTestStore(t)
	id := "Spurs-Forward-Kane"

	require.NoError(t, s.WriteRecord(id, testRecord(id)))

	err := s.WriteRecord(id, testRecord(id))
	var conflict *scrape.PersistenceConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestStore_DeleteThenRewrite(t *testing.T) {
	s := newTestStore(t)
	id := "Spurs-Forward-Kane"

	require.NoError(t, s.WriteRecord(id, testRecord(id)))
	require.NoError(t, s.DeleteRecord(id))

	_, err := s.ReadRecord(id)
	assert.True(t, scrape.IsNotFound(err))

	require.NoError(t, s.WriteRecord(id, testRecord(id)))
}

func TestStore_DeleteMissingRecord(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.DeleteRecord("nobody"))
}

func TestStore_WriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	id := "Spurs-Forward-Kane"
	require.NoError(t, s.WriteRecord(id, testRecord(id)))

	entries, err := os.ReadDir(filepath.Join(s.Root(), id))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{id + "_data.json", "images"}, names)
}

func TestStore_SaveImageDownloads(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	s := newTestStore(t)
	id := "Spurs-Forward-Kane"
	require.NoError(t, s.WriteRecord(id, testRecord(id)))
	require.NoError(t, s.SaveImage(context.Background(), id, srv.URL+"/p1.png"))

	data, err := os.ReadFile(filepath.Join(s.Root(), id, "images", id+"_0.png"))
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestStore_SaveImageSkipsNonHTTPSource(t *testing.T) {
	s := newTestStore(t)
	id := "Spurs-Forward-Kane"

	require.NoError(t, s.SaveImage(context.Background(), id, ""))
	require.NoError(t, s.SaveImage(context.Background(), id, "data:image/png;base64,AAAA"))
	assert.NoFileExists(t, filepath.Join(s.Root(), id, "images", id+"_0.png"))
}

func TestStore_SaveImageSkipsWhenAlreadyPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(t)
	id := "Spurs-Forward-Kane"
	require.NoError(t, s.WriteRecord(id, testRecord(id)))

	existing := filepath.Join(s.Root(), id, "images", id+"_0.png")
	require.NoError(t, os.WriteFile(existing, []byte("cached"), 0644))

	// The failing server is never contacted.
	assert.NoError(t, s.SaveImage(context.Background(), id, srv.URL+"/p1.png"))
}

func TestStore_SaveImageRemovesFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStore(t)
	id := "Spurs-Forward-Kane"
	require.NoError(t, s.WriteRecord(id, testRecord(id)))

	err := s.SaveImage(context.Background(), id, srv.URL+"/missing.png")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(s.Root(), id, "images", id+"_0.png"))
}
