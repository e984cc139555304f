package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps records in memory and tracks mutations.
type fakeStore struct {
	records map[string]*PlayerRecord
	deleted []string
	written []string
	images  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*PlayerRecord{}}
}

func (s *fakeStore) ReadRecord(id string) (*PlayerRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, &NotFoundError{What: "record " + id}
	}
	return rec, nil
}

func (s *fakeStore) WriteRecord(id string, rec *PlayerRecord) error {
	s.records[id] = rec
	s.written = append(s.written, id)
	return nil
}

func (s *fakeStore) DeleteRecord(id string) error {
	delete(s.records, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) SaveImage(_ context.Context, id, _ string) error {
	s.images = append(s.images, id)
	return nil
}

func storeWithRecord(id, scraped string) *fakeStore {
	s := newFakeStore()
	s.records[id] = &PlayerRecord{ID: id, Name: "Kane", LastScraped: scraped}
	return s
}

func TestGate_MissingRecordCollects(t *testing.T) {
	gate := Gate{Store: newFakeStore(), StaleAfterDays: 7}

	skip, name, err := gate.ShouldSkip("Spurs-Forward-Kane", time.Now())
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Empty(t, name)
}

func TestGate_FreshRecordSkips(t *testing.T) {
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	store := storeWithRecord("Spurs-Forward-Kane", "2026-08-19T23:59:59")
	gate := Gate{Store: store, StaleAfterDays: 7}

	skip, name, err := gate.ShouldSkip("Spurs-Forward-Kane", now)
	require.NoError(t, err)
	assert.True(t, skip)
	assert.Equal(t, "Kane", name)
	assert.Empty(t, store.deleted)
}

func TestGate_StaleRecordDeletedAndCollected(t *testing.T) {
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	store := storeWithRecord("Spurs-Forward-Kane", "2026-08-18T09:00:00")
	gate := Gate{Store: store, StaleAfterDays: 7}

	skip, _, err := gate.ShouldSkip("Spurs-Forward-Kane", now)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, []string{"Spurs-Forward-Kane"}, store.deleted)
}

func TestGate_NextDayPolicy(t *testing.T) {
	// With a one-day window the time of day is irrelevant: a record from
	// late yesterday is already stale early today.
	now := time.Date(2026, 8, 25, 0, 30, 0, 0, time.UTC)
	gate := Gate{Store: storeWithRecord("id", "2026-08-24T23:45:00"), StaleAfterDays: 1}

	skip, _, err := gate.ShouldSkip("id", now)
	require.NoError(t, err)
	assert.False(t, skip)

	sameDay := Gate{Store: storeWithRecord("id", "2026-08-25T00:05:00"), StaleAfterDays: 1}
	skip, _, err = sameDay.ShouldSkip("id", now)
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestGate_UnparsableStampTreatedAsStale(t *testing.T) {
	store := storeWithRecord("id", "garbage")
	gate := Gate{Store: store, StaleAfterDays: 7}

	skip, _, err := gate.ShouldSkip("id", time.Now())
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, []string{"id"}, store.deleted)
}

func TestWholeDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", time.Date(2026, 8, 25, 1, 0, 0, 0, time.UTC), time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC), 0},
		{"midnight boundary", time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC), time.Date(2026, 8, 25, 0, 1, 0, 0, time.UTC), 1},
		{"full week", time.Date(2026, 8, 18, 12, 0, 0, 0, time.UTC), time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wholeDaysBetween(tt.a, tt.b))
		})
	}
}
