package scrape

import (
	"context"
	"fmt"
	"time"
)

// RecordStore is the persistence collaborator the core writes through.
// Implementations must give WriteRecord atomic replace semantics: a
// half-written record file must never be observable.
type RecordStore interface {
	ReadRecord(id string) (*PlayerRecord, error)
	WriteRecord(id string, rec *PlayerRecord) error
	DeleteRecord(id string) error
	SaveImage(ctx context.Context, id, url string) error
}

// Gate decides whether a player needs re-collecting based on the age of
// its persisted record. Deleting a stale record's backing file is part of
// the gate's contract, not the caller's.
type Gate struct {
	Store RecordStore
	// StaleAfterDays is the whole-day refresh window. It is configuration:
	// both next-day (1) and weekly (7) policies are in active use.
	StaleAfterDays int
}

// ShouldSkip reports whether the player identified by id was collected
// recently enough to skip. When skipping, the cached display name from the
// previous record is returned for progress output. A record at or past the
// staleness window is deleted so the caller re-collects into a clean slot.
func (g Gate) ShouldSkip(id string, now time.Time) (bool, string, error) {
	rec, err := g.Store.ReadRecord(id)
	if err != nil {
		if IsNotFound(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("failed to read record %s: %w", id, err)
	}

	last, err := parseScrapedDate(rec.LastScraped)
	if err != nil {
		// An unreadable stamp is treated as stale.
		if derr := g.Store.DeleteRecord(id); derr != nil {
			return false, "", fmt.Errorf("failed to delete record %s: %w", id, derr)
		}
		return false, "", nil
	}

	delta := wholeDaysBetween(last, now)
	if delta >= g.StaleAfterDays {
		if derr := g.Store.DeleteRecord(id); derr != nil {
			return false, "", fmt.Errorf("failed to delete stale record %s: %w", id, derr)
		}
		return false, "", nil
	}
	return true, rec.Name, nil
}

// parseScrapedDate reads the date portion of a LastScraped stamp.
func parseScrapedDate(stamp string) (time.Time, error) {
	if len(stamp) < 10 {
		return time.Time{}, fmt.Errorf("timestamp %q too short", stamp)
	}
	return time.Parse("2006-01-02", stamp[:10])
}

// wholeDaysBetween counts calendar days from a to b, ignoring time of day.
func wholeDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
