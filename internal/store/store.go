// Package store persists harvested player records and images on the local
// filesystem: one directory per player holding a JSON record and an images
// subdirectory, mirroring the corpus layout the verification report reads.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jonathan/fpl-harvester/internal/scrape"
)

// DefaultImageTimeout bounds one image download.
const DefaultImageTimeout = 30 * time.Second

// Store is the filesystem-backed persistence collaborator. The corpus root
// is partitioned by player identifier; the store assumes a single writer
// process and takes no locks.
type Store struct {
	root   string
	client *resty.Client
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus root %s: %w", dir, err)
	}
	client := resty.New().SetTimeout(DefaultImageTimeout)
	return &Store{root: dir, client: client}, nil
}

// Root returns the corpus root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) playerDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.playerDir(id), id+"_data.json")
}

func (s *Store) imageDir(id string) string {
	return filepath.Join(s.playerDir(id), "images")
}

// ReadRecord loads the persisted record for id, or a NotFoundError when the
// player has never been collected.
func (s *Store) ReadRecord(id string) (*scrape.PlayerRecord, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &scrape.NotFoundError{What: "record " + id}
		}
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	var rec scrape.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &rec, nil
}

// WriteRecord persists rec with atomic replace semantics: the JSON is
// written to a temp file in the player directory and renamed into place, so
// a half-written record is never observable. A record file already present
// is a PersistenceConflictError; the staleness gate deletes stale records
// before collection, so an existing target means two writers or a gate
// bypass.
func (s *Store) WriteRecord(id string, rec *scrape.PlayerRecord) error {
	dir := s.playerDir(id)
	if err := os.MkdirAll(s.imageDir(id), 0755); err != nil {
		return fmt.Errorf("failed to create player directory %s: %w", dir, err)
	}

	target := s.recordPath(id)
	if _, err := os.Stat(target); err == nil {
		return &scrape.PersistenceConflictError{Path: target}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(dir, id+"_data.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp record for %s: %w", id, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp record for %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp record for %s: %w", id, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace record %s: %w", id, err)
	}
	return nil
}

// DeleteRecord removes the record file for id. Deleting an absent record is
// not an error.
func (s *Store) DeleteRecord(id string) error {
	if err := os.Remove(s.recordPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// SaveImage downloads the player photo into the images directory. It is a
// no-op when an image is already present or when url does not carry an
// HTTP(S) scheme.
func (s *Store) SaveImage(ctx context.Context, id, url string) error {
	if !strings.HasPrefix(strings.ToLower(url), "http") {
		return nil
	}
	imgDir := s.imageDir(id)
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		return fmt.Errorf("failed to create image directory for %s: %w", id, err)
	}
	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return fmt.Errorf("failed to list image directory for %s: %w", id, err)
	}
	if len(entries) > 0 {
		return nil
	}

	target := filepath.Join(imgDir, id+"_0.png")
	resp, err := s.client.R().
		SetContext(ctx).
		SetOutput(target).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to download image for %s: %w", id, err)
	}
	if resp.StatusCode() != http.StatusOK {
		_ = os.Remove(target)
		return fmt.Errorf("image download for %s returned HTTP %d", id, resp.StatusCode())
	}
	return nil
}
