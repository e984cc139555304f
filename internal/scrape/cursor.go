package scrape

import (
	"context"
	"log"
	"strconv"
	"time"
)

// Handle references one player row in the catalog listing. Index is the
// row's position on the current page; the text fields are whatever the
// listing rendered, which for the name is usually an abbreviation of the
// full name shown in the detail view.
type Handle struct {
	Index    int
	Name     string
	Team     string
	Position string
}

// ID derives the record key for this handle from its listing text.
func (h Handle) ID() string {
	return MakeIdentifier(h.Team, h.Position, h.Name)
}

// Session is the single-session browser collaborator the cursor drives.
// The crawl is strictly sequential because implementations expose one
// interactive browsing session; none of these methods may be called
// concurrently. Absent elements are reported as NotFoundError where a
// player can survive the absence.
type Session interface {
	// TotalPlayers and TotalPages return the catalog totals as the text
	// the page renders; the cursor parses them.
	TotalPlayers(ctx context.Context) (string, error)
	TotalPages(ctx context.Context) (string, error)
	// ListPlayers returns the ordered player handles on the current page.
	ListPlayers(ctx context.Context) ([]Handle, error)
	// OpenDetail opens the detail popup for a listed handle; CloseDetail
	// dismisses it.
	OpenDetail(ctx context.Context, h Handle) error
	CloseDetail(ctx context.Context) error
	// DetailIdentity reads name, position and team from the open popup.
	DetailIdentity(ctx context.Context) (name, position, team string, err error)
	// DetailStatus reads the injury flag; absence means fully fit.
	DetailStatus(ctx context.Context) (string, error)
	// DetailImageSrc reads the player photo URL.
	DetailImageSrc(ctx context.Context) (string, error)
	// NextPage advances the listing; false means no further page loaded.
	NextPage(ctx context.Context) (bool, error)

	SectionSource
}

// ProgressSink receives the cursor's informational events.
type ProgressSink interface {
	PlayerScraped(name string, collected, total int)
	PageFinished(page, totalPages int)
}

// RunReportWriter regenerates and writes the run report. Invoked once per
// completed page; failures are logged, never fatal.
type RunReportWriter interface {
	WriteRunReport(runStarted time.Time, collected int) error
}

// CursorConfig carries the crawl policy knobs.
type CursorConfig struct {
	// SampleMode halts the crawl after the first player on the first page.
	SampleMode bool
	// PageCooldown is the fixed delay observed between pages. Rate-limit
	// politeness, not correctness.
	PageCooldown time.Duration
	// NextPageRetries bounds retransition attempts before the failure is
	// treated as fatal.
	NextPageRetries int
}

// Cursor owns the crawl position and drives one full run: count totals,
// then per page list players, gate each one, collect the ones that need
// refreshing, and advance until the catalog is exhausted.
type Cursor struct {
	session  Session
	store    RecordStore
	gate     Gate
	asm      *Assembler
	progress ProgressSink
	reports  RunReportWriter
	cfg      CursorConfig

	// PageIndex is 1-based and never exceeds TotalPages.
	PageIndex    int
	TotalPages   int
	TotalPlayers int
	Collected    int

	runStarted time.Time
	now        func() time.Time
}

// NewCursor wires a cursor over its collaborators.
func NewCursor(session Session, store RecordStore, gate Gate, asm *Assembler, progress ProgressSink, reports RunReportWriter, cfg CursorConfig) *Cursor {
	if cfg.NextPageRetries < 1 {
		cfg.NextPageRetries = 3
	}
	return &Cursor{
		session:  session,
		store:    store,
		gate:     gate,
		asm:      asm,
		progress: progress,
		reports:  reports,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run executes one crawl from the first page to completion. Per-player
// failures degrade that player's record and continue; totals, listing and
// page-transition failures return a FatalCrawlError.
func (c *Cursor) Run(ctx context.Context) error {
	c.PageIndex = 1
	c.Collected = 0
	c.runStarted = c.now().Truncate(time.Second)

	if err := c.countTotals(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return &FatalCrawlError{Stage: "crawl", Message: "cancelled", Cause: err}
		}

		handles, err := c.session.ListPlayers(ctx)
		if err != nil {
			return &FatalCrawlError{Stage: "page listing", Message: "failed to list players on page " + strconv.Itoa(c.PageIndex), Cause: err}
		}

		for _, h := range handles {
			name := c.collectPlayer(ctx, h)
			c.Collected++
			c.progress.PlayerScraped(name, c.Collected, c.TotalPlayers)
			if c.cfg.SampleMode {
				return nil
			}
		}

		c.progress.PageFinished(c.PageIndex, c.TotalPages)
		if err := c.reports.WriteRunReport(c.runStarted, c.Collected); err != nil {
			log.Printf("[CRAWL] run report write failed: %v", err)
		}

		if c.PageIndex >= c.TotalPages {
			return nil
		}
		if err := c.cooldown(ctx); err != nil {
			return &FatalCrawlError{Stage: "page transition", Message: "cancelled during cooldown", Cause: err}
		}
		moved, err := c.requestNextPage(ctx)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		c.PageIndex++
	}
}

// countTotals parses the catalog totals. Non-numeric totals mean the crawl
// cannot size its iteration and are fatal.
func (c *Cursor) countTotals(ctx context.Context) error {
	rawPlayers, err := c.session.TotalPlayers(ctx)
	if err != nil {
		return &FatalCrawlError{Stage: "counting totals", Message: "failed to read player count", Cause: err}
	}
	total, err := strconv.Atoi(rawPlayers)
	if err != nil {
		return &FatalCrawlError{Stage: "counting totals", Message: "player count " + strconv.Quote(rawPlayers) + " is not numeric", Cause: err}
	}
	c.TotalPlayers = total

	rawPages, err := c.session.TotalPages(ctx)
	if err != nil {
		return &FatalCrawlError{Stage: "counting totals", Message: "failed to read page count", Cause: err}
	}
	pages, err := strconv.Atoi(rawPages)
	if err != nil {
		return &FatalCrawlError{Stage: "counting totals", Message: "page count " + strconv.Quote(rawPages) + " is not numeric", Cause: err}
	}
	c.TotalPages = pages
	return nil
}

// collectPlayer runs the gate and, when the player needs refreshing,
// assembles and persists a fresh record plus image. Failures are contained
// here: the worst outcome for the run is a degraded or missing record for
// this one player. Returns the display name for progress output.
func (c *Cursor) collectPlayer(ctx context.Context, h Handle) string {
	id := h.ID()

	skip, cachedName, err := c.gate.ShouldSkip(id, c.now())
	if err != nil {
		log.Printf("[CRAWL] staleness check for %s failed, re-collecting: %v", id, err)
	}
	if skip {
		return cachedName
	}

	if err := c.session.OpenDetail(ctx, h); err != nil {
		log.Printf("[CRAWL] could not open detail for %s: %v", id, err)
		return h.Name
	}
	defer func() {
		if err := c.session.CloseDetail(ctx); err != nil {
			log.Printf("[CRAWL] could not close detail for %s: %v", id, err)
		}
	}()

	identity := Identity{ListedName: h.Name, Position: h.Position, Team: h.Team}
	identity.Name, identity.Position, identity.Team, err = c.detailIdentity(ctx, h)
	if err != nil {
		log.Printf("[CRAWL] could not read identity for %s: %v", id, err)
		return h.Name
	}

	status, err := c.session.DetailStatus(ctx)
	if err != nil && !IsNotFound(err) {
		log.Printf("[CRAWL] could not read status for %s: %v", id, err)
	}
	imageSrc, err := c.session.DetailImageSrc(ctx)
	if err != nil {
		if !IsNotFound(err) {
			log.Printf("[CRAWL] could not read image src for %s: %v", id, err)
		}
		imageSrc = ""
	}

	rec, err := c.asm.Assemble(ctx, c.session, identity, status, imageSrc, c.runStarted)
	if err != nil {
		log.Printf("[CRAWL] could not assemble record for %s: %v", id, err)
		return identity.Name
	}

	if err := c.store.WriteRecord(id, rec); err != nil {
		log.Printf("[CRAWL] could not persist record for %s: %v", id, err)
		return rec.Name
	}
	if err := c.store.SaveImage(ctx, id, rec.ImageSrc); err != nil {
		log.Printf("[CRAWL] could not save image for %s: %v", id, err)
	}
	return rec.Name
}

// detailIdentity reads the popup header, falling back to the listing text
// for any field the popup did not render.
func (c *Cursor) detailIdentity(ctx context.Context, h Handle) (name, position, team string, err error) {
	name, position, team, err = c.session.DetailIdentity(ctx)
	if err != nil {
		return "", "", "", err
	}
	if name == "" {
		name = h.Name
	}
	if position == "" {
		position = h.Position
	}
	if team == "" {
		team = h.Team
	}
	return name, position, team, nil
}

// requestNextPage retries the page transition with a growing delay. The
// site occasionally drops a click mid-render; repeated failure is fatal.
func (c *Cursor) requestNextPage(ctx context.Context) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.NextPageRetries; attempt++ {
		moved, err := c.session.NextPage(ctx)
		if err == nil {
			return moved, nil
		}
		lastErr = err
		log.Printf("[CRAWL] page transition attempt %d/%d failed: %v", attempt, c.cfg.NextPageRetries, err)
		select {
		case <-ctx.Done():
			return false, &FatalCrawlError{Stage: "page transition", Message: "cancelled", Cause: ctx.Err()}
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return false, &FatalCrawlError{Stage: "page transition", Message: "exhausted retries after page " + strconv.Itoa(c.PageIndex), Cause: lastErr}
}

// cooldown waits the configured between-page delay, honouring cancellation.
func (c *Cursor) cooldown(ctx context.Context) error {
	if c.cfg.PageCooldown <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.PageCooldown):
		return nil
	}
}
