package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession scripts a catalog of listing pages. The detail popup renders
// a full name while the listing carries an abbreviation, matching the live
// site's behaviour.
type fakeSession struct {
	fakeSectionSource

	players string
	pages   string
	listing [][]Handle

	page      int
	listCalls int
	opened    []string
	closed    int
	nextErr   error
}

func (s *fakeSession) TotalPlayers(context.Context) (string, error) { return s.players, nil }
func (s *fakeSession) TotalPages(context.Context) (string, error)   { return s.pages, nil }

func (s *fakeSession) ListPlayers(context.Context) ([]Handle, error) {
	s.listCalls++
	return s.listing[s.page], nil
}

func (s *fakeSession) OpenDetail(_ context.Context, h Handle) error {
	s.opened = append(s.opened, h.Name)
	return nil
}

func (s *fakeSession) CloseDetail(context.Context) error {
	s.closed++
	return nil
}

func (s *fakeSession) DetailIdentity(context.Context) (string, string, string, error) {
	return "Harry Kane", "", "", nil
}

func (s *fakeSession) DetailStatus(context.Context) (string, error) {
	return "", &NotFoundError{What: "status flag"}
}

func (s *fakeSession) DetailImageSrc(context.Context) (string, error) {
	return "https://example.com/p1.png", nil
}

func (s *fakeSession) NextPage(context.Context) (bool, error) {
	if s.nextErr != nil {
		return false, s.nextErr
	}
	if s.page+1 >= len(s.listing) {
		return false, nil
	}
	s.page++
	return true, nil
}

type fakeProgress struct {
	names []string
	pages []int
}

func (p *fakeProgress) PlayerScraped(name string, _, _ int) { p.names = append(p.names, name) }
func (p *fakeProgress) PageFinished(page, _ int)            { p.pages = append(p.pages, page) }

type fakeReports struct {
	writes int
}

func (r *fakeReports) WriteRunReport(time.Time, int) error {
	r.writes++
	return nil
}

func twoPageSession() *fakeSession {
	return &fakeSession{
		players: "3",
		pages:   "2",
		listing: [][]Handle{
			{
				{Index: 0, Name: "Kane", Team: "Spurs", Position: "Forward"},
				{Index: 1, Name: "Son", Team: "Spurs", Position: "Midfielder"},
			},
			{
				{Index: 0, Name: "Ederson", Team: "Man City", Position: "Goalkeeper"},
			},
		},
	}
}

func newTestCursor(session Session, store RecordStore, cfg CursorConfig) (*Cursor, *fakeProgress, *fakeReports) {
	progress := &fakeProgress{}
	reports := &fakeReports{}
	gate := Gate{Store: store, StaleAfterDays: 7}
	c := NewCursor(session, store, gate, &Assembler{}, progress, reports, cfg)
	return c, progress, reports
}

func TestCursor_RunVisitsEveryPageOnce(t *testing.T) {
	session := twoPageSession()
	store := newFakeStore()
	c, progress, reports := newTestCursor(session, store, CursorConfig{})

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 2, session.listCalls)
	assert.Equal(t, []int{1, 2}, progress.pages)
	assert.Equal(t, 3, c.Collected)
	assert.Equal(t, 2, reports.writes)
	assert.Len(t, store.written, 3)
	assert.Contains(t, store.records, "Spurs-Forward-Kane")
	assert.Contains(t, store.records, "Man-City-Goalkeeper-Ederson")
}

func TestCursor_OpensAndClosesEveryDetail(t *testing.T) {
	session := twoPageSession()
	c, _, _ := newTestCursor(session, newFakeStore(), CursorConfig{})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"Kane", "Son", "Ederson"}, session.opened)
	assert.Equal(t, len(session.opened), session.closed)
}

func TestCursor_SampleModeCollectsOnePlayer(t *testing.T) {
	session := twoPageSession()
	store := newFakeStore()
	c, progress, _ := newTestCursor(session, store, CursorConfig{SampleMode: true})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 1, c.Collected)
	assert.Len(t, progress.names, 1)
	assert.Len(t, store.written, 1)
	assert.Equal(t, 1, session.listCalls)
}

func TestCursor_NonNumericTotalsAreFatal(t *testing.T) {
	session := twoPageSession()
	session.players = "loading..."
	c, _, _ := newTestCursor(session, newFakeStore(), CursorConfig{})

	err := c.Run(context.Background())
	var fatal *FatalCrawlError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "counting totals", fatal.Stage)
}

func TestCursor_SkipsFreshRecords(t *testing.T) {
	session := twoPageSession()
	store := newFakeStore()
	store.records["Spurs-Forward-Kane"] = &PlayerRecord{
		ID:          "Spurs-Forward-Kane",
		Name:        "Harry Kane",
		LastScraped: time.Now().Format(TimeLayout),
	}
	c, progress, _ := newTestCursor(session, store, CursorConfig{})

	require.NoError(t, c.Run(context.Background()))

	// Kane is reported from the cache without reopening his detail view.
	assert.NotContains(t, session.opened, "Kane")
	assert.Contains(t, progress.names, "Harry Kane")
	assert.Equal(t, 3, c.Collected)
	assert.Len(t, store.written, 2)
}

func TestCursor_NextPageExhaustionIsFatal(t *testing.T) {
	session := twoPageSession()
	session.nextErr = errors.New("stale element")
	c, _, _ := newTestCursor(session, newFakeStore(), CursorConfig{NextPageRetries: 1})

	err := c.Run(context.Background())
	var fatal *FatalCrawlError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "page transition", fatal.Stage)
}

func TestCursor_StopsWhenNextPageDoesNotAdvance(t *testing.T) {
	session := twoPageSession()
	// The page counter overstates the catalog; the dead Next button ends
	// the run cleanly.
	session.pages = "5"
	c, progress, _ := newTestCursor(session, newFakeStore(), CursorConfig{})

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []int{1, 2}, progress.pages)
}

func TestCursor_CancelledContextIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _, _ := newTestCursor(twoPageSession(), newFakeStore(), CursorConfig{})

	err := c.Run(ctx)
	var fatal *FatalCrawlError
	require.ErrorAs(t, err, &fatal)
}
