package browser

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/fpl-harvester/internal/scrape"
)

// DefaultOpTimeout bounds one wait-for-element operation. These waits are
// the only place the harvester blocks on the site.
const DefaultOpTimeout = 60 * time.Second

// Options configures a browser session.
type Options struct {
	Headless  bool
	OpTimeout time.Duration
	Verbose   bool
	Selectors Selectors
}

// Session is a single interactive browsing session. It is not safe for
// concurrent use: the crawl drives it strictly sequentially, one page and
// one player at a time. It implements scrape.Session.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc

	sel     Selectors
	timeout time.Duration
	verbose bool
}

// probe is the shape returned by the optional-lookup JavaScript snippets.
type probe struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// NewSession launches a headless Chrome and returns the session wrapper.
// Close must be called to shut the browser down.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1920, 1080),
		)...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
		sel:     opts.Selectors,
		timeout: opts.OpTimeout,
		verbose: opts.Verbose,
	}

	// Start the browser now so launch failures surface here, not on the
	// first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return s, nil
}

// Close shuts down the browser and its allocator.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// run executes chromedp actions under the per-operation timeout, bailing
// out early when the caller's context is already cancelled.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// Start navigates to the site and waits for it to render.
func (s *Session) Start(ctx context.Context, url string) error {
	if s.verbose {
		log.Printf("[BROWSER] Navigating to %s", url)
	}
	if err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

// AcceptCookies dismisses the consent banner when it is present. A site
// session without the banner is not an error.
func (s *Session) AcceptCookies(ctx context.Context) error {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); if (!el) return false; el.click(); return true; })()`,
		s.sel.CookieAccept,
	)
	var clicked bool
	if err := s.run(ctx,
		chromedp.Sleep(1*time.Second),
		chromedp.Evaluate(js, &clicked),
		chromedp.Sleep(1*time.Second),
	); err != nil {
		return fmt.Errorf("failed to handle consent banner: %w", err)
	}
	if s.verbose && clicked {
		log.Printf("[BROWSER] Dismissed consent banner")
	}
	return nil
}

// Login fills and submits the login form, then waits for the form to go
// away.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.run(ctx,
		chromedp.WaitVisible(s.sel.LoginEmail, chromedp.ByQuery),
		chromedp.SendKeys(s.sel.LoginEmail, email, chromedp.ByQuery),
		chromedp.SendKeys(s.sel.LoginPassword, password, chromedp.ByQuery),
		chromedp.Click(s.sel.LoginSubmit, chromedp.ByQuery),
		chromedp.WaitNotPresent(s.sel.LoginEmail, chromedp.ByQuery),
		chromedp.Sleep(s.humanLag()),
	); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if s.verbose {
		log.Printf("[BROWSER] Logged in as %s", email)
	}
	return nil
}

// GoToCatalog clicks through to the player catalog and waits for the first
// listing page.
func (s *Session) GoToCatalog(ctx context.Context) error {
	if err := s.run(ctx,
		chromedp.WaitVisible(s.sel.TransferPage, chromedp.ByQuery),
		chromedp.Click(s.sel.TransferPage, chromedp.ByQuery),
		chromedp.WaitVisible(s.sel.PlayerRow, chromedp.ByQuery),
		chromedp.Sleep(s.humanLag()),
	); err != nil {
		return fmt.Errorf("failed to open player catalog: %w", err)
	}
	return nil
}

// TotalPlayers returns the rendered player total.
func (s *Session) TotalPlayers(ctx context.Context) (string, error) {
	sel := s.sel.PlayerCount + " " + s.sel.PlayerCountChild
	var text string
	if err := s.run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Text(sel, &text, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to read player count: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// TotalPages returns the page total. The paginator renders "Page 1 of 20";
// the trailing field is the total.
func (s *Session) TotalPages(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx,
		chromedp.WaitVisible(s.sel.PageStatus, chromedp.ByQuery),
		chromedp.Text(s.sel.PageStatus, &text, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to read page count: %w", err)
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", &scrape.NotFoundError{What: "page count text"}
	}
	return fields[len(fields)-1], nil
}

// ListPlayers reads the ordered player rows on the current listing page.
func (s *Session) ListPlayers(ctx context.Context) ([]scrape.Handle, error) {
	var html string
	if err := s.run(ctx,
		chromedp.WaitVisible(s.sel.PlayerRow, chromedp.ByQuery),
		chromedp.OuterHTML("body", &html, chromedp.ByQuery),
		chromedp.Sleep(s.humanLag()),
	); err != nil {
		return nil, fmt.Errorf("failed to read player listing: %w", err)
	}
	handles, err := parseListing(html, s.sel.PlayerRow)
	if err != nil {
		return nil, err
	}
	if s.verbose {
		log.Printf("[BROWSER] Listed %d players", len(handles))
	}
	return handles, nil
}

// OpenDetail opens the detail dialog for the handle's listing row.
func (s *Session) OpenDetail(ctx context.Context, h scrape.Handle) error {
	js := fmt.Sprintf(
		`(() => { const els = document.querySelectorAll(%q); if (els.length <= %d) return false; els[%d].click(); return true; })()`,
		s.sel.PlayerButton, h.Index, h.Index,
	)
	var clicked bool
	if err := s.run(ctx,
		chromedp.Evaluate(js, &clicked),
		chromedp.WaitVisible(s.sel.DetailDialog, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to open detail for row %d: %w", h.Index, err)
	}
	if !clicked {
		return &scrape.NotFoundError{What: fmt.Sprintf("listing row %d", h.Index)}
	}
	return nil
}

// CloseDetail dismisses the open detail dialog.
func (s *Session) CloseDetail(ctx context.Context) error {
	if err := s.run(ctx,
		chromedp.Click(s.sel.DetailClose, chromedp.ByQuery),
		chromedp.WaitNotPresent(s.sel.DetailDialog, chromedp.ByQuery),
		chromedp.Sleep(s.humanLag()),
	); err != nil {
		return fmt.Errorf("failed to close detail dialog: %w", err)
	}
	return nil
}

// DetailIdentity reads the player's full name, position and team from the
// open dialog header.
func (s *Session) DetailIdentity(ctx context.Context) (name, position, team string, err error) {
	var html string
	if err := s.run(ctx,
		chromedp.WaitVisible(s.sel.DetailHeader, chromedp.ByQuery),
		chromedp.OuterHTML(s.sel.DetailHeader, &html, chromedp.ByQuery),
	); err != nil {
		return "", "", "", fmt.Errorf("failed to read detail header: %w", err)
	}
	return parseDetailHeader(html)
}

// DetailStatus reads the injury flag from the open dialog. Absence of the
// flag is reported as a NotFoundError; the caller records full fitness.
func (s *Session) DetailStatus(ctx context.Context) (string, error) {
	p, err := s.probeText(ctx, s.sel.DetailStatus)
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	if !p.Found {
		return "", &scrape.NotFoundError{What: "status flag"}
	}
	return strings.TrimSpace(p.Text), nil
}

// DetailImageSrc reads the player photo URL from the open dialog.
func (s *Session) DetailImageSrc(ctx context.Context) (string, error) {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? {found: true, text: el.src || ""} : {found: false, text: ""}; })()`,
		s.sel.DetailImage,
	)
	var p probe
	if err := s.run(ctx, chromedp.Evaluate(js, &p)); err != nil {
		return "", fmt.Errorf("failed to read image src: %w", err)
	}
	if !p.Found {
		return "", &scrape.NotFoundError{What: "player image"}
	}
	return p.Text, nil
}

// SectionTokens resolves one declared section of the open dialog into its
// token stream. A section the dialog does not render is a NotFoundError.
func (s *Session) SectionTokens(ctx context.Context, spec scrape.SectionSpec) ([]scrape.Token, error) {
	if spec.NavigateFirst != "" {
		if err := s.run(ctx,
			chromedp.Click(spec.NavigateFirst, chromedp.ByQuery),
			chromedp.Sleep(1*time.Second),
		); err != nil {
			return nil, &scrape.NotFoundError{What: "section tab " + spec.NavigateFirst}
		}
	}

	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? {found: true, text: el.outerHTML} : {found: false, text: ""}; })()`,
		spec.Selector,
	)
	var p probe
	if err := s.run(ctx, chromedp.Evaluate(js, &p)); err != nil {
		return nil, fmt.Errorf("failed to read section %s: %w", spec.Name, err)
	}
	if !p.Found {
		return nil, &scrape.NotFoundError{What: "section " + spec.Name}
	}
	return FlattenSection(p.Text, spec)
}

// NextPage clicks the paginator's Next button. Returns false without error
// when the button is missing or disabled, which marks the last page.
func (s *Session) NextPage(ctx context.Context) (bool, error) {
	js := fmt.Sprintf(
		`(() => {
			const els = document.querySelectorAll(%q);
			for (const el of els) {
				if (el.textContent.trim().includes("Next") && !el.disabled) { el.click(); return true; }
			}
			return false;
		})()`,
		s.sel.NextPageButton,
	)
	var clicked bool
	if err := s.run(ctx,
		chromedp.Evaluate(js, &clicked),
		chromedp.Sleep(s.humanLag()),
	); err != nil {
		return false, fmt.Errorf("failed to advance page: %w", err)
	}
	return clicked, nil
}

// probeText reads innerText of the first match of sel, reporting absence
// without waiting out the element timeout.
func (s *Session) probeText(ctx context.Context, sel string) (probe, error) {
	js := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? {found: true, text: el.innerText} : {found: false, text: ""}; })()`,
		sel,
	)
	var p probe
	err := s.run(ctx, chromedp.Evaluate(js, &p))
	return p, err
}

// humanLag returns a short randomized delay so interactions do not fire at
// machine cadence.
func (s *Session) humanLag() time.Duration {
	return time.Second + time.Duration(rand.Intn(4000))*time.Millisecond
}
