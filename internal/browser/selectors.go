// Package browser implements the automation collaborator on top of a
// headless Chrome session driven through chromedp. It owns every selector
// and all markup interpretation; the core only ever sees resolved text and
// token streams.
package browser

import "github.com/jonathan/fpl-harvester/internal/scrape"

// Selectors is the declarative table of CSS selectors for the fantasy site.
// The site ships generated class names, so these are expected to need
// updating across site releases; they live here and nowhere else.
type Selectors struct {
	CookieAccept string

	LoginEmail    string
	LoginPassword string
	LoginSubmit   string

	TransferPage string

	PlayerCount      string
	PlayerCountChild string
	PageStatus       string

	PlayerRow    string
	PlayerButton string

	DetailDialog string
	DetailHeader string
	DetailClose  string
	DetailStatus string
	DetailImage  string

	NextPageButton string
}

// DefaultSelectors returns the selector table for the current site build.
func DefaultSelectors() Selectors {
	return Selectors{
		CookieAccept: `button[class*="js-accept-all-close"]`,

		LoginEmail:    `input[type="email"]`,
		LoginPassword: `input[type="password"]`,
		LoginSubmit:   `button[type="submit"]`,

		TransferPage: `a[href="/transfers"]`,

		PlayerCount:      `[class^="ElementList__ElementsShown"]`,
		PlayerCountChild: "strong",
		PageStatus:       `[role="status"]`,

		PlayerRow:    `[class^="Media__Body"]`,
		PlayerButton: `[class^="ElementDialogButton__StyledElementDialogButton"]`,

		DetailDialog: `div[role="dialog"]`,
		DetailHeader: `div[role="dialog"] header`,
		DetailClose:  `[class^="Dialog__Button"]`,
		DetailStatus: `[type="error"]`,
		DetailImage:  `div[role="dialog"] img`,

		NextPageButton: `[class^="PaginatorButton__Button"]`,
	}
}

// DefaultSections declares the player detail sections harvested into each
// record: two heading/value attribute panels and three tables. Adding a
// section here is the only change needed to collect more of the dialog.
func DefaultSections() []scrape.SectionSpec {
	return []scrape.SectionSpec{
		{
			Name:       "Form",
			Kind:       scrape.AttributeSection,
			Selector:   `[class^="ElementDialog__StatList"]`,
			HeadingTag: "h3",
			ValueTag:   "div",
		},
		{
			Name:       "ICT",
			Kind:       scrape.AttributeSection,
			Selector:   `[class^="ElementDialog__ICTBody"]`,
			HeadingTag: "h3",
			ValueTag:   "strong",
		},
		{
			Name:     "This Season",
			Kind:     scrape.TableSection,
			Selector: `[class^="ElementDialog__ScrollTable"] table`,
		},
		{
			Name:     "Previous Seasons",
			Kind:     scrape.TableSection,
			Selector: `div[role="dialog"] [class*="PreviousSeasons"] table`,
		},
		{
			Name:          "Fixtures",
			Kind:          scrape.TableSection,
			Selector:      `[class^="Table"]`,
			NavigateFirst: `a[href="#fixtures"]`,
		},
	}
}
