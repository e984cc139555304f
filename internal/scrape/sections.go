package scrape

import "context"

// SectionKind distinguishes the two shapes of player detail sections.
type SectionKind int

const (
	// AttributeSection is a heading/value stream reduced into flat keys.
	AttributeSection SectionKind = iota
	// TableSection is a row/cell stream rebuilt into a 2-D table.
	TableSection
)

// SectionSpec declares one section of the player detail view. The full set
// of sections is a flat list consumed by a single generic handler, so
// adding a section never means adding a branch.
type SectionSpec struct {
	// Name keys the section's data in the record. For attribute sections it
	// only appears in the record when the section could not be resolved.
	Name string
	// Kind selects the reduction applied to the token stream.
	Kind SectionKind
	// Selector locates the section's subtree. Interpreted by the browser
	// collaborator only.
	Selector string
	// HeadingTag and ValueTag name the markup tags mapped to heading and
	// value tokens for attribute sections.
	HeadingTag string
	ValueTag   string
	// NavigateFirst, when set, is a target the browser must click before
	// the section becomes visible (the fixtures tab).
	NavigateFirst string
}

// SectionSource resolves a section spec into its ordered token stream. An
// absent section is reported as a NotFoundError.
type SectionSource interface {
	SectionTokens(ctx context.Context, spec SectionSpec) ([]Token, error)
}
