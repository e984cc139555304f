package scrape

// TokenKind tags one fragment of a flattened document subtree.
type TokenKind int

const (
	// TokenOther is any fragment the consumer should ignore.
	TokenOther TokenKind = iota
	// TokenRowStart marks the beginning of a table row.
	TokenRowStart
	// TokenCell is one table cell belonging to the most recent row.
	TokenCell
	// TokenHeading names the attribute that the next value token commits.
	TokenHeading
	// TokenValue is the value for the pending heading.
	TokenValue
)

// Token is one tagged text fragment from a section's token stream. Streams
// are ordered; the browser collaborator emits them in document order.
type Token struct {
	Kind TokenKind
	Text string
}
