package scrape

import "log"

// ReduceAttributes folds a heading/value token stream into a key-value map
// with a two-state scan. A heading token sets the pending key; the next
// value token commits it and resets the scan. A heading followed by another
// heading before any value is dropped, matching how the site sometimes
// renders a stat label with no figure; the drop is logged since it can also
// mask missing data.
func ReduceAttributes(sectionName string, tokens []Token) map[string]string {
	attrs := make(map[string]string)
	pending := ""
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenHeading:
			if pending != "" {
				log.Printf("[SCRAPE] section %s: heading %q had no value, dropped", sectionName, pending)
			}
			pending = tok.Text
		case TokenValue:
			if pending == "" {
				continue
			}
			attrs[pending] = tok.Text
			pending = ""
		}
	}
	if pending != "" {
		log.Printf("[SCRAPE] section %s: heading %q had no value, dropped", sectionName, pending)
	}
	return attrs
}
