package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/fpl-harvester/internal/scrape"
)

// FlattenSection turns a rendered section subtree into the ordered token
// stream the core consumes. Elements are visited in document order; the
// spec decides which tags become row, cell, heading or value tokens, and
// everything else is tagged Other.
func FlattenSection(html string, spec scrape.SectionSpec) ([]scrape.Token, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse section %s: %w", spec.Name, err)
	}

	tokens := []scrape.Token{}
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		kind := classifyTag(goquery.NodeName(sel), spec)
		text := ""
		if kind != scrape.TokenRowStart && kind != scrape.TokenOther {
			text = strings.TrimSpace(sel.Text())
		}
		tokens = append(tokens, scrape.Token{Kind: kind, Text: text})
	})
	return tokens, nil
}

// classifyTag maps a markup tag to its token kind for the given section.
func classifyTag(tag string, spec scrape.SectionSpec) scrape.TokenKind {
	if spec.Kind == scrape.TableSection {
		switch tag {
		case "tr":
			return scrape.TokenRowStart
		case "th", "td":
			return scrape.TokenCell
		}
		return scrape.TokenOther
	}
	switch tag {
	case spec.HeadingTag:
		return scrape.TokenHeading
	case spec.ValueTag:
		return scrape.TokenValue
	}
	return scrape.TokenOther
}

// parseListing extracts player handles from the rendered listing HTML. Each
// row renders the player's abbreviated name, team and position as its first
// three cells.
func parseListing(html, rowSelector string) ([]scrape.Handle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	handles := []scrape.Handle{}
	doc.Find(rowSelector).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("div")
		handles = append(handles, scrape.Handle{
			Index:    i,
			Name:     strings.TrimSpace(cells.Eq(0).Text()),
			Team:     strings.TrimSpace(cells.Eq(1).Text()),
			Position: strings.TrimSpace(cells.Eq(2).Text()),
		})
	})
	return handles, nil
}

// parseDetailHeader reads the full name, position and team from the detail
// dialog header, which renders them as its h2, span and div.
func parseDetailHeader(html string) (name, position, team string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse detail header: %w", err)
	}
	name = strings.TrimSpace(doc.Find("h2").First().Text())
	position = strings.TrimSpace(doc.Find("span").First().Text())
	team = strings.TrimSpace(doc.Find("div").First().Text())
	return name, position, team, nil
}
