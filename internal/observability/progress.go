// Package observability provides formatted terminal output for crawl
// progress.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer renders crawl progress for a human watching the run. It
// implements scrape.ProgressSink.
type Printer struct {
	out   io.Writer
	start time.Time
	now   func() time.Time
}

// NewPrinter creates a new Printer that writes to the given writer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, start: time.Now(), now: time.Now}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PlayerScraped prints per-player progress: who was just handled, how far
// through the catalog the run is, and a minutes-remaining estimate.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PlayerScraped(name string, collected, total int) {
	fmt.Fprintf(p.out, "%s just scraped.\n", name)

	elapsed := p.now().Sub(p.start)
	fmt.Fprintf(p.out, "%d players of %d scraped in %d minutes.\n",
		collected, total, int(elapsed.Minutes()))

	if collected <= 0 || total <= 0 {
		return
	}
	progress := float64(collected) / float64(total)
	remaining := elapsed.Seconds() / progress * (1 - progress)
	fmt.Fprintf(p.out, "%.2f%% complete. Estimated %d minutes remaining.\n",
		100*progress, int(remaining/60))
}

// PageFinished prints the page-completed banner.
func (p *Printer) PageFinished(page, totalPages int) {
	p.printBox("PAGE COMPLETE", fmt.Sprintf("Page %d of %d finished.", page, totalPages))
}
