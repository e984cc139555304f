// Package report generates the human-readable run report: corpus counts,
// the latest collection date, and the identifier/name verification block.
// Generation is a pure read-only pass over the persisted corpus; running it
// twice over an unchanged corpus yields an identical report.
package report

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/fpl-harvester/internal/schemas"
	"github.com/jonathan/fpl-harvester/internal/scrape"
)

// MinPopulatedFields is the smallest top-level key count a record can have
// once identity, bookkeeping and every declared section resolved. Records
// below it are counted as partially populated.
const MinPopulatedFields = 19

// ReportFileName is the report file written into the corpus root.
const ReportFileName = "report.txt"

// Mismatch is one record whose identifier does not verify against its own
// name. Name abbreviations in the catalog listing make a small number of
// these expected; they need a human eye, not a crash.
type Mismatch struct {
	ID       string
	Name     string
	Team     string
	Position string
}

// Report aggregates one verification pass over the corpus.
type Report struct {
	RunStarted    time.Time
	Collected     int
	RecordCount   int
	ImageCount    int
	LatestScraped time.Time
	Mismatches    []Mismatch
}

// Generate walks every persisted record under corpusPath once and builds
// the report. schemaPath, when non-empty, names the JSON schema each record
// file must satisfy to count as well-formed.
func Generate(corpusPath, schemaPath string) (*Report, error) {
	rep := &Report{}

	err := filepath.WalkDir(corpusPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(d.Name(), ".png"):
			rep.ImageCount++
		case strings.HasSuffix(d.Name(), ".json"):
			return rep.addRecord(path, schemaPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus %s: %w", corpusPath, err)
	}
	return rep, nil
}

// addRecord folds one record file into the aggregate counts.
func (r *Report) addRecord(path, schemaPath string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read record %s: %w", path, err)
	}
	var rec scrape.PlayerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("failed to decode record %s: %w", path, err)
	}

	if scraped, err := time.Parse("2006-01-02", clipDate(rec.LastScraped)); err == nil {
		if scraped.After(r.LatestScraped) {
			r.LatestScraped = scraped
		}
	}

	wellFormed := true
	if schemaPath != "" {
		if err := schemas.ValidateRecordFile(schemaPath, path); err != nil {
			wellFormed = false
		}
	}
	if wellFormed && rec.FieldCount() >= MinPopulatedFields {
		r.RecordCount++
	}

	if !identifierMatchesName(rec.ID, rec.Name, rec.Team, rec.Position) {
		r.Mismatches = append(r.Mismatches, Mismatch{
			ID:       rec.ID,
			Name:     rec.Name,
			Team:     rec.Team,
			Position: rec.Position,
		})
	}
	return nil
}

// identifierMatchesName checks that the name-derived suffix of the
// identifier appears within the record's own name. The suffix is whatever
// follows the team and position prefix; both sides are compared in the
// identifier's hyphenated form so multi-word names line up.
func identifierMatchesName(id, name, team, position string) bool {
	prefix := scrape.MakeIdentifier(team, position, "")
	suffix := strings.TrimPrefix(id, prefix)
	hyphenated := strings.Join(strings.Fields(name), "-")
	return strings.Contains(hyphenated, suffix)
}

// clipDate returns the date portion of an ISO-8601 stamp.
func clipDate(stamp string) string {
	if len(stamp) < 10 {
		return stamp
	}
	return stamp[:10]
}

// Render formats the report the way it is written to disk: run header,
// counts, then the verification block, one line per mismatch.
func (r *Report) Render() string {
	var sb strings.Builder
	if !r.RunStarted.IsZero() {
		sb.WriteString(fmt.Sprintf("Scraper ran at: %s.\n", r.RunStarted.Format(scrape.TimeLayout)))
		sb.WriteString(fmt.Sprintf("%d players scraped this run.\n", r.Collected))
	}
	latest := "never"
	if !r.LatestScraped.IsZero() {
		latest = r.LatestScraped.Format("2006-01-02")
	}
	sb.WriteString(fmt.Sprintf("Latest collection date: %s.\n", latest))
	sb.WriteString(fmt.Sprintf("%d json files and %d image files scraped.\n\n", r.RecordCount, r.ImageCount))
	sb.WriteString("Please verify the following players:\n\n")
	for _, m := range r.Mismatches {
		sb.WriteString(fmt.Sprintf("%s = %s, %s, %s\n", m.ID, m.Name, m.Team, m.Position))
	}
	return sb.String()
}

// Write renders the report into the corpus root as report.txt.
func (r *Report) Write(corpusPath string) error {
	path := filepath.Join(corpusPath, ReportFileName)
	if err := os.WriteFile(path, []byte(r.Render()), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// Writer regenerates and writes the run report after each completed page.
// It implements scrape.RunReportWriter.
type Writer struct {
	CorpusPath string
	SchemaPath string
}

// WriteRunReport generates a fresh report over the corpus, stamps it with
// the run metadata, and writes it into the corpus root.
func (w *Writer) WriteRunReport(runStarted time.Time, collected int) error {
	rep, err := Generate(w.CorpusPath, w.SchemaPath)
	if err != nil {
		return err
	}
	rep.RunStarted = runStarted
	rep.Collected = collected
	return rep.Write(w.CorpusPath)
}
