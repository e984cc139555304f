package scrape

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Identity is the who-is-this triple plus the listing variant of the name.
// The catalog listing abbreviates names, and the identifier is derived from
// the listing text so that the staleness gate can key records before the
// detail view is ever opened. Name carries the full text from the detail
// header and is what the record displays.
type Identity struct {
	Name       string
	ListedName string
	Position   string
	Team       string
}

// identifier derives the record key. The listing name wins when present so
// the assembled identifier matches the one the gate checked.
func (id Identity) identifier() string {
	name := id.ListedName
	if name == "" {
		name = id.Name
	}
	return MakeIdentifier(id.Team, id.Position, name)
}

// Assembler merges identity, status, image reference and section data into
// one complete PlayerRecord. Every assembled record carries all fixed
// fields and one entry per declared section even when a section failed to
// resolve, so the record is always writable.
type Assembler struct {
	Sections []SectionSpec
}

// Assemble builds the record for one player. status and imageSrc pass
// through verbatim; an empty status means the collaborator found no injury
// flag and the default is recorded. Section lookups that fail degrade to
// the NoData sentinel and never abort the player.
func (a *Assembler) Assemble(ctx context.Context, src SectionSource, id Identity, status, imageSrc string, now time.Time) (*PlayerRecord, error) {
	if status == "" {
		status = DefaultStatus
	}
	rec := &PlayerRecord{
		ID:          id.identifier(),
		Name:        id.Name,
		UUID:        uuid.NewString(),
		Position:    id.Position,
		Team:        id.Team,
		Status:      status,
		ImageSrc:    imageSrc,
		LastScraped: now.Format(TimeLayout),
		Attributes:  make(map[string]string),
		Tables:      make(map[string]TableData),
	}

	for _, spec := range a.Sections {
		tokens, err := src.SectionTokens(ctx, spec)
		if err != nil {
			if !IsNotFound(err) {
				log.Printf("[SCRAPE] section %s unresolvable for %s: %v", spec.Name, rec.ID, err)
			}
			a.recordSentinel(rec, spec)
			continue
		}
		switch spec.Kind {
		case AttributeSection:
			for k, v := range ReduceAttributes(spec.Name, tokens) {
				rec.Attributes[k] = v
			}
		case TableSection:
			rows, err := BuildTable(tokens)
			if err != nil {
				log.Printf("[SCRAPE] section %s for %s: %v", spec.Name, rec.ID, err)
				rec.Tables[spec.Name] = nil
				continue
			}
			rec.Tables[spec.Name] = TableData(rows)
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// recordSentinel marks a section that could not be located. Table sections
// keep their key with a nil (NoData) value; attribute sections would
// normally scatter keys into the record, so the sentinel is stored under
// the section name itself.
func (a *Assembler) recordSentinel(rec *PlayerRecord, spec SectionSpec) {
	if spec.Kind == TableSection {
		rec.Tables[spec.Name] = nil
		return
	}
	rec.Attributes[spec.Name] = NoData
}
