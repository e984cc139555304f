package scrape

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultStatus is recorded when the site shows no injury flag.
	DefaultStatus = "100% Fit"
	// NoData is the sentinel stored for a section that could not be located.
	NoData = "No data"
	// TimeLayout is the ISO-8601 second-precision stamp used for LastScraped.
	TimeLayout = "2006-01-02T15:04:05"
)

// TableData holds the ordered rows of one table section. A nil TableData is
// the sentinel state and marshals as the NoData string.
type TableData [][]string

// PlayerRecord is one harvested player. Fixed fields carry identity and
// bookkeeping; Attributes and Tables carry the dynamic per-section data.
// The JSON form is a single flat object: fixed keys plus one top-level key
// per attribute and per table section, matching the persisted corpus
// layout.
type PlayerRecord struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	UUID        string `validate:"required,uuid4"`
	Position    string `validate:"required"`
	Team        string `validate:"required"`
	Status      string `validate:"required"`
	ImageSrc    string `validate:"omitempty,startswith=http"`
	LastScraped string `validate:"required"`

	Attributes map[string]string
	Tables     map[string]TableData
}

// fixedRecordKeys are the JSON keys reserved for the fixed fields.
var fixedRecordKeys = map[string]bool{
	"ID": true, "Name": true, "UUID": true, "Position": true,
	"Team": true, "Status": true, "Image SRC": true, "Last Scraped": true,
}

// MakeIdentifier derives the stable player identifier from team, position
// and name, in that order, joining with "-" and collapsing internal
// whitespace in each field to "-". The order is load-bearing: records on
// disk are keyed by it.
func MakeIdentifier(team, position, name string) string {
	parts := []string{team, position, name}
	for i, p := range parts {
		parts[i] = strings.Join(strings.Fields(p), "-")
	}
	return strings.Join(parts, "-")
}

// FieldCount returns the number of top-level keys the record marshals to.
// The verification report uses it as a proxy for "fully populated".
func (r *PlayerRecord) FieldCount() int {
	return len(fixedRecordKeys) + len(r.Attributes) + len(r.Tables)
}

// Validate checks the record is complete enough to persist.
func (r *PlayerRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// MarshalJSON flattens the record into the single-object corpus layout.
func (r *PlayerRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, r.FieldCount())
	flat["ID"] = r.ID
	flat["Name"] = r.Name
	flat["UUID"] = r.UUID
	flat["Position"] = r.Position
	flat["Team"] = r.Team
	flat["Status"] = r.Status
	flat["Image SRC"] = r.ImageSrc
	flat["Last Scraped"] = r.LastScraped
	for k, v := range r.Attributes {
		flat[k] = v
	}
	for k, rows := range r.Tables {
		if rows == nil {
			flat[k] = NoData
			continue
		}
		flat[k] = rows
	}
	return json.MarshalIndent(flat, "", "  ")
}

// UnmarshalJSON rebuilds a record from the flat corpus layout. Array values
// become table sections, the NoData sentinel becomes a nil table section,
// and remaining string values become attributes.
func (r *PlayerRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("failed to parse record: %w", err)
	}

	take := func(key string, dst *string) error {
		raw, ok := flat[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}
	for key, dst := range map[string]*string{
		"ID": &r.ID, "Name": &r.Name, "UUID": &r.UUID, "Position": &r.Position,
		"Team": &r.Team, "Status": &r.Status, "Image SRC": &r.ImageSrc,
		"Last Scraped": &r.LastScraped,
	} {
		if err := take(key, dst); err != nil {
			return fmt.Errorf("failed to parse record field %s: %w", key, err)
		}
	}

	r.Attributes = make(map[string]string)
	r.Tables = make(map[string]TableData)
	for key, raw := range flat {
		if fixedRecordKeys[key] {
			continue
		}
		var rows TableData
		if err := json.Unmarshal(raw, &rows); err == nil {
			r.Tables[key] = rows
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("record key %s has unsupported value: %w", key, err)
		}
		if s == NoData {
			r.Tables[key] = nil
			continue
		}
		r.Attributes[key] = s
	}
	return nil
}
