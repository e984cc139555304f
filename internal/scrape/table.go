package scrape

import "fmt"

// BuildTable reconstructs a 2-D table from an ordered token stream in a
// single left-to-right pass. A RowStart token opens a new row, a Cell token
// appends to the row opened most recently, and every other token is
// ignored. An empty stream yields an empty table. A Cell token seen before
// any RowStart violates the ordering invariant and returns a
// MalformedTableError.
func BuildTable(tokens []Token) ([][]string, error) {
	rows := [][]string{}
	for i, tok := range tokens {
		switch tok.Kind {
		case TokenRowStart:
			rows = append(rows, []string{})
		case TokenCell:
			if len(rows) == 0 {
				return nil, &MalformedTableError{
					Message: fmt.Sprintf("cell token at position %d before any row marker", i),
				}
			}
			rows[len(rows)-1] = append(rows[len(rows)-1], tok.Text)
		}
	}
	return rows, nil
}
