package crossref

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

var matchColumns = []string{
	"left_row", "left_name", "left_email",
	"match", "score",
	"right_row", "right_name", "right_email",
}

// WriteCSV writes matches as a flat CSV report
func WriteCSV(w io.Writer, matches []Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matchColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, m := range matches {
		row := []string{
			strconv.Itoa(m.Left.Row), m.Left.Name, m.Left.Email,
			string(m.Kind), strconv.FormatFloat(m.Score, 'f', 4, 64),
			"", "", "",
		}
		if m.Right != nil {
			row[5] = strconv.Itoa(m.Right.Row)
			row[6] = m.Right.Name
			row[7] = m.Right.Email
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes matches as an indented JSON array
func WriteJSON(w io.Writer, matches []Match) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if matches == nil {
		matches = []Match{}
	}
	if err := enc.Encode(matches); err != nil {
		return fmt.Errorf("failed to encode matches: %w", err)
	}
	return nil
}
