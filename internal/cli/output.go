// Package cli provides output formatting for the textlens command.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/hyperjump/textlens/internal/models"
	"github.com/hyperjump/textlens/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// maxFieldWidth bounds display fields in text output.
const maxFieldWidth = 120

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type neighborsOutput struct {
	Reference int               `json:"reference"`
	Neighbors []models.Neighbor `json:"neighbors"`
}

// WriteNeighbors writes a similarity ranking for refIndex. fields selects the
// display fields printed in text output, in order.
func WriteNeighbors(w io.Writer, refIndex int, neighbors []models.Neighbor, fields []string, format OutputFormat) error {
	if format == OutputJSON {
		if neighbors == nil {
			neighbors = []models.Neighbor{}
		}
		return writeJSON(w, neighborsOutput{Reference: refIndex, Neighbors: neighbors})
	}
	fmt.Fprintf(w, "\n%d documents ranked against row %d\n\n", len(neighbors), refIndex)
	for _, n := range neighbors {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Row: %d | Score: %.4f\n", n.Rank, n.Index, n.Score)
		for _, f := range fields {
			v, ok := n.Fields[f]
			if !ok || v == nil {
				continue
			}
			fmt.Fprintf(w, "%s: %s\n", f, utils.Truncate(fmt.Sprint(v), maxFieldWidth))
		}
	}
	if len(neighbors) > 0 {
		fmt.Fprintln(w)
	}
	return nil
}

type termsOutput struct {
	Index int                 `json:"index"`
	Terms []models.TermWeight `json:"terms"`
}

// WriteTopTerms writes the top terms of one row.
func WriteTopTerms(w io.Writer, index int, terms []models.TermWeight, format OutputFormat) error {
	if format == OutputJSON {
		if terms == nil {
			terms = []models.TermWeight{}
		}
		return writeJSON(w, termsOutput{Index: index, Terms: terms})
	}
	fmt.Fprintf(w, "Row %d:", index)
	if len(terms) == 0 {
		fmt.Fprintln(w, " (no terms)")
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, t := range terms {
		fmt.Fprintf(tw, "  %d.\t%s\t%.4f\n", i+1, t.Term, t.Weight)
	}
	return tw.Flush()
}

// WriteTable writes the selected columns of table, or all columns when columns is
// empty. JSON output is one object per row (NDJSON) with an "index" key.
func WriteTable(w io.Writer, table *models.Table, columns []string, format OutputFormat) error {
	if len(columns) == 0 {
		columns = table.Columns()
	}
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		for _, row := range table.Rows() {
			obj := make(map[string]any, len(columns)+1)
			obj["index"] = row.Index
			for _, c := range columns {
				obj[c] = row.Values[c]
			}
			if err := enc.Encode(obj); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "index\t%s\n", strings.Join(columns, "\t"))
	for _, row := range table.Rows() {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if v := row.Values[c]; v != nil {
				cells[i] = utils.Truncate(strings.ReplaceAll(fmt.Sprint(v), "\n", " "), 60)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\n", row.Index, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteRuns lists stored runs.
func WriteRuns(w io.Writer, runs []*models.Run, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []*models.Run{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tROWS\tCOLUMN\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Rows, r.TextColumn, r.Input)
	}
	return tw.Flush()
}
