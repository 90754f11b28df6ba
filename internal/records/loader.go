// Package records reads newline-delimited JSON exports into a flattened table.
package records

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hyperjump/textlens/internal/apperr"
	"github.com/hyperjump/textlens/internal/models"
)

// DefaultSeparator joins parent and child keys of nested objects.
const DefaultSeparator = "_"

// ReservedKeys are exporter-internal keys removed from every record before flattening.
var ReservedKeys = []string{"__reference", "__location", "_id", "can_post"}

// Options controls how records are flattened.
type Options struct {
	// Separator joins nested keys ("from" + "name" -> "from_name"). Empty means DefaultSeparator.
	Separator string
	// DropKeys are top-level keys removed before flattening. Nil means ReservedKeys.
	DropKeys []string
	Logger   *zap.Logger
}

func (o Options) separator() string {
	if o.Separator == "" {
		return DefaultSeparator
	}
	return o.Separator
}

func (o Options) dropKeys() []string {
	if o.DropKeys == nil {
		return ReservedKeys
	}
	return o.DropKeys
}

// Load reads the file at path. See Read.
func Load(path string, opts Options) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read decodes one JSON object per line and returns the flattened table.
// Blank lines are ignored; any other line that is not a JSON object, or whose
// flattened keys collide ("a_b" next to {"a":{"b":...}}), aborts the read with an
// *apperr.InputFormatError carrying the 1-based line number.
// Row indices count records, not lines.
func Read(r io.Reader, opts Options) (*models.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	br := bufio.NewReader(r)
	sep := opts.separator()
	drop := opts.dropKeys()

	var (
		columns []string
		seen    = make(map[string]struct{})
		rows    []models.Row
		lineNo  int
	)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				record, err := decodeRecord(line)
				if err != nil {
					return nil, &apperr.InputFormatError{Line: lineNo, Err: err}
				}
				for _, k := range drop {
					delete(record, k)
				}
				values := make(map[string]any, len(record))
				for _, kv := range flatten(record, sep) {
					if _, dup := values[kv.key]; dup {
						return nil, &apperr.InputFormatError{
							Line: lineNo,
							Err:  fmt.Errorf("flattened key %q is produced by more than one field", kv.key),
						}
					}
					values[kv.key] = kv.value
					if _, ok := seen[kv.key]; !ok {
						seen[kv.key] = struct{}{}
						columns = append(columns, kv.key)
					}
				}
				rows = append(rows, models.Row{Index: len(rows), Values: values})
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read input: %w", readErr)
		}
	}

	logger.Debug("records loaded",
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
		zap.Int("lines", lineNo),
	)
	return models.NewTable(columns, rows), nil
}

func decodeRecord(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("record is not a JSON object")
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return record, nil
}
