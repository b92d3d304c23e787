package xyz

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	apperrors "whizzcli/internal/errors"
	"whizzcli/internal/whizz"
)

// materialize is the streaming third pass: it re-reads the file, tracks the
// current survey line, accumulates one fixed-size matrix at a time, and
// flushes each completed line to the sink. Beyond the current line's matrix
// it holds no per-record state, so memory stays O(one line).
//
// The pass stops as soon as every inventoried line has been saved; trailing
// file content after that point is deliberately ignored.
func (s *Session) materialize(ctx context.Context, path string, sink whizz.Sink) (int, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open survey file: %w", err)
	}
	defer f.Close()

	var (
		linesSaved int
		warnings   []error

		lineID     string
		expected   int
		rowsFilled int
		matrix     [][]float64
		open       bool

		// one precision-drift warning per channel, not per record
		driftWarned = make([]bool, s.schema.ChannelCount())
	)

	closeLine := func() {
		if open && rowsFilled < expected {
			w := &apperrors.IncompleteLineWarning{
				LineID:   lineID,
				Expected: expected,
				Filled:   rowsFilled,
			}
			warnings = append(warnings, w)
			s.logger.Warn("incomplete survey line skipped",
				slog.String("line_id", lineID),
				slog.Int("expected", expected),
				slog.Int("filled", rowsFilled))
		}
		matrix = nil
		open = false
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if linesSaved == s.inventory.Len() {
			break
		}

		cls := s.classifier.Classify(scanner.Text())
		switch cls.Kind {
		case KindComment, KindMalformed:
			continue

		case KindLineMarker:
			if err := ctx.Err(); err != nil {
				return linesSaved, warnings, err
			}
			closeLine()

			entry, ok := s.inventory.Lookup(cls.LineID)
			if !ok {
				return linesSaved, warnings, &apperrors.InventoryMismatchError{LineID: cls.LineID}
			}

			lineID = cls.LineID
			expected = entry.Fiducials
			rowsFilled = 0
			matrix = newMatrix(expected, s.schema.ChannelCount(), s.missingValue)
			open = true

		case KindDataRecord:
			if !open || rowsFilled >= expected {
				continue
			}

			if len(cls.Fields) != s.schema.ChannelCount() {
				s.parseFailures++
				return linesSaved, warnings, &apperrors.ColumnCountMismatchError{
					LineID:      lineID,
					RecordIndex: rowsFilled,
					Expected:    s.schema.ChannelCount(),
					Actual:      len(cls.Fields),
				}
			}

			row := matrix[rowsFilled]
			for i, field := range cls.Fields {
				if s.classifier.IsDummy(field) {
					row[i] = s.missingValue
					continue
				}
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					s.parseFailures++
					return linesSaved, warnings, &apperrors.NumericParseError{
						LineID:      lineID,
						RecordIndex: rowsFilled,
						FieldIndex:  i,
						Token:       field,
						Err:         err,
					}
				}
				row[i] = v

				if !driftWarned[i] && decimalPrecision(field) > s.schema.Precision(i) {
					driftWarned[i] = true
					s.logger.Warn("record precision exceeds inferred channel precision",
						slog.String("line_id", lineID),
						slog.String("channel", s.schema.Name(i)),
						slog.Int("inferred", s.schema.Precision(i)),
						slog.Int("observed", decimalPrecision(field)))
				}
			}
			rowsFilled++
			s.recordsParsed++

			if rowsFilled == expected {
				if err := sink.WriteChannelData(lineID, matrix, s.schema.Names()); err != nil {
					return linesSaved, warnings, fmt.Errorf("failed to write line %s: %w", lineID, err)
				}
				// ownership transferred; never touch the matrix again
				matrix = nil
				open = false
				linesSaved++
				if s.progress != nil {
					s.progress(lineID, linesSaved, s.inventory.Len())
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return linesSaved, warnings, fmt.Errorf("failed to read survey file: %w", err)
	}

	closeLine()

	return linesSaved, warnings, nil
}

// newMatrix allocates a rows×cols matrix pre-filled with the missing-value
// sentinel, so rows never flushed past a dummy still read back as missing.
func newMatrix(rows, cols int, sentinel float64) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		row := make([]float64, cols)
		for j := range row {
			row[j] = sentinel
		}
		m[i] = row
	}
	return m
}
