package whizz

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads a materialized workbook dataset back into memory. The
// schema sheet drives the load: the line index says which sheets exist and
// how many fiducials each holds, so trailing rows or foreign sheets never
// leak into the dataset.
func LoadWorkbook(path string) (*MemorySink, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	schemaRows, err := f.GetRows(schemaSheet)
	if err != nil {
		return nil, fmt.Errorf("dataset has no schema sheet: %w", err)
	}

	sink := NewMemorySink()

	// three sections in order, each with its own header row: attributes,
	// channel precisions, and the line index
	const (
		sectionAttrs = iota
		sectionChannels
		sectionIndex
	)
	section := sectionAttrs
	type indexEntry struct {
		id        string
		sheet     string
		fiducials int
	}
	var index []indexEntry
	precisions := make(map[string]int)
	for _, row := range schemaRows {
		if len(row) < 2 {
			continue
		}
		switch {
		case row[0] == "attribute" && row[1] == "value":
			continue
		case row[0] == "channel" && row[1] == "precision":
			section = sectionChannels
		case row[0] == "line" && row[1] == "fiducials":
			section = sectionIndex
		case section == sectionChannels:
			p, err := strconv.Atoi(row[1])
			if err != nil {
				return nil, fmt.Errorf("invalid precision for channel %s: %w", row[0], err)
			}
			precisions[row[0]] = p
		case section == sectionIndex:
			n, err := strconv.Atoi(row[1])
			if err != nil {
				return nil, fmt.Errorf("invalid fiducial count for line %s: %w", row[0], err)
			}
			entry := indexEntry{id: row[0], fiducials: n, sheet: sheetNameFor(row[0])}
			if len(row) > 2 && row[2] != "" {
				entry.sheet = row[2]
			}
			index = append(index, entry)
		default:
			if err := sink.SetAttr(row[0], row[1]); err != nil {
				return nil, err
			}
		}
	}

	for _, entry := range index {
		if err := sink.CreateLine(entry.id, entry.fiducials); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(entry.sheet)
		if err != nil {
			return nil, fmt.Errorf("line %s has no sheet: %w", entry.id, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("line %s sheet is empty", entry.id)
		}

		names := rows[0]
		for _, name := range names {
			if err := sink.CreateChannel(entry.id, name, precisions[name]); err != nil {
				return nil, err
			}
		}

		matrix := make([][]float64, 0, entry.fiducials)
		for i := 1; i < len(rows) && len(matrix) < entry.fiducials; i++ {
			row := make([]float64, len(names))
			for j := range names {
				if j >= len(rows[i]) || rows[i][j] == "" {
					continue
				}
				v, err := strconv.ParseFloat(rows[i][j], 64)
				if err != nil {
					return nil, fmt.Errorf("line %s row %d: invalid value %q: %w", entry.id, i, rows[i][j], err)
				}
				row[j] = v
			}
			matrix = append(matrix, row)
		}
		if len(matrix) != entry.fiducials {
			return nil, fmt.Errorf("line %s: sheet has %d data rows, index says %d", entry.id, len(matrix), entry.fiducials)
		}

		if err := sink.WriteChannelData(entry.id, matrix, names); err != nil {
			return nil, err
		}
	}

	return sink, nil
}
