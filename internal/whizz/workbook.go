package whizz

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// schemaSheet holds dataset-level attributes and the line index. It is the
// first sheet of the workbook so the file is self-describing.
const schemaSheet = "_schema"

// WorkbookSink materializes a Whizz dataset as an Excel workbook: one sheet
// per survey line (channels as columns, fiducials as rows) and a schema
// sheet with attributes and the line inventory. Cell number formats follow
// each channel's inferred decimal precision.
type WorkbookSink struct {
	path    string
	file    *excelize.File
	lines   map[string]*workbookLine
	order   []string
	taken   map[string]bool // sheet names already in use
	attrRow int
	styles  map[int]int // precision -> style id
	closed  bool
}

type workbookLine struct {
	sheet     string
	fiducials int
	channels  []MemoryChannel
}

// NewWorkbookSink creates an empty workbook dataset that will be written to
// the given path on Close.
func NewWorkbookSink(path string) (*WorkbookSink, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(schemaSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SetSheetRow(schemaSheet, "A1", &[]any{"attribute", "value"}); err != nil {
		return nil, fmt.Errorf("failed to write schema header: %w", err)
	}

	return &WorkbookSink{
		path:    path,
		file:    f,
		lines:   make(map[string]*workbookLine),
		taken:   map[string]bool{schemaSheet: true},
		attrRow: 2,
		styles:  make(map[int]int),
	}, nil
}

// SetAttr stores a schema-level attribute on the schema sheet.
func (s *WorkbookSink) SetAttr(name string, value any) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	cell, err := excelize.CoordinatesToCellName(1, s.attrRow)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(schemaSheet, cell, &[]any{name, value}); err != nil {
		return fmt.Errorf("failed to write attribute %s: %w", name, err)
	}
	s.attrRow++
	return nil
}

// CreateLine registers a survey line and creates its sheet.
func (s *WorkbookSink) CreateLine(lineID string, fiducials int) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	if _, exists := s.lines[lineID]; exists {
		return fmt.Errorf("line %s already exists", lineID)
	}
	sheet := s.claimSheetName(lineID)
	if _, err := s.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet for line %s: %w", lineID, err)
	}
	s.lines[lineID] = &workbookLine{sheet: sheet, fiducials: fiducials}
	s.order = append(s.order, lineID)
	return nil
}

// CreateChannel registers a channel under an existing line and writes its
// header cell.
func (s *WorkbookSink) CreateChannel(lineID, name string, precision int) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	line, ok := s.lines[lineID]
	if !ok {
		return fmt.Errorf("line %s does not exist", lineID)
	}
	col := len(line.channels) + 1
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	if err := s.file.SetCellValue(line.sheet, cell, name); err != nil {
		return fmt.Errorf("failed to write channel header %s: %w", name, err)
	}
	line.channels = append(line.channels, MemoryChannel{Name: name, Precision: precision})
	return nil
}

// WriteChannelData writes the complete matrix for a line, one sheet row per
// fiducial, applying the precision-derived number format per column.
func (s *WorkbookSink) WriteChannelData(lineID string, matrix [][]float64, channelNames []string) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	line, ok := s.lines[lineID]
	if !ok {
		return fmt.Errorf("line %s does not exist", lineID)
	}
	if len(matrix) != line.fiducials {
		return fmt.Errorf("line %s: matrix has %d rows, expected %d fiducials", lineID, len(matrix), line.fiducials)
	}
	if len(channelNames) != len(line.channels) {
		return fmt.Errorf("line %s: %d channel names for %d registered channels", lineID, len(channelNames), len(line.channels))
	}

	for i, row := range matrix {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := s.file.SetSheetRow(line.sheet, cell, &values); err != nil {
			return fmt.Errorf("line %s: failed to write row %d: %w", lineID, i, err)
		}
	}

	for j, ch := range line.channels {
		styleID, err := s.styleFor(ch.Precision)
		if err != nil {
			return err
		}
		top, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(j+1, line.fiducials+1)
		if err != nil {
			return err
		}
		if err := s.file.SetCellStyle(line.sheet, top, bottom, styleID); err != nil {
			return fmt.Errorf("line %s: failed to style channel %s: %w", lineID, ch.Name, err)
		}
	}

	return nil
}

// Close writes the channel precisions and the line index to the schema
// sheet and saves the workbook.
func (s *WorkbookSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	row := s.attrRow + 1
	writeRow := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := s.file.SetSheetRow(schemaSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write schema row %d: %w", row, err)
		}
		row++
		return nil
	}

	// channel precisions are schema-wide; every line carries the same set
	if len(s.order) > 0 {
		if err := writeRow([]any{"channel", "precision"}); err != nil {
			return err
		}
		for _, ch := range s.lines[s.order[0]].channels {
			if err := writeRow([]any{ch.Name, ch.Precision}); err != nil {
				return err
			}
		}
	}

	if err := writeRow([]any{"line", "fiducials", "sheet"}); err != nil {
		return err
	}
	for _, id := range s.order {
		line := s.lines[id]
		if err := writeRow([]any{id, line.fiducials, line.sheet}); err != nil {
			return err
		}
	}

	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return s.file.Close()
}

// styleFor returns (creating on first use) the cell style for a precision.
func (s *WorkbookSink) styleFor(precision int) (int, error) {
	if id, ok := s.styles[precision]; ok {
		return id, nil
	}
	numFmt := "0"
	if precision > 0 {
		numFmt = "0." + strings.Repeat("0", precision)
	}
	id, err := s.file.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return 0, fmt.Errorf("failed to create style for precision %d: %w", precision, err)
	}
	s.styles[precision] = id
	return id, nil
}

// claimSheetName reserves a sheet name for a line, suffixing it when the
// sanitized name is already in use (sanitization and truncation can map
// distinct line identifiers to the same name).
func (s *WorkbookSink) claimSheetName(lineID string) string {
	base := sheetNameFor(lineID)
	name := base
	for i := 2; s.taken[name]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		name = trimmed + suffix
	}
	s.taken[name] = true
	return name
}

// sheetNameFor maps a line identifier to a legal sheet name. Excel sheet
// names are capped at 31 characters and cannot contain []:*?/\ characters.
func sheetNameFor(lineID string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, lineID)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
