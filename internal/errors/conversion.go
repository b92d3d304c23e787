package errors

import (
	"errors"
	"fmt"
)

// Is re-exports errors.Is so callers only import this package.
func Is(err, target error) bool { return errors.Is(err, target) }

// As re-exports errors.As so callers only import this package.
func As(err error, target any) bool { return errors.As(err, target) }

// SchemaInferenceError reports that no clean data record was found, so the
// channel count and precisions could not be established. Fatal for the run.
type SchemaInferenceError struct {
	Path string
}

func (e *SchemaInferenceError) Error() string {
	return fmt.Sprintf("no usable data record found in %s: channel count could not be inferred", e.Path)
}

// ChannelNameNotFoundError reports that no header line tokenized to the
// inferred channel count. Soft failure: the run continues with placeholder
// names, but the condition must be surfaced to the caller.
type ChannelNameNotFoundError struct {
	Path         string
	ChannelCount int
	HeaderLines  int
}

func (e *ChannelNameNotFoundError) Error() string {
	return fmt.Sprintf("no header line in %s has %d tokens (searched %d header records): channel names unresolved",
		e.Path, e.ChannelCount, e.HeaderLines)
}

// ColumnCountMismatchError reports a data record whose field count disagrees
// with the inferred channel count. Fatal: aborts the remaining conversion.
type ColumnCountMismatchError struct {
	LineID      string
	RecordIndex int
	Expected    int
	Actual      int
}

func (e *ColumnCountMismatchError) Error() string {
	return fmt.Sprintf("line %s record %d: expected %d fields, got %d",
		e.LineID, e.RecordIndex, e.Expected, e.Actual)
}

// NumericParseError reports a non-dummy token that is not a valid number.
type NumericParseError struct {
	LineID      string
	RecordIndex int
	FieldIndex  int
	Token       string
	Err         error
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("line %s record %d field %d: cannot parse %q as a number",
		e.LineID, e.RecordIndex, e.FieldIndex, e.Token)
}

func (e *NumericParseError) Unwrap() error { return e.Err }

// InventoryMismatchError reports disagreement between the line inventory and
// either the structural scan or the data stream.
type InventoryMismatchError struct {
	LineID    string // set when an unknown line marker was encountered
	Expected  int    // line count from the structural scan
	Inventory int    // lines actually inventoried
}

func (e *InventoryMismatchError) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("line %s appears in the data stream but not in the line inventory", e.LineID)
	}
	return fmt.Sprintf("line inventory has %d entries, structural scan counted %d lines",
		e.Inventory, e.Expected)
}

// IncompleteLineWarning reports a line whose matrix was not fully filled
// before the next marker or EOF. Non-fatal: the line is skipped and
// conversion continues.
type IncompleteLineWarning struct {
	LineID   string
	Expected int
	Filled   int
}

func (e *IncompleteLineWarning) Error() string {
	return fmt.Sprintf("line %s incomplete: %d of %d fiducials filled",
		e.LineID, e.Filled, e.Expected)
}
