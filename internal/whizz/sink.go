// Package whizz provides the hierarchical dataset sink that survey
// conversions write into. A dataset is organized by survey line and data
// channel: every line holds one numeric matrix with a row per fiducial and a
// column per channel, plus schema-level attributes describing the whole file.
package whizz

// Attribute names written by the conversion session.
const (
	AttrMissingValue       = "missing_value"
	AttrLineNumberingStyle = "line_numbering_style"
	AttrSourceFile         = "source_file"
)

// Sink is the write contract of a Whizz dataset. The schema (lines and
// channels) is created up front; matrices arrive afterwards, one complete
// line at a time. A matrix handed to WriteChannelData is owned by the sink
// from that point on and is never mutated by the caller afterwards.
type Sink interface {
	// SetAttr stores a schema-level attribute.
	SetAttr(name string, value any) error

	// CreateLine registers a survey line and its fiducial count.
	CreateLine(lineID string, fiducials int) error

	// CreateChannel registers a named channel with its decimal precision
	// under an existing line.
	CreateChannel(lineID, name string, precision int) error

	// WriteChannelData stores the complete matrix for a line. Rows are
	// fiducials, columns follow the channel name order given.
	WriteChannelData(lineID string, matrix [][]float64, channelNames []string) error

	// Close flushes and releases the underlying storage.
	Close() error
}
