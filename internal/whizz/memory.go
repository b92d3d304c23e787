package whizz

import (
	"fmt"
	"sort"
)

// MemoryLine holds one materialized survey line.
type MemoryLine struct {
	ID        string
	Fiducials int
	Channels  []MemoryChannel
	Matrix    [][]float64
}

// MemoryChannel describes one registered channel of a line.
type MemoryChannel struct {
	Name      string
	Precision int
}

// MemorySink is an in-memory Sink used by tests and by the reporting
// collaborator, which re-reads materialized data without touching disk.
type MemorySink struct {
	attrs  map[string]any
	lines  map[string]*MemoryLine
	order  []string
	closed bool
}

// NewMemorySink creates an empty in-memory dataset.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		attrs: make(map[string]any),
		lines: make(map[string]*MemoryLine),
	}
}

// SetAttr stores a schema-level attribute.
func (s *MemorySink) SetAttr(name string, value any) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	s.attrs[name] = value
	return nil
}

// Attr returns a stored attribute, or nil when absent.
func (s *MemorySink) Attr(name string) any {
	return s.attrs[name]
}

// CreateLine registers a survey line and its fiducial count.
func (s *MemorySink) CreateLine(lineID string, fiducials int) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	if _, exists := s.lines[lineID]; exists {
		return fmt.Errorf("line %s already exists", lineID)
	}
	s.lines[lineID] = &MemoryLine{ID: lineID, Fiducials: fiducials}
	s.order = append(s.order, lineID)
	return nil
}

// CreateChannel registers a channel under an existing line.
func (s *MemorySink) CreateChannel(lineID, name string, precision int) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	line, ok := s.lines[lineID]
	if !ok {
		return fmt.Errorf("line %s does not exist", lineID)
	}
	line.Channels = append(line.Channels, MemoryChannel{Name: name, Precision: precision})
	return nil
}

// WriteChannelData stores the complete matrix for a line.
func (s *MemorySink) WriteChannelData(lineID string, matrix [][]float64, channelNames []string) error {
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	line, ok := s.lines[lineID]
	if !ok {
		return fmt.Errorf("line %s does not exist", lineID)
	}
	if len(matrix) != line.Fiducials {
		return fmt.Errorf("line %s: matrix has %d rows, expected %d fiducials", lineID, len(matrix), line.Fiducials)
	}
	if len(channelNames) != len(line.Channels) {
		return fmt.Errorf("line %s: %d channel names for %d registered channels", lineID, len(channelNames), len(line.Channels))
	}
	line.Matrix = matrix
	return nil
}

// Close marks the sink closed; further writes fail.
func (s *MemorySink) Close() error {
	s.closed = true
	return nil
}

// Line returns the materialized line with the given identifier.
func (s *MemorySink) Line(lineID string) (*MemoryLine, bool) {
	line, ok := s.lines[lineID]
	return line, ok
}

// LineIDs returns line identifiers in creation order.
func (s *MemorySink) LineIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// AttrNames returns the stored attribute names, sorted.
func (s *MemorySink) AttrNames() []string {
	names := make([]string, 0, len(s.attrs))
	for name := range s.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
