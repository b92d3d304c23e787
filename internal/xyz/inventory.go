package xyz

import (
	"bufio"
	"fmt"
	"os"
	"time"

	apperrors "whizzcli/internal/errors"
)

// LineEntry is one survey line of the inventory: its identifier and the
// number of fiducials (data records) belonging to it, in file order.
// Flight and Date carry the most recent structured annotations seen before
// the line's marker; they are consumed by reporting, not by the writer.
type LineEntry struct {
	ID        string
	IsTie     bool
	Fiducials int
	Flight    int
	HasFlight bool
	Date      time.Time
	HasDate   bool
}

// Inventory is the ordered set of survey lines discovered in a file.
// Insertion order is file order; lookup by identifier is O(1).
type Inventory struct {
	entries []LineEntry
	index   map[string]int
}

// Len returns the number of inventoried lines.
func (inv *Inventory) Len() int { return len(inv.entries) }

// Entries returns the inventory in file order.
func (inv *Inventory) Entries() []LineEntry { return inv.entries }

// Lookup returns the entry for a line identifier.
func (inv *Inventory) Lookup(lineID string) (LineEntry, bool) {
	i, ok := inv.index[lineID]
	if !ok {
		return LineEntry{}, false
	}
	return inv.entries[i], true
}

func (inv *Inventory) append(e LineEntry) {
	inv.index[e.ID] = len(inv.entries)
	inv.entries = append(inv.entries, e)
}

// buildInventory is the second pass: it records, per survey line, the
// identifier and the number of data records between its marker and the
// next marker or EOF. Dummy-bearing records count like any other.
func (s *Session) buildInventory(path string, expectedLines int) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey file: %w", err)
	}
	defer f.Close()

	inv := &Inventory{index: make(map[string]int)}

	var (
		current   LineEntry
		open      bool
		flight    int
		hasFlight bool
		date      time.Time
		hasDate   bool
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		cls := s.classifier.Classify(scanner.Text())
		switch cls.Kind {
		case KindLineMarker:
			if open {
				inv.append(current)
			}
			current = LineEntry{
				ID:        cls.LineID,
				IsTie:     cls.IsTie,
				Flight:    flight,
				HasFlight: hasFlight,
				Date:      date,
				HasDate:   hasDate,
			}
			open = true
		case KindDataRecord:
			if open {
				current.Fiducials++
			}
		case KindComment:
			if a := cls.Annotation; a != nil {
				if a.IsFlight {
					flight = a.Flight
					hasFlight = true
				}
				if a.IsDate {
					date = a.Date
					hasDate = true
				}
			}
		case KindMalformed:
			// skippable
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}

	if open {
		inv.append(current)
	}

	if inv.Len() != expectedLines {
		return nil, &apperrors.InventoryMismatchError{
			Expected:  expectedLines,
			Inventory: inv.Len(),
		}
	}

	return inv, nil
}
