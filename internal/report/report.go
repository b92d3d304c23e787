// Package report builds human-readable summaries of a materialized survey
// dataset: structural counts, per-line statistics, flight grouping, and
// distance flown. It reads only the conversion summary and the dataset,
// never the raw survey text.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"whizzcli/internal/whizz"
	"whizzcli/internal/xyz"
)

// Reporter generates survey session reports.
type Reporter struct {
	logger *slog.Logger
	cfg    ReporterConfig
}

// ReporterConfig holds configuration options for the Reporter.
type ReporterConfig struct {
	// XChannel and YChannel name the coordinate channels used for
	// distance-flown statistics.
	XChannel string
	YChannel string
	// MissingValue readings are excluded from all statistics.
	MissingValue float64
	DateFormat   string
}

// NewReporter creates a reporter with the given configuration.
func NewReporter(logger *slog.Logger, cfg ReporterConfig) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.XChannel == "" {
		cfg.XChannel = "X"
	}
	if cfg.YChannel == "" {
		cfg.YChannel = "Y"
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "2006-01-02"
	}
	return &Reporter{logger: logger, cfg: cfg}
}

// LineReport is the per-line section of a session report.
type LineReport struct {
	ID             string  `json:"id"`
	IsTie          bool    `json:"is_tie"`
	Fiducials      int     `json:"fiducials"`
	Flight         int     `json:"flight,omitempty"`
	HasFlight      bool    `json:"has_flight"`
	Date           string  `json:"date,omitempty"`
	DistanceFlown  float64 `json:"distance_flown"`
	SampleInterval float64 `json:"sample_interval"`
}

// SessionReport is a full report over one converted survey file.
type SessionReport struct {
	SourceFile    string           `json:"source_file"`
	HeaderRecords int              `json:"header_records"`
	LineCount     int              `json:"line_count"`
	ChannelCount  int              `json:"channel_count"`
	ChannelNames  []string         `json:"channel_names"`
	DegradedNames bool             `json:"degraded_names"`
	Lines         []LineReport     `json:"lines"`
	Flights       map[int][]string `json:"flights,omitempty"`
	TotalDistance float64          `json:"total_distance"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// Build assembles the report from a conversion summary and the dataset it
// produced.
func (r *Reporter) Build(summary *xyz.Summary, sink *whizz.MemorySink) *SessionReport {
	report := &SessionReport{
		SourceFile:    summary.SourceFile,
		HeaderRecords: summary.HeaderRecords,
		LineCount:     summary.LineCount,
		ChannelCount:  summary.ChannelCount,
		ChannelNames:  summary.ChannelNames,
		DegradedNames: summary.DegradedNames,
		Warnings:      summary.Warnings,
		Flights:       make(map[int][]string),
	}

	xIdx, yIdx := channelIndexes(summary.ChannelNames, r.cfg.XChannel, r.cfg.YChannel)

	for _, entry := range summary.Lines {
		lr := LineReport{
			ID:        entry.ID,
			IsTie:     entry.IsTie,
			Fiducials: entry.Fiducials,
			Flight:    entry.Flight,
			HasFlight: entry.HasFlight,
		}
		if entry.HasDate {
			lr.Date = entry.Date.Format(r.cfg.DateFormat)
		}
		if entry.HasFlight {
			report.Flights[entry.Flight] = append(report.Flights[entry.Flight], entry.ID)
		}

		if line, ok := sink.Line(entry.ID); ok && line.Matrix != nil && xIdx >= 0 && yIdx >= 0 {
			lr.DistanceFlown = r.distanceFlown(line.Matrix, xIdx, yIdx)
			if entry.Fiducials > 1 {
				lr.SampleInterval = lr.DistanceFlown / float64(entry.Fiducials-1)
			}
		}
		report.TotalDistance += lr.DistanceFlown
		report.Lines = append(report.Lines, lr)
	}

	r.logger.Info("session report built",
		slog.String("source_file", report.SourceFile),
		slog.Int("lines", len(report.Lines)),
		slog.Float64("total_distance", report.TotalDistance))

	return report
}

// distanceFlown sums the planar distance between consecutive fiducials,
// skipping segments with a missing coordinate on either end.
func (r *Reporter) distanceFlown(matrix [][]float64, xIdx, yIdx int) float64 {
	total := 0.0
	for i := 1; i < len(matrix); i++ {
		x0, y0 := matrix[i-1][xIdx], matrix[i-1][yIdx]
		x1, y1 := matrix[i][xIdx], matrix[i][yIdx]
		if x0 == r.cfg.MissingValue || y0 == r.cfg.MissingValue ||
			x1 == r.cfg.MissingValue || y1 == r.cfg.MissingValue {
			continue
		}
		total += math.Hypot(x1-x0, y1-y0)
	}
	return total
}

// channelIndexes finds the coordinate channels by name, -1 when absent.
func channelIndexes(names []string, xName, yName string) (int, int) {
	xIdx, yIdx := -1, -1
	for i, name := range names {
		if strings.EqualFold(name, xName) {
			xIdx = i
		}
		if strings.EqualFold(name, yName) {
			yIdx = i
		}
	}
	return xIdx, yIdx
}

// WriteText renders the report as human-readable text.
func (r *SessionReport) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Survey session report: %s\n", r.SourceFile)
	fmt.Fprintf(&b, "  header records: %d\n", r.HeaderRecords)
	fmt.Fprintf(&b, "  survey lines:   %d\n", r.LineCount)
	fmt.Fprintf(&b, "  channels (%d):  %s\n", r.ChannelCount, strings.Join(r.ChannelNames, " "))
	if r.DegradedNames {
		fmt.Fprintf(&b, "  NOTE: channel names are placeholders, no header matched the channel count\n")
	}

	fmt.Fprintf(&b, "\nLines:\n")
	for _, line := range r.Lines {
		kind := "line"
		if line.IsTie {
			kind = "tie "
		}
		fmt.Fprintf(&b, "  %s %-10s fiducials=%-6d", kind, line.ID, line.Fiducials)
		if line.HasFlight {
			fmt.Fprintf(&b, " flight=%d", line.Flight)
		}
		if line.Date != "" {
			fmt.Fprintf(&b, " date=%s", line.Date)
		}
		if line.DistanceFlown > 0 {
			fmt.Fprintf(&b, " distance=%.1f interval=%.2f", line.DistanceFlown, line.SampleInterval)
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(r.Flights) > 0 {
		flights := make([]int, 0, len(r.Flights))
		for flight := range r.Flights {
			flights = append(flights, flight)
		}
		sort.Ints(flights)

		fmt.Fprintf(&b, "\nFlights:\n")
		for _, flight := range flights {
			fmt.Fprintf(&b, "  %d: %s\n", flight, strings.Join(r.Flights[flight], " "))
		}
	}

	if r.TotalDistance > 0 {
		fmt.Fprintf(&b, "\nTotal distance flown: %.1f\n", r.TotalDistance)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(&b, "WARNING: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
