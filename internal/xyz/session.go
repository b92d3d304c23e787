// Package xyz implements the XYZ→Whizz ingestion pipeline: structural
// discovery of a line-oriented survey text file, channel-name resolution,
// per-line record counting, and the streaming conversion pass that writes
// numeric records into a Whizz dataset sink.
package xyz

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"whizzcli/internal/config"
	"whizzcli/internal/infrastructure"
	"whizzcli/internal/whizz"
)

// ChannelSchema is the ordered channel list of one survey file together
// with each channel's inferred decimal precision. It is built once per
// conversion and immutable afterwards.
type ChannelSchema struct {
	names      []string
	precisions []int
}

// ChannelCount returns the number of channels.
func (c *ChannelSchema) ChannelCount() int { return len(c.names) }

// Name returns the i-th channel name.
func (c *ChannelSchema) Name(i int) string { return c.names[i] }

// Precision returns the i-th channel's decimal precision.
func (c *ChannelSchema) Precision(i int) int { return c.precisions[i] }

// Names returns the channel names in order.
func (c *ChannelSchema) Names() []string { return c.names }

// Precisions returns the per-channel decimal precisions in order.
func (c *ChannelSchema) Precisions() []int { return c.precisions }

// Session is one XYZ→Whizz conversion. It owns the inferred schema, the
// line inventory, the missing-value sentinel, and the running counters, and
// is used serially across the three passes. A Session is not reused.
type Session struct {
	cfg        config.ConversionConfig
	logger     *slog.Logger
	metrics    *infrastructure.ConversionMetrics
	progress   ProgressFunc
	classifier Classifier

	schema       *ChannelSchema
	inventory    *Inventory
	missingValue float64

	recordsParsed int
	parseFailures int
}

// NewSession creates a conversion session from the conversion configuration.
// The missing-value sentinel is used exactly as configured; zero is a legal
// sentinel, the -1e32 convention comes from the configuration defaults.
func NewSession(cfg config.ConversionConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommentMarker == "" {
		cfg.CommentMarker = "/"
	}
	if cfg.DummyMarker == "" {
		cfg.DummyMarker = "*"
	}
	return &Session{
		cfg:          cfg,
		logger:       logger,
		classifier:   NewClassifier(cfg.CommentMarker[0], cfg.DummyMarker),
		missingValue: cfg.MissingValue,
	}
}

// SetMetrics attaches conversion metrics instruments. Optional; a session
// without metrics records nothing.
func (s *Session) SetMetrics(m *infrastructure.ConversionMetrics) { s.metrics = m }

// ProgressFunc is called after each survey line is flushed to the sink.
type ProgressFunc func(lineID string, linesSaved, linesTotal int)

// SetProgress attaches a per-line progress callback. Optional; the callback
// runs on the conversion goroutine and must not block.
func (s *Session) SetProgress(fn ProgressFunc) { s.progress = fn }

// Summary is what a conversion reports back: everything the reporting
// collaborator needs without re-reading the source text.
type Summary struct {
	SourceFile    string      `json:"source_file"`
	HeaderRecords int         `json:"header_records"`
	LineCount     int         `json:"line_count"`
	ChannelCount  int         `json:"channel_count"`
	ChannelNames  []string    `json:"channel_names"`
	Precisions    []int       `json:"precisions"`
	DegradedNames bool        `json:"degraded_names"`
	Lines         []LineEntry `json:"lines"`
	LinesSaved    int         `json:"lines_saved"`
	Warnings      []string    `json:"warnings,omitempty"`
}

// Convert runs the full ingestion of one survey file into the sink.
//
// Passes 1 and 2 (structure, names, inventory) are pure analysis; their
// failures abort before anything is written. The sink schema is then
// created up front, and pass 3 streams the matrices in. A pass-3 failure
// returns the partial Summary alongside the error: lines already handed to
// the sink stay written, conversion is not transactional across lines.
func (s *Session) Convert(ctx context.Context, path string, sink whizz.Sink) (*Summary, error) {
	start := time.Now()

	scan, err := s.scanStructure(path)
	if err != nil {
		return nil, err
	}

	names, nameErr := s.resolveChannelNames(path, scan.HeaderRecords, scan.ChannelCount)
	if nameErr != nil {
		// soft failure: continue with placeholder names, surface it in
		// the summary warnings
		s.logger.Warn("continuing with degraded channel names", slog.String("error", nameErr.Error()))
	}
	s.schema = &ChannelSchema{names: names, precisions: scan.Precisions}

	inv, err := s.buildInventory(path, scan.LineCount)
	if err != nil {
		return nil, err
	}
	s.inventory = inv

	summary := &Summary{
		SourceFile:    filepath.Base(path),
		HeaderRecords: scan.HeaderRecords,
		LineCount:     scan.LineCount,
		ChannelCount:  scan.ChannelCount,
		ChannelNames:  names,
		Precisions:    scan.Precisions,
		DegradedNames: nameErr != nil,
		Lines:         inv.Entries(),
	}
	if nameErr != nil {
		summary.Warnings = append(summary.Warnings, nameErr.Error())
	}

	if err := s.configureSink(path, sink); err != nil {
		return nil, err
	}

	linesSaved, warnings, err := s.materialize(ctx, path, sink)
	summary.LinesSaved = linesSaved
	for _, w := range warnings {
		summary.Warnings = append(summary.Warnings, w.Error())
	}

	if s.metrics != nil {
		s.metrics.RecordConversion(ctx, start, linesSaved, err == nil)
		s.metrics.RecordRecords(ctx, s.recordsParsed, s.parseFailures)
	}

	if err != nil {
		s.logger.Error("conversion aborted",
			slog.String("path", path),
			slog.Int("lines_saved", linesSaved),
			slog.String("error", err.Error()))
		return summary, err
	}

	s.logger.Info("conversion complete",
		slog.String("path", path),
		slog.Int("lines_saved", linesSaved),
		slog.Int("channel_count", scan.ChannelCount),
		slog.Duration("elapsed", time.Since(start)))

	return summary, nil
}

// configureSink creates the full dataset schema before any data is written:
// schema attributes, then every line, then every line's channels.
func (s *Session) configureSink(path string, sink whizz.Sink) error {
	if err := sink.SetAttr(whizz.AttrMissingValue, s.missingValue); err != nil {
		return err
	}
	if err := sink.SetAttr(whizz.AttrSourceFile, filepath.Base(path)); err != nil {
		return err
	}
	if s.cfg.LineNumberingStyle != "" {
		// opaque pass-through, the sink decides what it means
		if err := sink.SetAttr(whizz.AttrLineNumberingStyle, s.cfg.LineNumberingStyle); err != nil {
			return err
		}
	}

	for _, entry := range s.inventory.Entries() {
		if err := sink.CreateLine(entry.ID, entry.Fiducials); err != nil {
			return err
		}
		for i := 0; i < s.schema.ChannelCount(); i++ {
			if err := sink.CreateChannel(entry.ID, s.schema.Name(i), s.schema.Precision(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Schema returns the inferred channel schema. Nil until Convert has run
// its structural pass.
func (s *Session) Schema() *ChannelSchema { return s.schema }

// Inventory returns the line inventory. Nil until Convert has built it.
func (s *Session) Inventory() *Inventory { return s.inventory }
