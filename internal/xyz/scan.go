package xyz

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	apperrors "whizzcli/internal/errors"
)

// ScanResult is the outcome of the structural pass over a survey file.
type ScanResult struct {
	HeaderRecords int
	LineCount     int
	ChannelCount  int
	Precisions    []int
}

// scanStructure is the first full pass: it counts header records and survey
// line markers, and infers the channel count and per-channel decimal
// precision from the first data record that contains no dummy markers.
// Precision is sampled from that single record and never re-inferred; the
// materializer warns when later records exceed it.
func (s *Session) scanStructure(path string) (ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to open survey file: %w", err)
	}
	defer f.Close()

	var result ScanResult
	previewed := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		raw := scanner.Text()

		if previewed < s.cfg.PreviewLines {
			s.logger.Debug("survey file preview",
				slog.Int("line_number", previewed+1),
				slog.String("content", raw))
			previewed++
		}

		cls := s.classifier.Classify(raw)
		switch cls.Kind {
		case KindComment:
			result.HeaderRecords++
		case KindLineMarker:
			result.LineCount++
		case KindDataRecord:
			if result.ChannelCount == 0 && !cls.HasDummy {
				result.ChannelCount = len(cls.Fields)
				result.Precisions = make([]int, len(cls.Fields))
				for i, field := range cls.Fields {
					result.Precisions[i] = decimalPrecision(field)
				}
			}
		case KindMalformed:
			// skippable
		}
	}
	if err := scanner.Err(); err != nil {
		return ScanResult{}, fmt.Errorf("failed to read survey file: %w", err)
	}

	if result.ChannelCount == 0 {
		return ScanResult{}, &apperrors.SchemaInferenceError{Path: path}
	}

	s.logger.Info("structural scan complete",
		slog.String("path", path),
		slog.Int("header_records", result.HeaderRecords),
		slog.Int("line_count", result.LineCount),
		slog.Int("channel_count", result.ChannelCount))

	return result, nil
}

// maxLineBytes bounds a single text line. Survey records are short, but a
// corrupt file must not make the scanner allocate without limit.
const maxLineBytes = 1024 * 1024

// decimalPrecision returns the number of digits after the decimal point of
// a numeric token, zero when it has none. An exponent suffix is not part of
// the fraction.
func decimalPrecision(token string) int {
	dot := strings.IndexByte(token, '.')
	if dot < 0 {
		return 0
	}
	frac := token[dot+1:]
	if e := strings.IndexAny(frac, "eE"); e >= 0 {
		frac = frac[:e]
	}
	return len(frac)
}
