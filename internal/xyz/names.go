package xyz

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	apperrors "whizzcli/internal/errors"
)

// resolveChannelNames rescans the header records looking for the one whose
// token count matches the inferred channel count; that tokenization becomes
// the channel name list. One extra comment record past headerRecords is
// considered, to tolerate a trailing header the structural count missed.
//
// When no header matches, placeholder names are returned together with a
// ChannelNameNotFoundError; the caller decides whether a degraded name list
// is acceptable.
func (s *Session) resolveChannelNames(path string, headerRecords, channelCount int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey file: %w", err)
	}
	defer f.Close()

	seen := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() && seen <= headerRecords {
		cls := s.classifier.Classify(scanner.Text())
		if cls.Kind != KindComment {
			continue
		}
		seen++

		// Doubled-marker records are annotations, never name candidates.
		marker := string(s.classifier.commentMarker)
		stripped := strings.TrimSpace(scanner.Text())
		stripped = strings.TrimPrefix(stripped, marker)
		if strings.HasPrefix(stripped, marker) {
			continue
		}
		tokens := strings.Fields(stripped)
		if len(tokens) != channelCount {
			continue
		}

		names := uniqueNames(tokens)
		s.logger.Info("channel names resolved",
			slog.Int("header_record", seen),
			slog.Any("channels", names))
		return names, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}

	nameErr := &apperrors.ChannelNameNotFoundError{
		Path:         path,
		ChannelCount: channelCount,
		HeaderLines:  headerRecords,
	}
	s.logger.Warn("channel names unresolved, using placeholders",
		slog.String("path", path),
		slog.Int("channel_count", channelCount))
	return placeholderNames(channelCount), nameErr
}

// placeholderNames generates the degraded name list used when no header
// record matches the channel count.
func placeholderNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("chan_%02d", i+1)
	}
	return names
}

// uniqueNames disambiguates duplicate header tokens; channel names must be
// unique within a file.
func uniqueNames(tokens []string) []string {
	names := make([]string, len(tokens))
	counts := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if counts[tok] > 1 {
			names[i] = fmt.Sprintf("%s_%d", tok, counts[tok])
		} else {
			names[i] = tok
		}
	}
	return names
}
