package xyz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whizzcli/internal/whizz"
)

func TestResolveChannelNamesPicksMatchingHeader(t *testing.T) {
	// only the header whose token count equals the channel count wins,
	// regardless of position
	path := writeSurvey(t,
		"/ EXPORTED 2026-08-12 FROM ACQUISITION SYSTEM",
		"/ X Y MAG ALT",
		"/ UNITS m m nT",
		"LINE 1",
		"1.0 2.0 3.0 4.0",
	)

	sink := whizz.NewMemorySink()
	summary, err := NewSession(testConversionConfig(), nil).Convert(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "MAG", "ALT"}, summary.ChannelNames)
}

func TestResolveChannelNamesSkipsAnnotations(t *testing.T) {
	// a flight annotation tokenizes to the channel count here, but
	// doubled-marker records are never name candidates
	path := writeSurvey(t,
		"//FLIGHT 703",
		"/ A B",
		"LINE 1",
		"1.0 2.0",
	)

	sink := whizz.NewMemorySink()
	summary, err := NewSession(testConversionConfig(), nil).Convert(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, summary.ChannelNames)
	assert.False(t, summary.DegradedNames)
}

func TestResolveChannelNamesSkipsUnrecognizedAnnotations(t *testing.T) {
	// unrecognized doubled-marker bodies stay opaque comments and are
	// skipped the same way
	path := writeSurvey(t,
		"//SENSOR CS-3",
		"/ A B",
		"LINE 1",
		"1.0 2.0",
	)

	sink := whizz.NewMemorySink()
	summary, err := NewSession(testConversionConfig(), nil).Convert(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, summary.ChannelNames)
}

func TestResolveChannelNamesDeduplicates(t *testing.T) {
	path := writeSurvey(t,
		"/ X Y X",
		"LINE 1",
		"1.0 2.0 3.0",
	)

	sink := whizz.NewMemorySink()
	summary, err := NewSession(testConversionConfig(), nil).Convert(context.Background(), path, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "X_2"}, summary.ChannelNames)
}

func TestPlaceholderNames(t *testing.T) {
	assert.Equal(t, []string{"chan_01", "chan_02"}, placeholderNames(2))
	assert.Empty(t, placeholderNames(0))
}
