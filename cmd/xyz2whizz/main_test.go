package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whizzcli/internal/config"
	"whizzcli/internal/whizz"
)

func testConfig() *config.Config {
	return &config.Config{
		Conversion: config.ConversionConfig{
			MissingValue:  -1e32,
			CommentMarker: "/",
			DummyMarker:   "*",
			PreviewLines:  5,
		},
	}
}

func writeSurvey(t *testing.T, dir, name string) string {
	t.Helper()
	content := "" +
		"/ Airborne magnetic survey export\n" +
		"/ X Y MAG\n" +
		"LINE 100\n" +
		" 1.0 2.0 55.5\n" +
		" 3.0 4.0 *\n" +
		"TIE 200\n" +
		" 5.0 6.0 57.7\n"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	surveyPath := writeSurvey(t, dir, "flight7.xyz")
	datasetPath := filepath.Join(dir, "flight7.whizz.xlsx")

	summary, err := convertFile(context.Background(), testConfig(), slog.Default(), surveyPath, datasetPath)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LinesSaved)
	assert.Equal(t, []string{"X", "Y", "MAG"}, summary.ChannelNames)

	sink, err := whizz.LoadWorkbook(datasetPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100", "200"}, sink.LineIDs())
}

func TestConvertDirectory(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, paths.EnsureDirectories())

	writeSurvey(t, paths.SurveysDir, "a.xyz")
	writeSurvey(t, paths.SurveysDir, "b.xyz")

	err := convertDirectory(context.Background(), testConfig(), paths, slog.Default(), paths.SurveysDir, paths.DatasetsDir)
	require.NoError(t, err)

	for _, name := range []string{"a.whizz.xlsx", "b.whizz.xlsx"} {
		_, statErr := os.Stat(filepath.Join(paths.DatasetsDir, name))
		assert.NoError(t, statErr, name)
	}
}

func TestConvertDirectoryEmpty(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, paths.EnsureDirectories())

	err := convertDirectory(context.Background(), testConfig(), paths, slog.Default(), paths.SurveysDir, paths.DatasetsDir)
	assert.NoError(t, err)
}

func TestConvertFileBadSurvey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xyz")
	require.NoError(t, os.WriteFile(path, []byte("/ only comments here\n"), 0644))

	_, err := convertFile(context.Background(), testConfig(), slog.Default(), path, filepath.Join(dir, "bad.whizz.xlsx"))
	assert.Error(t, err)
}
