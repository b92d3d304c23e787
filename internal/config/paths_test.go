package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base)

	assert.Equal(t, base, paths.ExecutableDir)
	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "surveys"), paths.SurveysDir)
	assert.Equal(t, filepath.Join(base, "data", "datasets"), paths.DatasetsDir)
	assert.Equal(t, filepath.Join(base, "data", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{
		paths.DataDir, paths.SurveysDir, paths.DatasetsDir,
		paths.ReportsDir, paths.CacheDir, paths.LogsDir,
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestPathHelpers(t *testing.T) {
	paths := NewPaths("/base")

	assert.Equal(t, filepath.Join("/base", "data", "surveys", "f.xyz"), paths.GetSurveyPath("f.xyz"))
	assert.Equal(t, filepath.Join("/base", "data", "datasets", "f.whizz.xlsx"), paths.GetDatasetPath("f.whizz.xlsx"))
	assert.Equal(t, filepath.Join("/base", "data", "reports", "r.csv"), paths.GetReportPath("r.csv"))
	assert.Equal(t, filepath.Join("/base", "logs", "app.log"), paths.GetLogPath("app.log"))
}

func TestDatasetNameFor(t *testing.T) {
	tests := []struct {
		survey string
		want   string
	}{
		{"flight7.xyz", "flight7.whizz.xlsx"},
		{"/abs/path/survey.XYZ", "survey.whizz.xlsx"},
		{"noext", "noext.whizz.xlsx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DatasetNameFor(tt.survey), tt.survey)
	}
}

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	assert.NotEmpty(t, paths.ExecutableDir)
	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
}
