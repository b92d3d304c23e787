package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for ALL file paths in the application.
type Paths struct {
	ExecutableDir string
	DataDir       string
	SurveysDir    string
	DatasetsDir   string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Well-known report files
	SessionSummaryCSV string
	LineIndexCSV      string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths builds the path set rooted at the given base directory.
// Tests use this directly with a temp dir.
//
// Directory structure:
//
//	base/
//	  ├── data/
//	  │   ├── surveys/    (raw .xyz survey files)
//	  │   ├── datasets/   (materialized Whizz datasets)
//	  │   ├── reports/    (generated summary reports)
//	  │   └── cache/      (temporary files)
//	  └── logs/           (application logs)
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		SurveysDir:    filepath.Join(dataDir, "surveys"),
		DatasetsDir:   filepath.Join(dataDir, "datasets"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(baseDir, "logs"),

		SessionSummaryCSV: filepath.Join(reportsDir, "session_summary.csv"),
		LineIndexCSV:      filepath.Join(reportsDir, "line_index.csv"),
	}
}

// EnsureDirectories creates every directory the application writes to.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.SurveysDir,
		p.DatasetsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetSurveyPath returns the full path for a raw survey file
func (p *Paths) GetSurveyPath(filename string) string {
	return filepath.Join(p.SurveysDir, filename)
}

// GetDatasetPath returns the full path for a materialized dataset
func (p *Paths) GetDatasetPath(filename string) string {
	return filepath.Join(p.DatasetsDir, filename)
}

// GetReportPath returns the full path for a generated report
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetCachePath returns the full path for a temporary file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetLogPath returns the full path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// DatasetNameFor derives the default dataset filename for a survey file:
// the survey name with its extension swapped for .whizz.xlsx.
func DatasetNameFor(surveyFile string) string {
	base := filepath.Base(surveyFile)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + ".whizz.xlsx"
}
