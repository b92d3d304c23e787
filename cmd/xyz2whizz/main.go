// xyz2whizz converts XYZ survey text exports into Whizz workbook datasets.
//
// With -in pointing at a single file, one dataset is written. With -in
// pointing at a directory, every *.xyz file in it is converted, several
// at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"whizzcli/internal/config"
	"whizzcli/internal/exporter"
	"whizzcli/internal/files"
	"whizzcli/internal/infrastructure"
	"whizzcli/internal/whizz"
	"whizzcli/internal/xyz"
)

func main() {
	in := flag.String("in", "", "input survey file or directory (defaults to data/surveys relative to executable)")
	out := flag.String("out", "", "output dataset file or directory (defaults to data/datasets relative to executable)")
	missing := flag.Float64("missing", 0, "missing-value sentinel override (default from config, -1e32)")
	preview := flag.Int("preview", 0, "number of raw lines to log at debug level before parsing")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   "both",
				FilePath: paths.GetLogPath("xyz2whizz.log"),
			},
			Conversion: config.ConversionConfig{
				MissingValue:  -1e32,
				CommentMarker: "/",
				DummyMarker:   "*",
				PreviewLines:  5,
			},
		}
	}
	// -missing only overrides when passed explicitly, so a sentinel of
	// exactly 0 stays configurable
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "missing" {
			cfg.Conversion.MissingValue = *missing
		}
	})
	if *preview > 0 {
		cfg.Conversion.PreviewLines = *preview
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *in == "" {
		*in = paths.SurveysDir
	}

	info, err := os.Stat(*in)
	if err != nil {
		logger.Error("Input path not accessible",
			slog.String("path", *in),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if info.IsDir() {
		if *out == "" {
			*out = paths.DatasetsDir
		}
		if err := convertDirectory(ctx, cfg, paths, logger, *in, *out); err != nil {
			logger.Error("Batch conversion failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		outPath := *out
		if outPath == "" {
			outPath = paths.GetDatasetPath(config.DatasetNameFor(filepath.Base(*in)))
		}
		summary, err := convertFile(ctx, cfg, logger, *in, outPath)
		if err != nil {
			logger.Error("Conversion failed",
				slog.String("survey_file", *in),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		writeSummaryReports(paths, logger, summary)
		fmt.Printf("Converted %s: %d lines, %d channels -> %s\n",
			filepath.Base(*in), summary.LinesSaved, summary.ChannelCount, outPath)
	}
}

// convertFile runs one survey through a full ingestion session into a
// workbook dataset.
func convertFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, surveyPath, datasetPath string) (*xyz.Summary, error) {
	session := xyz.NewSession(cfg.Conversion, logger)

	sink, err := whizz.NewWorkbookSink(datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %s: %w", datasetPath, err)
	}

	summary, err := session.Convert(ctx, surveyPath, sink)
	if err != nil {
		return summary, err
	}
	if err := sink.Close(); err != nil {
		return summary, fmt.Errorf("failed to save dataset %s: %w", datasetPath, err)
	}
	return summary, nil
}

// convertDirectory converts every *.xyz file under dir concurrently, one
// dataset per survey. A single failure aborts the remaining conversions.
func convertDirectory(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger, dir, outDir string) error {
	discovery := files.NewDiscovery(paths.ExecutableDir)
	surveys, err := discovery.FindSurveyFiles(dir)
	if err != nil {
		return err
	}

	logger.Info("Survey files discovered",
		slog.String("dir", dir),
		slog.Int("count", len(surveys)))
	fmt.Printf("Found %d survey files\n", len(surveys))

	if len(surveys) == 0 {
		logger.Warn("No survey files found", slog.String("dir", dir), slog.String("pattern", "*.xyz"))
		return nil
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, survey := range surveys {
		survey := survey
		g.Go(func() error {
			datasetPath := filepath.Join(outDir, config.DatasetNameFor(survey.Name))
			summary, err := convertFile(gctx, cfg, logger, survey.Path, datasetPath)
			if err != nil {
				return fmt.Errorf("%s: %w", survey.Name, err)
			}
			logger.Info("Survey converted",
				slog.String("survey_file", survey.Name),
				slog.Int("lines_saved", summary.LinesSaved),
				slog.String("dataset_file", datasetPath))
			fmt.Printf("Converted %s: %d lines\n", survey.Name, summary.LinesSaved)
			return nil
		})
	}
	return g.Wait()
}

// writeSummaryReports emits the session summary and line index CSVs next
// to the dataset. Report failures are logged, not fatal; the dataset
// itself is already saved.
func writeSummaryReports(paths *config.Paths, logger *slog.Logger, summary *xyz.Summary) {
	writer := exporter.NewCSVWriter(paths)
	if err := writer.WriteSessionSummary(paths.SessionSummaryCSV, summary); err != nil {
		logger.Warn("Failed to write session summary CSV", slog.String("error", err.Error()))
	}
	if err := writer.WriteLineIndex(paths.LineIndexCSV, summary); err != nil {
		logger.Warn("Failed to write line index CSV", slog.String("error", err.Error()))
	}
}
