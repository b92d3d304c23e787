// surveyreport summarizes a converted Whizz dataset: line inventory,
// channel layout, and distance-flown statistics, with optional CSV dumps
// of the per-line channel data.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"whizzcli/internal/config"
	"whizzcli/internal/exporter"
	"whizzcli/internal/infrastructure"
	"whizzcli/internal/report"
	"whizzcli/internal/whizz"
	"whizzcli/internal/xyz"
)

func main() {
	dataset := flag.String("dataset", "", "dataset file to report on (name under data/datasets, or a path)")
	out := flag.String("out", "", "write the text report to this file instead of stdout")
	csvDump := flag.Bool("csv", false, "also dump each line's channel data as CSV into data/reports")
	xChannel := flag.String("x", "X", "name of the X coordinate channel")
	yChannel := flag.String("y", "Y", "name of the Y coordinate channel")
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "usage: surveyreport -dataset <file> [-out report.txt] [-csv]")
		os.Exit(2)
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{
			Logging: config.LoggingConfig{
				Level:  "warn",
				Format: "text",
				Output: "console",
			},
			Conversion: config.ConversionConfig{
				MissingValue: -1e32,
				DummyMarker:  "*",
			},
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	datasetPath := *dataset
	if !filepath.IsAbs(datasetPath) {
		if _, statErr := os.Stat(datasetPath); statErr != nil {
			datasetPath = paths.GetDatasetPath(*dataset)
		}
	}

	sink, err := whizz.LoadWorkbook(datasetPath)
	if err != nil {
		logger.Error("Failed to load dataset",
			slog.String("dataset_file", datasetPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	summary := summaryFromSink(sink, datasetPath)
	missing := missingValueFromSink(sink, cfg.Conversion.MissingValue)

	reporter := report.NewReporter(logger, report.ReporterConfig{
		XChannel:     *xChannel,
		YChannel:     *yChannel,
		MissingValue: missing,
	})
	sessionReport := reporter.Build(summary, sink)

	var dest *os.File = os.Stdout
	if *out != "" {
		outPath := *out
		if !filepath.IsAbs(outPath) {
			outPath = paths.GetReportPath(outPath)
		}
		dest, err = os.Create(outPath)
		if err != nil {
			logger.Error("Failed to create report file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dest.Close()
	}
	if err := sessionReport.WriteText(dest); err != nil {
		logger.Error("Failed to write report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *csvDump {
		if err := paths.EnsureDirectories(); err != nil {
			logger.Error("Failed to create report directories", slog.String("error", err.Error()))
			os.Exit(1)
		}
		writer := exporter.NewCSVWriter(paths)
		base := filepath.Base(datasetPath)
		for _, id := range sink.LineIDs() {
			line, _ := sink.Line(id)
			name := fmt.Sprintf("%s_line_%s.csv", base, id)
			if err := writer.WriteLineData(name, line, missing, cfg.Conversion.DummyMarker); err != nil {
				logger.Warn("Failed to dump line CSV",
					slog.String("line_id", id),
					slog.String("error", err.Error()))
			}
		}
	}
}

// summaryFromSink rebuilds the conversion summary a report needs from a
// loaded dataset. Annotations (tie flags, flights, dates) are not stored
// in the workbook, so the rebuilt inventory carries IDs and fiducial
// counts only.
func summaryFromSink(sink *whizz.MemorySink, datasetPath string) *xyz.Summary {
	summary := &xyz.Summary{
		SourceFile: datasetPath,
	}
	if src, ok := sink.Attr(whizz.AttrSourceFile).(string); ok && src != "" {
		summary.SourceFile = src
	}

	ids := sink.LineIDs()
	summary.LineCount = len(ids)
	for _, id := range ids {
		line, _ := sink.Line(id)
		summary.Lines = append(summary.Lines, xyz.LineEntry{
			ID:        id,
			Fiducials: line.Fiducials,
		})
		if summary.ChannelNames == nil {
			for _, ch := range line.Channels {
				summary.ChannelNames = append(summary.ChannelNames, ch.Name)
			}
			summary.ChannelCount = len(summary.ChannelNames)
		}
	}
	summary.LinesSaved = summary.LineCount
	return summary
}

// missingValueFromSink reads the missing-value attribute back, falling
// back to the configured sentinel when absent or malformed.
func missingValueFromSink(sink *whizz.MemorySink, fallback float64) float64 {
	raw, ok := sink.Attr(whizz.AttrMissingValue).(string)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
