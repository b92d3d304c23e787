package exporter

import (
	"fmt"

	"whizzcli/internal/whizz"
	"whizzcli/internal/xyz"
)

// dateFormat is the layout used for annotation dates in CSV exports.
const dateFormat = "2006-01-02"

// WriteLineIndex exports the conversion's line inventory: one record per
// survey line, in file order.
func (w *CSVWriter) WriteLineIndex(filePath string, summary *xyz.Summary) error {
	headers := []string{"Line", "Tie", "Fiducials", "Flight", "Date"}
	records := make([][]string, 0, len(summary.Lines))
	for _, entry := range summary.Lines {
		date := ""
		if entry.HasDate {
			date = entry.Date.Format(dateFormat)
		}
		records = append(records, []string{
			entry.ID,
			formatBool(entry.IsTie),
			formatInt(entry.Fiducials),
			formatFlight(entry.Flight, entry.HasFlight),
			date,
		})
	}
	return w.WriteSimpleCSV(filePath, headers, records)
}

// WriteSessionSummary exports the whole-run summary as attribute/value
// records: structural counts, channel names and precisions, warnings.
func (w *CSVWriter) WriteSessionSummary(filePath string, summary *xyz.Summary) error {
	records := [][]string{
		{"source_file", summary.SourceFile},
		{"header_records", formatInt(summary.HeaderRecords)},
		{"line_count", formatInt(summary.LineCount)},
		{"channel_count", formatInt(summary.ChannelCount)},
		{"lines_saved", formatInt(summary.LinesSaved)},
		{"degraded_names", formatBool(summary.DegradedNames)},
	}
	for i, name := range summary.ChannelNames {
		records = append(records, []string{
			fmt.Sprintf("channel_%02d", i+1),
			fmt.Sprintf("%s (precision %d)", name, summary.Precisions[i]),
		})
	}
	for _, warning := range summary.Warnings {
		records = append(records, []string{"warning", warning})
	}
	return w.WriteSimpleCSV(filePath, []string{"Attribute", "Value"}, records)
}

// WriteLineData streams one materialized line's matrix to CSV, formatting
// each channel with its inferred precision and exporting sentinel readings
// as the dummy marker.
func (w *CSVWriter) WriteLineData(filePath string, line *whizz.MemoryLine, missingValue float64, dummyMarker string) error {
	headers := make([]string, len(line.Channels))
	for i, ch := range line.Channels {
		headers[i] = ch.Name
	}

	stream, err := w.CreateStreamWriter(filePath, headers)
	if err != nil {
		return err
	}

	for _, row := range line.Matrix {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatChannelValue(v, line.Channels[i].Precision, missingValue, dummyMarker)
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write fiducial record: %w", err)
		}
	}

	return stream.Close()
}
