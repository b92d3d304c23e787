package whizz

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.whizz.xlsx")

	sink, err := NewWorkbookSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.SetAttr(AttrMissingValue, -1e32))
	require.NoError(t, sink.SetAttr(AttrSourceFile, "survey.xyz"))
	require.NoError(t, sink.CreateLine("100", 2))
	require.NoError(t, sink.CreateChannel("100", "X", 1))
	require.NoError(t, sink.CreateChannel("100", "MAG", 3))
	require.NoError(t, sink.WriteChannelData("100",
		[][]float64{{1.5, 57231.125}, {2.5, 57232.5}},
		[]string{"X", "MAG"}))
	require.NoError(t, sink.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// schema sheet is present and first
	sheets := f.GetSheetList()
	require.NotEmpty(t, sheets)
	assert.Equal(t, "_schema", sheets[0])
	assert.Contains(t, sheets, "100")

	// channel headers
	header, err := f.GetCellValue("100", "B1")
	require.NoError(t, err)
	assert.Equal(t, "MAG", header)

	// data rows
	rows, err := f.GetRows("100")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// attributes and line index on the schema sheet
	schemaRows, err := f.GetRows("_schema")
	require.NoError(t, err)
	var sawSource, sawIndex bool
	for _, row := range schemaRows {
		if len(row) >= 2 && row[0] == AttrSourceFile {
			sawSource = true
			assert.Equal(t, "survey.xyz", row[1])
		}
		if len(row) >= 2 && row[0] == "100" {
			sawIndex = true
			assert.Equal(t, "2", row[1])
		}
	}
	assert.True(t, sawSource, "source_file attribute missing from schema sheet")
	assert.True(t, sawIndex, "line index entry missing from schema sheet")
}

func TestWorkbookSinkValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	sink, err := NewWorkbookSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.CreateLine("100", 1))
	assert.Error(t, sink.CreateLine("100", 1), "duplicate line")
	assert.Error(t, sink.CreateChannel("999", "X", 0), "unknown line")

	require.NoError(t, sink.CreateChannel("100", "X", 0))
	assert.Error(t, sink.WriteChannelData("100", [][]float64{{1}, {2}}, []string{"X"}), "row count mismatch")
	assert.Error(t, sink.WriteChannelData("100", [][]float64{{1}}, []string{"X", "Y"}), "channel count mismatch")
}

func TestSheetNameFor(t *testing.T) {
	assert.Equal(t, "100", sheetNameFor("100"))
	assert.Equal(t, "L10_0", sheetNameFor("L10/0"))
	assert.Len(t, sheetNameFor("a_very_long_line_identifier_exceeding_the_cap"), 31)
}
