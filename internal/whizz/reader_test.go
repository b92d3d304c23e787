package whizz

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.whizz.xlsx")

	sink, err := NewWorkbookSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.SetAttr(AttrMissingValue, -1e32))
	require.NoError(t, sink.CreateLine("100", 2))
	require.NoError(t, sink.CreateChannel("100", "X", 1))
	require.NoError(t, sink.CreateChannel("100", "MAG", 3))
	require.NoError(t, sink.WriteChannelData("100",
		[][]float64{{1.5, 57231.125}, {2.5, -1e32}},
		[]string{"X", "MAG"}))
	require.NoError(t, sink.CreateLine("200", 1))
	require.NoError(t, sink.CreateChannel("200", "X", 1))
	require.NoError(t, sink.CreateChannel("200", "MAG", 3))
	require.NoError(t, sink.WriteChannelData("200",
		[][]float64{{3.5, 57233.25}},
		[]string{"X", "MAG"}))
	require.NoError(t, sink.Close())

	loaded, err := LoadWorkbook(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200"}, loaded.LineIDs())

	line100, ok := loaded.Line("100")
	require.True(t, ok)
	assert.Equal(t, 2, line100.Fiducials)
	require.Len(t, line100.Matrix, 2)
	assert.Equal(t, 1.5, line100.Matrix[0][0])
	assert.Equal(t, 57231.125, line100.Matrix[0][1])
	// the sentinel survives the round trip as the exact missing value
	assert.Equal(t, -1e32, line100.Matrix[1][1])

	assert.Equal(t, "X", line100.Channels[0].Name)
	assert.NotNil(t, loaded.Attr(AttrMissingValue))

	// channel precisions survive the round trip
	assert.Equal(t, 1, line100.Channels[0].Precision)
	assert.Equal(t, 3, line100.Channels[1].Precision)
	line200, ok := loaded.Line("200")
	require.True(t, ok)
	assert.Equal(t, 3, line200.Channels[1].Precision)
}

func TestLoadWorkbookCollidingSheetNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.whizz.xlsx")

	// both identifiers sanitize to the same sheet name
	sink, err := NewWorkbookSink(path)
	require.NoError(t, err)
	for _, id := range []string{"L10/0", "L10:0"} {
		require.NoError(t, sink.CreateLine(id, 1))
		require.NoError(t, sink.CreateChannel(id, "X", 1))
	}
	require.NoError(t, sink.WriteChannelData("L10/0", [][]float64{{1.5}}, []string{"X"}))
	require.NoError(t, sink.WriteChannelData("L10:0", [][]float64{{2.5}}, []string{"X"}))
	require.NoError(t, sink.Close())

	loaded, err := LoadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"L10/0", "L10:0"}, loaded.LineIDs())

	first, ok := loaded.Line("L10/0")
	require.True(t, ok)
	assert.Equal(t, 1.5, first.Matrix[0][0])
	second, ok := loaded.Line("L10:0")
	require.True(t, ok)
	assert.Equal(t, 2.5, second.Matrix[0][0])
}

func TestLoadWorkbookMissingFile(t *testing.T) {
	_, err := LoadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}
