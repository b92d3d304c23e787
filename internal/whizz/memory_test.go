package whizz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()

	require.NoError(t, sink.SetAttr(AttrMissingValue, -1e32))
	require.NoError(t, sink.CreateLine("100", 2))
	require.NoError(t, sink.CreateChannel("100", "X", 1))
	require.NoError(t, sink.CreateChannel("100", "MAG", 3))

	matrix := [][]float64{{1.5, 57231.125}, {2.5, 57232.500}}
	require.NoError(t, sink.WriteChannelData("100", matrix, []string{"X", "MAG"}))

	line, ok := sink.Line("100")
	require.True(t, ok)
	assert.Equal(t, 2, line.Fiducials)
	assert.Equal(t, matrix, line.Matrix)
	assert.Equal(t, "MAG", line.Channels[1].Name)
	assert.Equal(t, 3, line.Channels[1].Precision)

	assert.Equal(t, []string{"100"}, sink.LineIDs())
	assert.Equal(t, -1e32, sink.Attr(AttrMissingValue))
	assert.Equal(t, []string{AttrMissingValue}, sink.AttrNames())
}

func TestMemorySinkErrors(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.CreateLine("100", 1))

	t.Run("duplicate line", func(t *testing.T) {
		assert.Error(t, sink.CreateLine("100", 1))
	})

	t.Run("channel on unknown line", func(t *testing.T) {
		assert.Error(t, sink.CreateChannel("999", "X", 0))
	})

	t.Run("write to unknown line", func(t *testing.T) {
		assert.Error(t, sink.WriteChannelData("999", nil, nil))
	})

	t.Run("row count mismatch", func(t *testing.T) {
		require.NoError(t, sink.CreateChannel("100", "X", 0))
		err := sink.WriteChannelData("100", [][]float64{{1}, {2}}, []string{"X"})
		assert.Error(t, err)
	})

	t.Run("closed sink rejects writes", func(t *testing.T) {
		require.NoError(t, sink.Close())
		assert.Error(t, sink.CreateLine("200", 1))
		assert.Error(t, sink.SetAttr("x", 1))
	})
}
