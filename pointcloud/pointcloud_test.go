package pointcloud

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Basic3D", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("0,0,0\n1,0,0\n5,0,0\n0,1,0\n"))
		require.NoError(t, err)

		assert.Equal(t, 4, ds.N())
		assert.Equal(t, 3, ds.Dim())
		assert.Equal(t, 3, ds.PaddedDim())
		assert.Equal(t, 1, ds.NumBatches())
		assert.Equal(t, [3]float32{5, 0, 0}, ds.Point(0, 2))
		assert.Equal(t, []float32{0, 1, 0}, ds.Row(3))
	})

	t.Run("NoTrailingNewline", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("1,2,3\n4,5,6"))
		require.NoError(t, err)
		assert.Equal(t, 2, ds.N())
		assert.Equal(t, [3]float32{4, 5, 6}, ds.Point(0, 1))
	})

	t.Run("CRLF", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("1,2,3\r\n4,5,6\r\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, ds.N())
		assert.Equal(t, [3]float32{1, 2, 3}, ds.Point(0, 0))
	})

	t.Run("SixDimensionsTwoBatches", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("1,2,3,4,5,6\n7,8,9,10,11,12\n"))
		require.NoError(t, err)

		assert.Equal(t, 6, ds.Dim())
		assert.Equal(t, 6, ds.PaddedDim())
		assert.Equal(t, 2, ds.NumBatches())
		assert.Equal(t, [3]float32{1, 2, 3}, ds.Point(0, 0))
		assert.Equal(t, [3]float32{4, 5, 6}, ds.Point(1, 0))
		assert.Equal(t, [3]float32{10, 11, 12}, ds.Point(1, 1))
	})

	t.Run("PadZero", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("1,2,3,4\n"))
		require.NoError(t, err)

		assert.Equal(t, 4, ds.Dim())
		assert.Equal(t, 6, ds.PaddedDim())
		assert.Equal(t, 2, ds.NumBatches())
		assert.Equal(t, [3]float32{4, 0, 0}, ds.Point(1, 0))
		assert.Equal(t, []float32{1, 2, 3, 4, 0, 0}, ds.Row(0))
	})

	t.Run("PadRepeat", func(t *testing.T) {
		ds, err := Parse(strings.NewReader("1,2,3,4\n"), func(o *Options) {
			o.PadMode = PadRepeat
		})
		require.NoError(t, err)

		// Wrap-around: coordinates 4 and 5 reuse fields 0 and 1.
		assert.Equal(t, [3]float32{4, 1, 2}, ds.Point(1, 0))
		assert.Equal(t, []float32{1, 2, 3, 4, 1, 2}, ds.Row(0))
	})

	t.Run("InconsistentFieldCount", func(t *testing.T) {
		_, err := Parse(strings.NewReader("1,2,3\n4,5\n"))
		require.Error(t, err)

		var mre *MalformedRowError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, 2, mre.Line)
		assert.Equal(t, 2, mre.Fields)
		assert.Equal(t, 3, mre.Want)
	})

	t.Run("NonNumericField", func(t *testing.T) {
		_, err := Parse(strings.NewReader("1,2,x\n"))
		require.Error(t, err)

		var mre *MalformedRowError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, 1, mre.Line)
	})

	t.Run("BlankLine", func(t *testing.T) {
		_, err := Parse(strings.NewReader("1,2,3\n\n4,5,6\n"))
		require.Error(t, err)

		var mre *MalformedRowError
		require.ErrorAs(t, err, &mre)
		assert.Equal(t, 2, mre.Line)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := Parse(strings.NewReader(""))
		require.ErrorIs(t, err, ErrEmptySource)
	})

	t.Run("WhitespaceAroundFields", func(t *testing.T) {
		ds, err := Parse(strings.NewReader(" 1.5 , 2 , 3 \n"))
		require.NoError(t, err)
		assert.Equal(t, [3]float32{1.5, 2, 3}, ds.Point(0, 0))
	})
}

func TestPadModeString(t *testing.T) {
	assert.Equal(t, "zero", PadZero.String())
	assert.Equal(t, "repeat", PadRepeat.String())
}
