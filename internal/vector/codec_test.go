package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec(5)
	v := []float32{1.5, -2.25, 0, float32(math.Pi), -0.0001}

	encoded, err := codec.Encode(v)
	require.NoError(t, err)
	assert.Len(t, encoded, 5*ElementWidth)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestCodec_RoundTrip_SpecialValues(t *testing.T) {
	codec := NewCodec(4)
	v := []float32{float32(math.Inf(1)), float32(math.Inf(-1)), math.MaxFloat32, math.SmallestNonzeroFloat32}

	encoded, err := codec.Encode(v)
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestCodec_Encode_DimensionMismatch(t *testing.T) {
	codec := NewCodec(3)

	_, err := codec.Encode([]float32{1, 2})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = codec.Encode([]float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = codec.Encode(nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCodec_Decode_CorruptPayload(t *testing.T) {
	codec := NewCodec(3)

	// Not a multiple of the element width.
	_, err := codec.Decode(make([]byte, 7))
	assert.ErrorIs(t, err, domain.ErrCorruptPayload)

	// Whole elements, wrong count.
	_, err = codec.Decode(make([]byte, 8))
	assert.ErrorIs(t, err, domain.ErrCorruptPayload)

	_, err = codec.Decode(nil)
	assert.ErrorIs(t, err, domain.ErrCorruptPayload)
}

func TestCodec_Dimension(t *testing.T) {
	assert.Equal(t, 384, NewCodec(384).Dimension())
}
