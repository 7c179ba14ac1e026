// Package vector packs fixed-dimension float32 vectors into a compact
// binary form for storage. Encode and Decode are mutual inverses for
// any vector of the configured dimension.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// ElementWidth is the encoded size of one vector element in bytes
// (IEEE-754 binary32, little-endian).
const ElementWidth = 4

// Codec encodes and decodes vectors of a single fixed dimension.
// Pure and stateless; safe for concurrent use.
type Codec struct {
	dim int
}

// NewCodec creates a codec for the given dimension.
func NewCodec(dim int) Codec {
	return Codec{dim: dim}
}

// Dimension returns the configured vector dimension.
func (c Codec) Dimension() int {
	return c.dim
}

// Encode packs a vector into dim*4 little-endian bytes.
// Fails with ErrDimensionMismatch when the input length differs from
// the configured dimension.
func (c Codec) Encode(v []float32) ([]byte, error) {
	if len(v) != c.dim {
		return nil, fmt.Errorf("%w: got %d elements, want %d", domain.ErrDimensionMismatch, len(v), c.dim)
	}
	buf := make([]byte, len(v)*ElementWidth)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*ElementWidth:], math.Float32bits(f))
	}
	return buf, nil
}

// Decode unpacks bytes produced by Encode.
// Fails with ErrCorruptPayload when the byte length cannot hold exactly
// one configured-dimension vector.
func (c Codec) Decode(data []byte) ([]float32, error) {
	if len(data)%ElementWidth != 0 || len(data)/ElementWidth != c.dim {
		return nil, fmt.Errorf("%w: %d bytes cannot hold a %d-dimension vector", domain.ErrCorruptPayload, len(data), c.dim)
	}
	v := make([]float32, c.dim)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*ElementWidth:]))
	}
	return v, nil
}
