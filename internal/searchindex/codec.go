package searchindex

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeEmbedding packs a float32 vector as little-endian bytes for the
// search_vector_chunks BLOB column.
func encodeEmbedding(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding reverses encodeEmbedding.
func decodeEmbedding(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("searchindex: embedding blob length %d not a multiple of 4", len(raw))
	}
	vector := make([]float32, len(raw)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vector, nil
}
