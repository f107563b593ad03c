package similarity

import (
	"fmt"
	"math"

	"github.com/professor-ai/rag-service/services"
)

// Cosine computes the cosine similarity between two vectors:
// dot(a,b) / (‖a‖·‖b‖).
//
// A length mismatch indicates corpus corruption and is a hard error, never a
// silent zero. A zero-magnitude vector on either side yields exactly 0 so the
// score is always a real number.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, services.NewDomainError(
			services.ErrorTypeInternal,
			fmt.Sprintf("embedding dimension mismatch: %d vs %d", len(a), len(b)),
			services.ErrDimensionMismatch,
		)
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// IsZero reports whether every component of the vector is zero
func IsZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
