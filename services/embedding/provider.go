package embedding

import "context"

// Status tags how an embedding vector was produced. Fallback vectors keep the
// retrieval pipeline available during provider outages but carry no semantic
// signal, so callers and metrics need to be able to tell them apart.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFallback Status = "fallback"
)

// Result is a tagged embedding outcome
type Result struct {
	Vector []float64
	Status Status
	Reason string // Populated on fallback with the provider failure cause
}

// Degraded reports whether the vector is a fallback rather than a real embedding
func (r Result) Degraded() bool {
	return r.Status == StatusFallback
}

// Provider converts text into fixed-length numeric vectors.
//
// Implementations recover provider outages internally by returning a tagged
// fallback vector of the configured dimension; a non-nil error is reserved for
// programming mistakes, not provider unavailability.
type Provider interface {
	Embed(ctx context.Context, text string) (Result, error)
	Dimension() int
}
