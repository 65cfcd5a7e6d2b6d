package domain

// Complexity is the per-page classification deciding how a page is
// represented in the index.
type Complexity int

const (
	// ComplexityUnknown means the page has not been classified yet.
	ComplexityUnknown Complexity = iota

	// ComplexitySimple means text and images can be extracted and
	// embedded independently.
	ComplexitySimple

	// ComplexityComplex means independent extraction is unreliable;
	// the whole page is represented as a single image.
	ComplexityComplex
)

// String returns a human-readable label.
func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityComplex:
		return "complex"
	default:
		return "unknown"
	}
}
