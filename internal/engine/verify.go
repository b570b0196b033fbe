package engine

import "strings"

// Verification thresholds. These encode empirical tolerance for foreign
// controls that normalize whitespace, append their own text or bound what
// they report, not a protocol constant.
const (
	// DefaultShortTextMax is the expected-text length below which only
	// exact equality is accepted.
	DefaultShortTextMax = 50

	// DefaultPrefixLen is how many leading characters must match for the
	// prefix tier to accept.
	DefaultPrefixLen = 50

	// DefaultSimilarityThreshold is the minimum fraction of matching
	// characters for the similarity tier to accept.
	DefaultSimilarityThreshold = 0.85
)

// Verifier decides whether a re-read of the foreign field is close enough
// to the expected outcome to count an insertion attempt as successful.
type Verifier struct {
	ShortTextMax        int
	PrefixLen           int
	SimilarityThreshold float64
}

// DefaultVerifier returns a verifier with the default thresholds.
func DefaultVerifier() Verifier {
	return Verifier{
		ShortTextMax:        DefaultShortTextMax,
		PrefixLen:           DefaultPrefixLen,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

// Verify reports whether actual matches expected under the tiered policy:
// short expected text must match exactly; longer text passes on substring
// containment, then on a matching prefix, then on per-position similarity
// of at least the threshold.
func (v Verifier) Verify(expected, actual string) bool {
	if len(expected) < v.ShortTextMax {
		return expected == actual
	}

	if strings.Contains(actual, expected) {
		return true
	}

	if len(actual) >= v.PrefixLen && len(expected) >= v.PrefixLen &&
		expected[:v.PrefixLen] == actual[:v.PrefixLen] {
		return true
	}

	return v.similarity(expected, actual) >= v.SimilarityThreshold
}

// similarity counts position-wise matches over the overlapping length,
// as a fraction of the expected length: missing trailing characters count
// against the score, so a heavily truncated write cannot pass.
func (v Verifier) similarity(expected, actual string) float64 {
	if len(expected) == 0 {
		return 1
	}
	overlap := len(expected)
	if len(actual) < overlap {
		overlap = len(actual)
	}
	matches := 0
	for i := 0; i < overlap; i++ {
		if expected[i] == actual[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(expected))
}
