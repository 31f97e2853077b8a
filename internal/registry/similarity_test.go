package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentityAfterNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
	}{
		{"Acme Ltd", "ACME"},
		{"Acme Ltd", "Acme Limited"},
		{"J. Smith & Sons Ltd.", "J SMITH & SONS LIMITED"},
		{"Thames Plumbing Co", "THAMES PLUMBING COMPANY"},
		{"Harrow Roofing PLC", "harrow roofing llp"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, 1.0, Similarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestSimilarityPartialOverlap(t *testing.T) {
	t.Parallel()

	// {acme, roofing} vs {acme, scaffolding}: 1 shared of 3 distinct words.
	assert.InDelta(t, 1.0/3.0, Similarity("Acme Roofing Ltd", "Acme Scaffolding Ltd"), 0.0001)
}

func TestSimilarityDisjointNames(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Similarity("Alpha Builders", "Omega Electrical"))
}

func TestSimilarityEmptyAfterSuffixStrip(t *testing.T) {
	t.Parallel()

	// Both names reduce to nothing; no evidence of a match.
	assert.Zero(t, Similarity("Ltd", "Limited"))
	assert.Zero(t, Similarity("", "Acme"))
}

func TestSimilarityIgnoresPunctuation(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, Similarity("O'Brien's Joinery", "obriens joinery"), 0.0001)
}
