package ai

import (
	"fmt"
	"math"

	"cyberlens/internal/domain/models"
)

// Embedder maps text to a dense vector. Satisfied by the embedding
// oracle without this package importing it.
type Embedder interface {
	Encode(text string) ([]float64, error)
}

// categoryDescriptors are the semantic anchors each category is
// matched against.
var categoryDescriptors = map[models.ScamCategory]string{
	models.CategoryFakeBank:    "bank account blocked refund transfer verify payment loan upi",
	models.CategoryLottery:     "lottery prize claim reward congratulations winner gift",
	models.CategoryTechSupport: "support microsoft windows security virus fix alert technician helpdesk",
	models.CategoryFakeJob:     "job offer hr recruiter apply resume salary internship work from home",
	models.CategoryInvestment:  "crypto bitcoin investment trading wallet profit double money fund",
	models.CategoryRomance:     "love relationship chat gift darling sweetheart honey emotional connect",
}

// SemanticMatcher scores text against the category descriptors by
// cosine similarity. Descriptor vectors are encoded once at
// construction.
type SemanticMatcher struct {
	embedder    Embedder
	descriptors map[models.ScamCategory][]float64
}

func NewSemanticMatcher(embedder Embedder) (*SemanticMatcher, error) {
	m := &SemanticMatcher{
		embedder:    embedder,
		descriptors: make(map[models.ScamCategory][]float64, len(categoryDescriptors)),
	}
	for cat, desc := range categoryDescriptors {
		vec, err := embedder.Encode(desc)
		if err != nil {
			return nil, fmt.Errorf("encode descriptor for %s: %w", cat, err)
		}
		m.descriptors[cat] = vec
	}
	return m, nil
}

// Best returns the closest category and its similarity. Ties resolve
// in the canonical category order.
func (m *SemanticMatcher) Best(text string) (models.ScamCategory, float64, error) {
	vec, err := m.embedder.Encode(text)
	if err != nil {
		return models.CategoryUnclassified, 0, fmt.Errorf("encode text: %w", err)
	}

	best := models.CategoryUnclassified
	bestScore := math.Inf(-1)
	for _, cat := range models.Categories {
		desc, ok := m.descriptors[cat]
		if !ok {
			continue
		}
		score := Cosine(vec, desc)
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	if math.IsInf(bestScore, -1) {
		bestScore = 0
	}
	return best, bestScore, nil
}

// Cosine returns the cosine similarity of two vectors, 0 when either
// has zero norm or lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
