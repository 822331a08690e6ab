package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
)

type stubNLP struct {
	spans []TaggedSpan
	err   error
}

func (s stubNLP) Entities(string) ([]TaggedSpan, error) {
	return s.spans, s.err
}

func TestNERExtractorFiltersLabels(t *testing.T) {
	oracle := stubNLP{spans: []TaggedSpan{
		{Label: "ORG", Text: "ICICI Bank", Start: 0, End: 10},
		{Label: "PERSON", Text: "Ravi Kumar", Start: 20, End: 30},
		{Label: "DATE", Text: "March 2024", Start: 40, End: 50},
	}}
	ex := NewNERExtractor(oracle, testLogger())

	entities := ex.Extract("ICICI Bank notified Ravi Kumar about a March 2024 deadline")
	require.Len(t, entities, 2)
	assert.Equal(t, models.EntityTypeOrg, entities[0].Type)
	assert.Equal(t, models.EntityTypePerson, entities[1].Type)
}

func TestNERExtractorConfidenceBoosts(t *testing.T) {
	// uppercase+multi-token ORG, multi-token PERSON, bare PERSON, and an
	// uppercase PERSON (the uppercase boost is ORG-only)
	oracle := stubNLP{spans: []TaggedSpan{
		{Label: "ORG", Text: "ICICI Bank", Start: 0, End: 10},
		{Label: "PERSON", Text: "Ravi Kumar", Start: 20, End: 30},
		{Label: "PERSON", Text: "Ravi", Start: 35, End: 39},
		{Label: "PERSON", Text: "RAVI KUMAR", Start: 45, End: 55},
	}}
	ex := NewNERExtractor(oracle, testLogger())

	entities := ex.Extract("ICICI Bank notified Ravi Kumar and Ravi then RAVI KUMAR again")
	require.Len(t, entities, 3) // RAVI KUMAR collapses into Ravi Kumar
	assert.InDelta(t, 0.9, entities[0].Confidence, 0.001)
	assert.InDelta(t, 0.7, entities[1].Confidence, 0.001)
	assert.InDelta(t, 0.6, entities[2].Confidence, 0.001)
}

func TestNERExtractorOracleFailureIsSoft(t *testing.T) {
	ex := NewNERExtractor(stubNLP{err: errors.New("runtime unavailable")}, testLogger())
	assert.Empty(t, ex.Extract("some text"))
}

func TestNERExtractorNilOracle(t *testing.T) {
	ex := NewNERExtractor(nil, testLogger())
	assert.Empty(t, ex.Extract("some text"))
}

func TestNERExtractorDedupKeepsMaxConfidence(t *testing.T) {
	oracle := stubNLP{spans: []TaggedSpan{
		{Label: "ORG", Text: "Amazon", Start: 0, End: 6},
		{Label: "ORG", Text: "AMAZON", Start: 10, End: 16},
	}}
	ex := NewNERExtractor(oracle, testLogger())

	entities := ex.Extract("Amazon vs AMAZON support")
	require.Len(t, entities, 1)
	// the all-uppercase occurrence wins on confidence
	assert.Equal(t, "AMAZON", entities[0].Value)
	assert.InDelta(t, 0.8, entities[0].Confidence, 0.001)
}

func TestNERExtractorTokenContext(t *testing.T) {
	text := "one two three four five six ICICI Bank seven eight nine ten eleven twelve"
	start := strings.Index(text, "ICICI")
	oracle := stubNLP{spans: []TaggedSpan{
		{Label: "ORG", Text: "ICICI Bank", Start: start, End: start + len("ICICI Bank")},
	}}
	ex := NewNERExtractor(oracle, testLogger())

	entities := ex.Extract(text)
	require.Len(t, entities, 1)
	assert.Equal(t, "two three four five six ICICI Bank seven eight nine ten eleven", entities[0].Context)
}

func TestLocalNERTagsCapitalizedRuns(t *testing.T) {
	spans, err := LocalNER{}.Entities("Dear customer, HDFC Bank flagged a transfer by John Smith")
	require.NoError(t, err)

	var labels []string
	for _, s := range spans {
		labels = append(labels, s.Label+":"+s.Text)
	}
	assert.Contains(t, labels, "ORG:HDFC Bank")
	assert.Contains(t, labels, "PERSON:John Smith")
}
