package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
)

type stubClassifier struct {
	class models.ScamClass
}

func (s stubClassifier) Classify(string) models.ScamClass { return s.class }

type stubEntityEnricher struct {
	reports []models.OSINTReport
}

func (s stubEntityEnricher) EnrichAll(_ context.Context, _ []models.Entity) []models.OSINTReport {
	return s.reports
}

type memCaseWriter struct {
	saved []*models.CaseRecord
}

func (m *memCaseWriter) SaveCase(record *models.CaseRecord) error {
	m.saved = append(m.saved, record)
	return nil
}

type memChain struct {
	events []string
	metas  []map[string]any
}

func (m *memChain) Append(action, _, _ string, _ *string, meta map[string]any) error {
	m.events = append(m.events, action)
	m.metas = append(m.metas, meta)
	return nil
}

type failingOCR struct{}

func (failingOCR) ExtractText(string) (string, error) {
	return "", errors.New("tesseract crashed")
}

func newTestPipeline(t *testing.T, uploads string, classifier scamClassifier, store *memCaseWriter, chain *memChain) *Pipeline {
	t.Helper()
	log := testLogger()
	return NewPipeline(
		LocalOCR{},
		NewRegexExtractor(log),
		NewNERExtractor(LocalNER{}, log),
		classifier,
		stubEntityEnricher{},
		NewRiskFusion(defaultRiskWeights(), log),
		NewURLScanner(nil, &stubEnricher{}, log),
		store,
		chain,
		PipelineConfig{UploadsDir: uploads, Actor: "system"},
		log,
	)
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return name
}

func TestPipelineAnalyzePhishingText(t *testing.T) {
	uploads := t.TempDir()
	fileID := writeArtifact(t, uploads, "ev-phish.txt", "Verify your KYC at https://icicibank-verify.xyz/secure now")

	store := &memCaseWriter{}
	chain := &memChain{}
	p := newTestPipeline(t, uploads, stubClassifier{class: models.ScamClass{
		Category:   models.CategoryFakeBank,
		Confidence: 0.8,
	}}, store, chain)

	record, err := p.Analyze(context.Background(), fileID)
	require.NoError(t, err)

	url := findEntity(record.Entities, models.EntityTypeURL, "https://icicibank-verify.xyz/secure")
	require.NotNil(t, url)
	assert.GreaterOrEqual(t, url.Confidence, 0.85)

	require.Len(t, record.URLQRFindings, 1)
	assert.GreaterOrEqual(t, record.URLQRFindings[0].Heuristics.RiskScore, 50)
	assert.Contains(t, record.URLQRFindings[0].Heuristics.Tags, models.URLTagSuspiciousTLD)
	assert.Contains(t, record.URLQRFindings[0].Heuristics.Tags, models.URLTagPhishingKW)

	assert.Contains(t, []models.RiskLevel{models.RiskLevelMedium, models.RiskLevelHigh}, record.Risk.RiskLevel)

	require.Len(t, store.saved, 1)
	assert.Equal(t, []string{models.ActionCaseAnalyzed}, chain.events)
	assert.Equal(t, float64(record.Risk.Score), chain.metas[0]["risk_score"])
	assert.Greater(t, record.ProcessingTimeSec, 0.0)
}

func TestPipelineEmptyText(t *testing.T) {
	uploads := t.TempDir()
	fileID := writeArtifact(t, uploads, "ev-empty.txt", "")

	store := &memCaseWriter{}
	chain := &memChain{}
	p := newTestPipeline(t, uploads, stubClassifier{class: models.ScamClass{
		Category:   models.CategoryUnclassified,
		Confidence: 0,
	}}, store, chain)

	record, err := p.Analyze(context.Background(), fileID)
	require.NoError(t, err)

	assert.Empty(t, record.Entities)
	assert.Equal(t, models.CategoryUnclassified, record.ScamClass.Category)
	assert.LessOrEqual(t, record.Risk.Score, 0.1)
	assert.Equal(t, models.RiskLevelLow, record.Risk.RiskLevel)
}

func TestPipelineMissingArtifact(t *testing.T) {
	store := &memCaseWriter{}
	chain := &memChain{}
	p := newTestPipeline(t, t.TempDir(), stubClassifier{}, store, chain)

	_, err := p.Analyze(context.Background(), "no-such-file.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Equal(t, []string{models.ActionCaseAnalyzeFailed}, chain.events)
	assert.Contains(t, chain.metas[0]["error"], "no-such-file.txt")
	assert.Empty(t, store.saved)
}

func TestPipelineOCRFailureRecordsStack(t *testing.T) {
	uploads := t.TempDir()
	fileID := writeArtifact(t, uploads, "ev-bad.txt", "whatever")

	chain := &memChain{}
	log := testLogger()
	p := NewPipeline(
		failingOCR{},
		NewRegexExtractor(log),
		NewNERExtractor(LocalNER{}, log),
		stubClassifier{},
		stubEntityEnricher{},
		NewRiskFusion(defaultRiskWeights(), log),
		NewURLScanner(nil, &stubEnricher{}, log),
		&memCaseWriter{},
		chain,
		PipelineConfig{UploadsDir: uploads, Actor: "system"},
		log,
	)

	_, err := p.Analyze(context.Background(), fileID)
	require.Error(t, err)

	require.Equal(t, []string{models.ActionCaseAnalyzeFailed}, chain.events)
	assert.Contains(t, chain.metas[0]["error"], "tesseract crashed")
	assert.NotEmpty(t, chain.metas[0]["stack"])
}
