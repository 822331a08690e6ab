package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// bowEmbedder counts descriptor-vocabulary words, giving deterministic
// semantic scores in tests.
type bowEmbedder struct {
	vocab map[string]int
}

func newBOWEmbedder() *bowEmbedder {
	e := &bowEmbedder{vocab: make(map[string]int)}
	for _, desc := range categoryDescriptors {
		for _, w := range strings.Fields(desc) {
			if _, ok := e.vocab[w]; !ok {
				e.vocab[w] = len(e.vocab)
			}
		}
	}
	return e
}

func (e *bowEmbedder) Encode(text string) ([]float64, error) {
	vec := make([]float64, len(e.vocab))
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if i, ok := e.vocab[w]; ok {
			vec[i]++
		}
	}
	return vec, nil
}

// memStore keeps model blobs in memory.
type memStore struct {
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (s *memStore) SaveModel(relPath string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.blobs[relPath] = data
	return nil
}

func (s *memStore) LoadModel(relPath string, v any) error {
	data, ok := s.blobs[relPath]
	if !ok {
		return models.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(newMemStore(), "models/scam_classifier.json", newBOWEmbedder(), nil, logger.NewDefault())
	require.NoError(t, err)
	return c
}

func TestLinearModelLearnsSeedCorpus(t *testing.T) {
	model := TrainLinearModel(SeedCorpus)

	for _, sample := range SeedCorpus {
		label, conf := model.Predict(CleanText(sample.Text))
		assert.Equal(t, sample.Label, label, "sample: %s", sample.Text)
		assert.Greater(t, conf, 1.0/float64(len(models.Categories)))
	}
}

func TestLinearModelSurvivesRoundTrip(t *testing.T) {
	store := newMemStore()
	trained := TrainLinearModel(SeedCorpus)
	require.NoError(t, store.SaveModel("m.json", trained))

	restored := &LinearModel{}
	require.NoError(t, store.LoadModel("m.json", restored))

	text := CleanText("your account has been locked verify now")
	wantLabel, wantConf := trained.Predict(text)
	gotLabel, gotConf := restored.Predict(text)
	assert.Equal(t, wantLabel, gotLabel)
	assert.InDelta(t, wantConf, gotConf, 1e-9)
}

func TestClassifierColdStartPersistsModel(t *testing.T) {
	store := newMemStore()
	_, err := NewClassifier(store, "models/scam_classifier.json", newBOWEmbedder(), nil, logger.NewDefault())
	require.NoError(t, err)
	assert.Contains(t, store.blobs, "models/scam_classifier.json")

	// Second construction loads the persisted model instead of training.
	_, err = NewClassifier(store, "models/scam_classifier.json", newBOWEmbedder(), nil, logger.NewDefault())
	require.NoError(t, err)
}

func TestClassifyEmptyText(t *testing.T) {
	c := newTestClassifier(t)

	for _, text := range []string{"", "   ", "!!! ... ???"} {
		got := c.Classify(text)
		assert.Equal(t, models.CategoryUnclassified, got.Category)
		assert.Zero(t, got.Confidence)
		assert.Empty(t, got.Keywords)
	}
}

func TestClassifyLotteryText(t *testing.T) {
	c := newTestClassifier(t)

	got := c.Classify("Dear user, you have won a cash prize! Click below to claim.")
	assert.Equal(t, models.CategoryLottery, got.Category)
	assert.Equal(t, models.CategoryLottery, got.Votes.ML)
	assert.Equal(t, models.CategoryLottery, got.Votes.Semantic)
	assert.Greater(t, got.Confidence, 0.0)
	assert.InDelta(t, 0.67, got.ToneSignals.RewardScore, 0.001)
	assert.InDelta(t, 0.1, got.ToneSignals.ToneFactor, 0.001)
}

func TestClassifyBankPhishingText(t *testing.T) {
	c := newTestClassifier(t)

	got := c.Classify("urgent verify your bank account upi transfer blocked")
	assert.Equal(t, models.CategoryFakeBank, got.Category)
	assert.Contains(t, got.Keywords, "verify")
	assert.Contains(t, got.Keywords, "upi")
	assert.InDelta(t, 1.0, got.ToneSignals.UrgencyScore, 0.001)
	assert.InDelta(t, 1.0, got.ToneSignals.FinancialScore, 0.001)
	assert.InDelta(t, 0.7, got.ToneSignals.ToneFactor, 0.001)
}

func TestPluralityVoteSplitFallsToML(t *testing.T) {
	got := pluralityVote(models.CategoryRomance, models.CategoryLottery, models.CategoryTechSupport)
	assert.Equal(t, models.CategoryRomance, got)

	got = pluralityVote(models.CategoryRomance, models.CategoryLottery, models.CategoryLottery)
	assert.Equal(t, models.CategoryLottery, got)
}

func TestHeuristicVoteTally(t *testing.T) {
	c := newTestClassifier(t)

	cat, conf := c.heuristicVote("crypto crypto crypto wallet profit")
	assert.Equal(t, models.CategoryInvestment, cat)
	assert.InDelta(t, 0.6, conf, 0.001)

	// No keyword hits: first canonical category at zero confidence.
	cat, conf = c.heuristicVote("hello there general text")
	assert.Equal(t, models.CategoryFakeBank, cat)
	assert.Zero(t, conf)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, Cosine([]float64{1}, []float64{1, 2}))
}
