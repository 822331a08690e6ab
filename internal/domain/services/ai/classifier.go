package ai

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Sentiment scores text polarity in [-1, 1].
type Sentiment interface {
	Polarity(text string) (float64, error)
}

// ModelStore persists trained model state under a relative path.
type ModelStore interface {
	SaveModel(relPath string, v any) error
	LoadModel(relPath string, v any) error
}

// Classifier is the hybrid scam classifier: a trained linear model,
// a semantic descriptor match, and a keyword voter, fused by plurality
// with tone-adjusted confidence.
type Classifier struct {
	model     *LinearModel
	matcher   *SemanticMatcher
	sentiment Sentiment
	logger    *logger.Logger
}

// Voter fusion weights.
var voteWeights = struct {
	ml, semantic, heuristic float64
}{0.5, 0.3, 0.2}

// categoryKeywords is the heuristic voter's token table.
var categoryKeywords = map[string]models.ScamCategory{
	"verify":  models.CategoryFakeBank,
	"upi":     models.CategoryFakeBank,
	"lottery": models.CategoryLottery,
	"crypto":  models.CategoryInvestment,
	"resume":  models.CategoryFakeJob,
	"love":    models.CategoryRomance,
	"support": models.CategoryTechSupport,
}

var (
	urgentWords    = []string{"urgent", "immediately", "verify", "blocked", "update", "alert", "action required"}
	financialWords = []string{"bank", "upi", "payment", "account", "transfer", "refund", "investment", "loan", "crypto"}
	rewardWords    = []string{"prize", "winner", "reward", "claim", "offer"}
)

// NewClassifier loads the persisted model or cold-starts one from the
// seed corpus. A failed save is logged and tolerated; the in-memory
// model still serves.
func NewClassifier(store ModelStore, modelPath string, embedder Embedder, sentiment Sentiment, log *logger.Logger) (*Classifier, error) {
	clog := log.WithComponent("scam_classifier")

	model := &LinearModel{}
	err := store.LoadModel(modelPath, model)
	switch {
	case err == nil:
		clog.Info().Str("model_path", modelPath).Msg("loaded persisted classifier model")
	case errors.Is(err, models.ErrNotFound):
		clog.Info().Str("model_path", modelPath).Msg("no persisted model, training baseline classifier")
		model = TrainLinearModel(SeedCorpus)
		if saveErr := store.SaveModel(modelPath, model); saveErr != nil {
			clog.Warn().Err(saveErr).Msg("failed to persist baseline model")
		}
	default:
		return nil, fmt.Errorf("load classifier model: %w", err)
	}

	matcher, err := NewSemanticMatcher(embedder)
	if err != nil {
		return nil, fmt.Errorf("build semantic matcher: %w", err)
	}

	return &Classifier{
		model:     model,
		matcher:   matcher,
		sentiment: sentiment,
		logger:    clog,
	}, nil
}

// Classify runs all three voters over the text and fuses their output.
// Empty or punctuation-only text short-circuits to Unclassified.
func (c *Classifier) Classify(text string) models.ScamClass {
	clean := CleanText(text)
	if clean == "" {
		return models.ScamClass{
			Category:   models.CategoryUnclassified,
			Confidence: 0,
			Keywords:   []string{},
		}
	}

	mlLabel, mlConf := c.model.Predict(clean)
	mlVote := models.ScamCategory(mlLabel)

	semVote, semConf, err := c.matcher.Best(clean)
	if err != nil {
		c.logger.Warn().Err(err).Msg("embedding oracle failed, semantic vote abstains")
		semVote, semConf = models.CategoryUnclassified, 0
	}

	heurVote, heurConf := c.heuristicVote(clean)

	tone := detectTone(clean)

	polarity := 0.0
	if c.sentiment != nil {
		if p, perr := c.sentiment.Polarity(clean); perr == nil {
			polarity = p
		} else {
			c.logger.Warn().Err(perr).Msg("sentiment oracle failed, polarity defaults to neutral")
		}
	}

	final := pluralityVote(mlVote, semVote, heurVote)

	combined := mlConf*voteWeights.ml + semConf*voteWeights.semantic + heurConf*voteWeights.heuristic
	combined = math.Min(1.0, combined+tone.ToneFactor*0.1)

	keywords := []string{}
	for _, token := range keywordOrder {
		if categoryKeywords[token] == final && strings.Contains(clean, token) {
			keywords = append(keywords, token)
		}
	}

	return models.ScamClass{
		Category:   final,
		Confidence: round2(combined),
		Votes: models.ClassifierVotes{
			ML:        mlVote,
			Semantic:  semVote,
			Heuristic: heurVote,
		},
		ToneSignals:       tone,
		SentimentPolarity: round3(polarity),
		Keywords:          keywords,
	}
}

// keywordOrder keeps keyword evidence output deterministic.
var keywordOrder = []string{"verify", "upi", "lottery", "crypto", "resume", "love", "support"}

// heuristicVote tallies keyword hits per category. Ties resolve in the
// canonical category order.
func (c *Classifier) heuristicVote(clean string) (models.ScamCategory, float64) {
	scores := make(map[models.ScamCategory]int, len(models.Categories))
	for _, tok := range strings.Fields(clean) {
		if cat, ok := categoryKeywords[tok]; ok {
			scores[cat]++
		}
	}

	best := models.Categories[0]
	for _, cat := range models.Categories[1:] {
		if scores[cat] > scores[best] {
			best = cat
		}
	}
	return best, math.Min(1.0, float64(scores[best])/5.0)
}

// pluralityVote picks the label named most often; a three-way split
// falls to the ML voter.
func pluralityVote(ml, semantic, heuristic models.ScamCategory) models.ScamCategory {
	votes := []models.ScamCategory{ml, semantic, heuristic}
	best := ml
	bestCount := 0
	for _, candidate := range votes {
		count := 0
		for _, v := range votes {
			if v == candidate {
				count++
			}
		}
		if count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

// detectTone counts lexicon hits by substring, matching multi-word
// phrases like "action required".
func detectTone(clean string) models.ToneSignals {
	count := func(words []string) int {
		n := 0
		for _, w := range words {
			if strings.Contains(clean, w) {
				n++
			}
		}
		return n
	}

	urgency := count(urgentWords)
	financial := count(financialWords)
	reward := count(rewardWords)

	return models.ToneSignals{
		UrgencyScore:   round2(float64(urgency) / 3),
		FinancialScore: round2(float64(financial) / 4),
		RewardScore:    round2(float64(reward) / 3),
		ToneFactor:     math.Min(1.0, float64(urgency)*0.1+float64(financial)*0.1+float64(reward)*0.05),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
