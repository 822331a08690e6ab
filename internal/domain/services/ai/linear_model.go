package ai

import (
	"math"
	"regexp"
	"strings"
)

// LinearModel is a multinomial logistic classifier over bag-of-words
// term frequencies. It is small enough to cold-start from the seed
// corpus in milliseconds and serializes to JSON for reuse across runs.
type LinearModel struct {
	Classes []string       `json:"classes"`
	Vocab   map[string]int `json:"vocab"`
	// Weights[class][term index]; Bias[class].
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// TrainingSample pairs a text with its category label.
type TrainingSample struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// SeedCorpus is the cold-start training set used when no persisted
// model exists yet.
var SeedCorpus = []TrainingSample{
	{"Your account has been locked. Verify now.", "Fake Bank / Financial Fraud"},
	{"Dear user, you have won a cash prize! Click below to claim.", "Lottery / Prize Scam"},
	{"Call Microsoft Support immediately to fix security issue.", "Tech Support Scam"},
	{"Work from home jobs available! Pay registration fees to apply.", "Fake Job / Recruitment Scam"},
	{"Double your crypto in 3 days! Send bitcoin now.", "Investment / Crypto Scam"},
	{"I love you, please send me a gift card to meet.", "Romance / Relationship Scam"},
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"been": {}, "below": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {}, "my": {},
	"of": {}, "on": {}, "or": {}, "our": {}, "please": {}, "the": {},
	"to": {}, "you": {}, "your": {}, "we": {}, "will": {}, "with": {},
}

// CleanText lowercases, strips punctuation, and collapses whitespace.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize splits cleaned text into non-stopword terms.
func Tokenize(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(CleanText(text)) {
		if _, skip := stopWords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

const (
	trainEpochs       = 400
	trainLearningRate = 0.5
)

// TrainLinearModel fits a model on the given samples with batch
// gradient descent. Deterministic: zero-initialized weights, fixed
// epoch count, samples visited in order.
func TrainLinearModel(samples []TrainingSample) *LinearModel {
	m := &LinearModel{Vocab: make(map[string]int)}

	classIdx := make(map[string]int)
	tokenized := make([][]string, len(samples))
	for i, s := range samples {
		if _, ok := classIdx[s.Label]; !ok {
			classIdx[s.Label] = len(m.Classes)
			m.Classes = append(m.Classes, s.Label)
		}
		tokenized[i] = Tokenize(s.Text)
		for _, tok := range tokenized[i] {
			if _, ok := m.Vocab[tok]; !ok {
				m.Vocab[tok] = len(m.Vocab)
			}
		}
	}

	nClasses := len(m.Classes)
	nTerms := len(m.Vocab)
	m.Weights = make([][]float64, nClasses)
	for c := range m.Weights {
		m.Weights[c] = make([]float64, nTerms)
	}
	m.Bias = make([]float64, nClasses)

	features := make([][]float64, len(samples))
	for i, toks := range tokenized {
		features[i] = m.vectorize(toks)
	}

	grad := make([][]float64, nClasses)
	gradBias := make([]float64, nClasses)
	for c := range grad {
		grad[c] = make([]float64, nTerms)
	}

	for epoch := 0; epoch < trainEpochs; epoch++ {
		for c := range grad {
			for j := range grad[c] {
				grad[c][j] = 0
			}
			gradBias[c] = 0
		}
		for i, x := range features {
			probs := m.softmax(x)
			target := classIdx[samples[i].Label]
			for c := 0; c < nClasses; c++ {
				delta := probs[c]
				if c == target {
					delta -= 1
				}
				for j, xv := range x {
					if xv != 0 {
						grad[c][j] += delta * xv
					}
				}
				gradBias[c] += delta
			}
		}
		scale := trainLearningRate / float64(len(samples))
		for c := 0; c < nClasses; c++ {
			for j := 0; j < nTerms; j++ {
				m.Weights[c][j] -= scale * grad[c][j]
			}
			m.Bias[c] -= scale * gradBias[c]
		}
	}

	return m
}

// PredictProba returns per-class probabilities for the text, aligned
// with Classes. Out-of-vocabulary terms contribute nothing.
func (m *LinearModel) PredictProba(text string) []float64 {
	return m.softmax(m.vectorize(Tokenize(text)))
}

// Predict returns the argmax class and its probability.
func (m *LinearModel) Predict(text string) (string, float64) {
	probs := m.PredictProba(text)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return m.Classes[best], probs[best]
}

func (m *LinearModel) vectorize(tokens []string) []float64 {
	x := make([]float64, len(m.Vocab))
	for _, tok := range tokens {
		if j, ok := m.Vocab[tok]; ok {
			x[j]++
		}
	}
	return x
}

func (m *LinearModel) softmax(x []float64) []float64 {
	logits := make([]float64, len(m.Classes))
	maxLogit := math.Inf(-1)
	for c := range logits {
		z := m.Bias[c]
		for j, xv := range x {
			if xv != 0 {
				z += m.Weights[c][j] * xv
			}
		}
		logits[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	var sum float64
	for c, z := range logits {
		logits[c] = math.Exp(z - maxLogit)
		sum += logits[c]
	}
	for c := range logits {
		logits[c] /= sum
	}
	return logits
}
