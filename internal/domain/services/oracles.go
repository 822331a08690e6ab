package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cyberlens/internal/domain/models"
)

// The analysis core treats model runtimes as opaque oracles. Each
// interface here is an external collaborator boundary; the bundled
// implementations are deterministic local stand-ins so the pipeline is
// runnable and testable without any model runtime attached.

// OCROracle extracts text from an artifact on disk. An empty string is
// a valid result.
type OCROracle interface {
	ExtractText(path string) (string, error)
}

// TaggedSpan is one labelled span returned by the NLP oracle.
type TaggedSpan struct {
	Label string
	Text  string
	Start int
	End   int
}

// NLPOracle maps text to tagged named-entity spans.
type NLPOracle interface {
	Entities(text string) ([]TaggedSpan, error)
}

// EmbeddingOracle maps text to a dense vector.
type EmbeddingOracle interface {
	Encode(text string) ([]float64, error)
}

// SentimentOracle scores text polarity in [-1, 1].
type SentimentOracle interface {
	Polarity(text string) (float64, error)
}

// QRDecoder extracts QR payloads from image bytes.
type QRDecoder interface {
	Decode(image []byte) ([]string, error)
}

// ---------------------------------------------------------------------
// Local defaults
// ---------------------------------------------------------------------

// LocalOCR reads .txt artifacts verbatim and returns empty text for
// binary formats, mirroring an OCR engine that found nothing. A missing
// artifact is an oracle failure.
type LocalOCR struct{}

func (LocalOCR) ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: ocr: %v", models.ErrOracleFailure, err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".txt" {
		return string(data), nil
	}
	return "", nil
}

// LocalNER is a heuristic tagger: runs of capitalized tokens become
// candidate spans, labelled ORG when any token is all-uppercase and
// PERSON otherwise. It exists so NER output flows end to end offline;
// a spaCy-class runtime replaces it in production.
type LocalNER struct{}

var capitalizedRun = regexp.MustCompile(`\b[A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*\b`)

func (LocalNER) Entities(text string) ([]TaggedSpan, error) {
	var spans []TaggedSpan
	for _, loc := range capitalizedRun.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		tokens := strings.Fields(value)
		if len(tokens) == 0 {
			continue
		}
		// Single common sentence-starters are too noisy to tag.
		if len(tokens) == 1 && len(tokens[0]) < 3 {
			continue
		}
		label := "PERSON"
		for _, tok := range tokens {
			if len(tok) > 1 && tok == strings.ToUpper(tok) {
				label = "ORG"
				break
			}
		}
		spans = append(spans, TaggedSpan{Label: label, Text: value, Start: loc[0], End: loc[1]})
	}
	return spans, nil
}

// LocalEmbedder hashes tokens into a fixed-width bag-of-words vector.
// Deterministic, so descriptor similarity is stable across runs.
type LocalEmbedder struct {
	Dim int
}

func (e LocalEmbedder) Encode(text string) ([]float64, error) {
	dim := e.Dim
	if dim <= 0 {
		dim = 128
	}
	vec := make([]float64, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		var h uint32 = 2166136261
		for i := 0; i < len(tok); i++ {
			h ^= uint32(tok[i])
			h *= 16777619
		}
		vec[h%uint32(dim)]++
	}
	return vec, nil
}

// LocalSentiment is a small polarity lexicon averaged over hits.
type LocalSentiment struct{}

var sentimentLexicon = map[string]float64{
	"congratulations": 0.9, "won": 0.8, "winner": 0.8, "prize": 0.7,
	"free": 0.6, "love": 0.8, "reward": 0.6, "gift": 0.5, "great": 0.6,
	"blocked": -0.6, "suspended": -0.7, "urgent": -0.4, "locked": -0.6,
	"fraud": -0.8, "problem": -0.5, "virus": -0.7, "alert": -0.4,
}

func (LocalSentiment) Polarity(text string) (float64, error) {
	var sum float64
	var n int
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?;:'\"")
		if v, ok := sentimentLexicon[tok]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	p := sum / float64(n)
	if p > 1 {
		p = 1
	} else if p < -1 {
		p = -1
	}
	return p, nil
}

// NoopQRDecoder reports no QR payloads; a zbar-class decoder replaces
// it in production.
type NoopQRDecoder struct{}

func (NoopQRDecoder) Decode([]byte) ([]string, error) {
	return nil, nil
}
