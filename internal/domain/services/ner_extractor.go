package services

import (
	"strings"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// NERExtractor wraps the NLP oracle and filters its spans down to the
// labels the pipeline keeps. Oracle failures are soft: the case still
// analyzes on regex entities alone.
type NERExtractor struct {
	oracle NLPOracle
	logger *logger.Logger
}

var acceptedNERLabels = map[string]models.EntityType{
	"PERSON":  models.EntityTypePerson,
	"ORG":     models.EntityTypeOrg,
	"GPE":     models.EntityTypeGPE,
	"PRODUCT": models.EntityTypeProduct,
	"EVENT":   models.EntityTypeEvent,
}

const (
	nerBaseConfidence    = 0.6
	nerUppercaseOrgBoost = 0.2
	nerMultiTokenBoost   = 0.1
	nerContextTokens     = 5
)

func NewNERExtractor(oracle NLPOracle, log *logger.Logger) *NERExtractor {
	return &NERExtractor{
		oracle: oracle,
		logger: log.WithComponent("ner_extractor"),
	}
}

// Extract returns named entities with accepted labels, deduplicated by
// normalized form keeping the highest-confidence occurrence. A nil
// oracle or an oracle error yields an empty slice.
func (e *NERExtractor) Extract(text string) []models.Entity {
	if e.oracle == nil || text == "" {
		return []models.Entity{}
	}

	spans, err := e.oracle.Entities(text)
	if err != nil {
		e.logger.Warn().Err(err).Msg("nlp oracle failed, continuing without named entities")
		return []models.Entity{}
	}

	index := make(map[string]int)
	entities := []models.Entity{}
	for _, span := range spans {
		entType, ok := acceptedNERLabels[span.Label]
		if !ok {
			continue
		}
		ent := models.Entity{
			Type:       entType,
			Value:      span.Text,
			Confidence: spanConfidence(entType, span.Text),
			Context:    tokenContext(text, span),
		}
		key := ent.Key()
		if i, dup := index[key]; dup {
			if ent.Confidence > entities[i].Confidence {
				entities[i] = ent
			}
			continue
		}
		index[key] = len(entities)
		entities = append(entities, ent)
	}

	e.logger.Debug().Int("entities", len(entities)).Msg("ner extraction complete")
	return entities
}

// spanConfidence starts from a flat base, boosted for all-uppercase ORG
// tokens and multi-token spans.
func spanConfidence(entType models.EntityType, value string) float64 {
	conf := nerBaseConfidence
	tokens := strings.Fields(value)
	if entType == models.EntityTypeOrg {
		for _, tok := range tokens {
			if len(tok) > 1 && tok == strings.ToUpper(tok) {
				conf += nerUppercaseOrgBoost
				break
			}
		}
	}
	if len(tokens) > 1 {
		conf += nerMultiTokenBoost
	}
	return round2(conf)
}

// tokenContext is the span plus up to five tokens on either side.
func tokenContext(text string, span TaggedSpan) string {
	if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return span.Text
	}

	before := strings.Fields(text[:span.Start])
	if len(before) > nerContextTokens {
		before = before[len(before)-nerContextTokens:]
	}
	after := strings.Fields(text[span.End:])
	if len(after) > nerContextTokens {
		after = after[:nerContextTokens]
	}

	parts := append(append(before, text[span.Start:span.End]), after...)
	return strings.Join(parts, " ")
}
