package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// maxSampleEntities caps the entity sample carried in a batch summary.
const maxSampleEntities = 10

type caseAnalyzer interface {
	Analyze(ctx context.Context, fileID string) (*models.CaseRecord, error)
}

type batchWriter interface {
	SaveBatch(record *models.BatchRecord) error
}

// BatchAnalyzer runs the case pipeline over a list of artifacts,
// tolerating per-artifact failures, and persists an aggregated batch
// record.
type BatchAnalyzer struct {
	pipeline caseAnalyzer
	store    batchWriter
	chain    chainAppender
	actor    string
	logger   *logger.Logger
}

func NewBatchAnalyzer(pipeline caseAnalyzer, store batchWriter, chain chainAppender, actor string, log *logger.Logger) *BatchAnalyzer {
	return &BatchAnalyzer{
		pipeline: pipeline,
		store:    store,
		chain:    chain,
		actor:    actor,
		logger:   log.WithComponent("batch_analyzer"),
	}
}

// Analyze processes the artifacts sequentially under a fresh batch id.
// A failing artifact is logged and skipped; the batch fails only when
// no artifact analyzed successfully.
func (b *BatchAnalyzer) Analyze(ctx context.Context, fileIDs []string) (*models.BatchRecord, error) {
	batchID := uuid.New().String()[:8]
	log := b.logger.WithBatchID(batchID)
	log.Info().Int("files", len(fileIDs)).Msg("starting batch analysis")

	cases := []models.CaseRecord{}
	for _, fileID := range fileIDs {
		record, err := b.pipeline.Analyze(ctx, fileID)
		if err != nil {
			log.Warn().Err(err).Str("file_id", fileID).Msg("skipping failed artifact")
			continue
		}
		cases = append(cases, *record)

		if err := b.chain.Append(models.ActionBatchAnalyzeItem, b.actor, fileID, nil, map[string]any{
			"batch_id":       batchID,
			"entities_found": len(record.Entities),
			"risk_level":     string(record.Risk.RiskLevel),
		}); err != nil {
			return nil, fmt.Errorf("chain event for batch item %s: %w", fileID, err)
		}
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("batch %s: no artifact analyzed successfully", batchID)
	}

	record := &models.BatchRecord{
		BatchID:    batchID,
		Summary:    summarizeBatch(cases),
		Cases:      cases,
		AnalyzedAt: time.Now().UTC(),
	}

	if err := b.store.SaveBatch(record); err != nil {
		return nil, fmt.Errorf("persist batch %s: %w", batchID, err)
	}

	if err := b.chain.Append(models.ActionBatchAnalyzeComplete, b.actor, batchID, nil, map[string]any{
		"total_cases":       record.Summary.TotalCases,
		"average_risk":      record.Summary.AverageRisk,
		"dominant_category": string(record.Summary.DominantCategory),
	}); err != nil {
		return nil, fmt.Errorf("chain event for batch %s: %w", batchID, err)
	}

	log.Info().
		Int("cases", len(cases)).
		Float64("average_risk", record.Summary.AverageRisk).
		Msg("batch analysis complete")
	return record, nil
}

// summarizeBatch folds the successful cases into one summary. The
// entity union and category histogram keep first-seen order so ties in
// the dominant category resolve deterministically.
func summarizeBatch(cases []models.CaseRecord) models.BatchSummary {
	seen := make(map[string]struct{})
	union := []string{}
	categories := make(map[models.ScamCategory]int)
	categoryOrder := []models.ScamCategory{}
	var riskSum float64

	for _, c := range cases {
		for _, ent := range c.Entities {
			key := strings.ToLower(ent.Value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, ent.Value)
		}
		riskSum += c.Risk.Score

		cat := c.ScamClass.Category
		if _, counted := categories[cat]; !counted {
			categoryOrder = append(categoryOrder, cat)
		}
		categories[cat]++
	}

	dominant := models.CategoryUnclassified
	best := 0
	for _, cat := range categoryOrder {
		if categories[cat] > best {
			dominant = cat
			best = categories[cat]
		}
	}

	sample := union
	if len(sample) > maxSampleEntities {
		sample = sample[:maxSampleEntities]
	}

	return models.BatchSummary{
		TotalCases:       len(cases),
		UniqueEntities:   len(union),
		AverageRisk:      math.Round(riskSum/float64(len(cases))*100) / 100,
		DominantCategory: dominant,
		Categories:       categories,
		SampleEntities:   sample,
	}
}
