package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Narrow views over the pipeline's collaborators.
type scamClassifier interface {
	Classify(text string) models.ScamClass
}

type entityEnricher interface {
	EnrichAll(ctx context.Context, entities []models.Entity) []models.OSINTReport
}

type caseWriter interface {
	SaveCase(record *models.CaseRecord) error
}

type chainAppender interface {
	Append(action, actor, target string, sha256 *string, meta map[string]any) error
}

// Pipeline runs the fixed analysis chain for one artifact: OCR, entity
// extraction, classification, OSINT enrichment, risk fusion, URL/QR
// scanning, persistence, chain event. Stages run strictly in order on
// the caller's context.
type Pipeline struct {
	ocr        OCROracle
	regex      *RegexExtractor
	ner        *NERExtractor
	classifier scamClassifier
	enricher   entityEnricher
	fusion     *RiskFusion
	scanner    *URLScanner
	store      caseWriter
	chain      chainAppender

	uploadsDir string
	actor      string
	logger     *logger.Logger
}

type PipelineConfig struct {
	UploadsDir string
	Actor      string
}

func NewPipeline(
	ocr OCROracle,
	regex *RegexExtractor,
	ner *NERExtractor,
	classifier scamClassifier,
	enricher entityEnricher,
	fusion *RiskFusion,
	scanner *URLScanner,
	store caseWriter,
	chain chainAppender,
	cfg PipelineConfig,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		ocr:        ocr,
		regex:      regex,
		ner:        ner,
		classifier: classifier,
		enricher:   enricher,
		fusion:     fusion,
		scanner:    scanner,
		store:      store,
		chain:      chain,
		uploadsDir: cfg.UploadsDir,
		actor:      cfg.Actor,
		logger:     log.WithComponent("pipeline"),
	}
}

// Analyze runs the full chain for the artifact stored under fileID and
// persists the resulting case record. On failure a CaseAnalyzeFailed
// chain event preserves the error and stack before the error surfaces.
func (p *Pipeline) Analyze(ctx context.Context, fileID string) (*models.CaseRecord, error) {
	record, err := p.analyze(ctx, fileID)
	if err != nil {
		p.logger.Error().Err(err).Str("file_id", fileID).Msg("case analysis failed")
		if chainErr := p.chain.Append(models.ActionCaseAnalyzeFailed, p.actor, fileID, nil, map[string]any{
			"error": err.Error(),
			"stack": string(debug.Stack()),
		}); chainErr != nil {
			p.logger.Error().Err(chainErr).Msg("failed to record analysis failure")
		}
		return nil, err
	}
	return record, nil
}

func (p *Pipeline) analyze(ctx context.Context, fileID string) (*models.CaseRecord, error) {
	start := time.Now()
	log := p.logger.WithCaseID(fileID)

	artifactPath := filepath.Join(p.uploadsDir, fileID)
	if _, err := os.Stat(artifactPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", fileID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("stat artifact %s: %w", fileID, err)
	}

	rawText, err := p.ocr.ExtractText(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	log.Debug().Int("text_len", len(rawText)).Msg("text extracted")

	// Regex and NER hits are concatenated, never cross-deduplicated.
	entities := p.regex.Extract(rawText)
	entities = append(entities, p.ner.Extract(rawText)...)

	scam := p.classifier.Classify(rawText)

	osintHits := p.enricher.EnrichAll(ctx, entities)

	risk := p.fusion.Assess(rawText, entities, scam, osintHits)

	findings, urlSummary := p.scanner.Scan(ctx, rawText, artifactPath)

	record := &models.CaseRecord{
		FileID:            fileID,
		RawText:           rawText,
		Entities:          entities,
		ScamClass:         scam,
		OSINTHits:         osintHits,
		Risk:              risk,
		URLQRFindings:     findings,
		URLSummary:        urlSummary,
		AnalyzedAt:        time.Now().UTC(),
		ProcessingTimeSec: time.Since(start).Seconds(),
	}

	if err := p.store.SaveCase(record); err != nil {
		return nil, fmt.Errorf("persist case %s: %w", fileID, err)
	}

	if err := p.chain.Append(models.ActionCaseAnalyzed, p.actor, fileID, nil, map[string]any{
		"entities_found": len(entities),
		"category":       string(scam.Category),
		"risk_level":     string(risk.RiskLevel),
		"risk_score":     risk.Score,
	}); err != nil {
		return nil, fmt.Errorf("chain event for case %s: %w", fileID, err)
	}

	log.Info().
		Int("entities", len(entities)).
		Str("category", string(scam.Category)).
		Str("risk_level", string(risk.RiskLevel)).
		Float64("seconds", record.ProcessingTimeSec).
		Msg("case analyzed")
	return record, nil
}
