package models

import "time"

// Chain-of-custody actions
const (
	ActionUploadEvidence       = "UPLOAD_EVIDENCE"
	ActionCaseAnalyzed         = "CASE_ANALYZED"
	ActionCaseAnalyzeFailed    = "CASE_ANALYZE_FAILED"
	ActionBatchAnalyzeItem     = "BATCH_ANALYZE_ITEM"
	ActionBatchAnalyzeComplete = "BATCH_ANALYZE_COMPLETE"
	ActionGenerateReport       = "GENERATE_REPORT"
)

// ChainEvent is one append-only chain-of-custody entry. Events are never
// mutated after being written.
type ChainEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Target    string         `json:"target"`
	SHA256    *string        `json:"sha256"`
	Meta      map[string]any `json:"meta"`
}
