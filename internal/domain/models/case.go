package models

import "time"

// CaseRecord is the full analysis result for one artifact. FileID is
// assigned at upload and is the immutable primary key; a record is
// overwritten only by a full re-analysis of the same FileID. Field names
// are the wire format consumed by the report renderer and the threat hub.
type CaseRecord struct {
	FileID            string        `json:"file_id"`
	RawText           string        `json:"raw_text"`
	Entities          []Entity      `json:"entities"`
	ScamClass         ScamClass     `json:"scam_class"`
	OSINTHits         []OSINTReport `json:"osint_hits"`
	Risk              RiskReport    `json:"risk"`
	URLQRFindings     []URLFinding  `json:"url_qr_findings"`
	URLSummary        URLSummary    `json:"url_summary"`
	AnalyzedAt        time.Time     `json:"analyzed_at"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
}

// BatchSummary aggregates the cases of one batch
type BatchSummary struct {
	TotalCases       int                  `json:"total_cases"`
	UniqueEntities   int                  `json:"unique_entities"`
	AverageRisk      float64              `json:"average_risk"`
	DominantCategory ScamCategory         `json:"dominant_category"`
	Categories       map[ScamCategory]int `json:"categories"`
	SampleEntities   []string             `json:"sample_entities"`
}

// BatchRecord is the persisted result of a batch run
type BatchRecord struct {
	BatchID    string       `json:"batch_id"`
	Summary    BatchSummary `json:"summary"`
	Cases      []CaseRecord `json:"cases"`
	AnalyzedAt time.Time    `json:"analyzed_at"`
}

// EvidenceMeta describes an uploaded artifact
type EvidenceMeta struct {
	FileID       string       `json:"file_id"`
	OriginalName string       `json:"original_name"`
	SHA256       string       `json:"sha256"`
	UploadedAt   time.Time    `json:"uploaded_at"`
	StoredAt     string       `json:"stored_at"`
	FileType     string       `json:"file_type"`
	FileSize     int64        `json:"file_size"`
	PreScan      []URLFinding `json:"pre_scan,omitempty"`
}
