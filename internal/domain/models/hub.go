package models

import "time"

// SearchHit is the projection of a case matching a hub search
type SearchHit struct {
	FileID     string       `json:"file_id"`
	Category   ScamCategory `json:"category"`
	Score      float64      `json:"score"`
	RiskLevel  RiskLevel    `json:"risk_level"`
	AnalyzedAt time.Time    `json:"analyzed_at"`
}

// TopEntity is one row of the cross-case entity ranking
type TopEntity struct {
	Entity  string  `json:"entity"`
	Count   int     `json:"count"`
	AvgRisk float64 `json:"avg_risk"`
}

// EntityProfileCase is one case appearance within an entity profile
type EntityProfileCase struct {
	FileID     string        `json:"case_id"`
	Category   ScamCategory  `json:"category"`
	RiskScore  float64       `json:"risk_score"`
	OSINTHits  []OSINTReport `json:"osint_hits"`
	AnalyzedAt time.Time     `json:"timestamp"`
}

// EntityProfile is the full cross-case intelligence view of one entity
type EntityProfile struct {
	Entity           string              `json:"entity"`
	FoundIn          int                 `json:"found_in"`
	LinkedCategories []ScamCategory      `json:"linked_categories"`
	AvgRisk          float64             `json:"avg_risk"`
	Cases            []EntityProfileCase `json:"cases"`
}

// Cluster is a connected component of cases sharing at least one entity
type Cluster struct {
	Cases []string `json:"cases"`
}
