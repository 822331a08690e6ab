package models

// RiskLevel is the fused per-case risk label
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RiskLabelFor maps a fused score in [0,1] to its label. Thresholds are
// fixed at 0.45 and 0.75.
func RiskLabelFor(score float64) RiskLevel {
	switch {
	case score >= 0.75:
		return RiskLevelHigh
	case score >= 0.45:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// RiskFactors is the per-factor breakdown feeding the fused score, each
// normalized to [0,1].
type RiskFactors struct {
	ScamConfidence float64 `json:"scam_conf"`
	AvgEntityRisk  float64 `json:"avg_entity_risk"`
	KeywordScore   float64 `json:"kw_score"`
	ToneScore      float64 `json:"tone_score"`
	SentimentScore float64 `json:"sentiment_score"`
	OSINTScore     float64 `json:"osint_score"`
}

// EntityRiskDetail is the per-entity heuristic risk contribution
type EntityRiskDetail struct {
	Entity    string     `json:"entity"`
	Type      EntityType `json:"type"`
	RiskScore int        `json:"risk_score"`
	RiskLevel OSINTRisk  `json:"risk_level"`
	Tags      []string   `json:"tags"`
}

// RiskReport is the fused multi-factor verdict for one case
type RiskReport struct {
	Score         float64            `json:"score"`
	RiskLevel     RiskLevel          `json:"risk_level"`
	Rationale     string             `json:"rationale"`
	Factors       RiskFactors        `json:"factors"`
	EntityDetails []EntityRiskDetail `json:"entity_details"`
	ScamType      ScamCategory       `json:"scam_type"`
}
