package models

import "time"

// OSINTRisk is the qualitative label derived from an aggregate score
type OSINTRisk string

const (
	OSINTRiskLow     OSINTRisk = "Low"
	OSINTRiskMedium  OSINTRisk = "Medium"
	OSINTRiskHigh    OSINTRisk = "High"
	OSINTRiskUnknown OSINTRisk = "Unknown"
)

// OSINTRiskLabel maps a 0-100 aggregate score to its label.
func OSINTRiskLabel(score int) OSINTRisk {
	switch {
	case score >= 70:
		return OSINTRiskHigh
	case score >= 40:
		return OSINTRiskMedium
	default:
		return OSINTRiskLow
	}
}

// SourceResult is the uniform shape every OSINT source call returns.
// Callers never branch on errors from a source, only on UsedFallback.
type SourceResult struct {
	Source       string `json:"source"`
	UsedFallback bool   `json:"used_fallback"`
	Error        string `json:"error,omitempty"`
	Note         string `json:"note,omitempty"`

	// Reputation sources (virustotal domain/url)
	Positives int       `json:"positives,omitempty"`
	Score     int       `json:"score,omitempty"`
	Risk      OSINTRisk `json:"risk,omitempty"`

	// WHOIS
	Registrar string `json:"registrar,omitempty"`
	Created   string `json:"created,omitempty"`
	Country   string `json:"country,omitempty"`
	AgeTag    string `json:"age_tag,omitempty"`

	// Blocklist
	Listed bool `json:"listed,omitempty"`

	// IP abuse
	AbuseConfidence int `json:"abuse_confidence,omitempty"`

	// Fallback substitution payload, present when UsedFallback is true
	Fallback *FallbackRecord `json:"fallback,omitempty"`
}

// FallbackRecord is a local lookup entry substituted when a live source
// is unavailable.
type FallbackRecord struct {
	Risk    string   `json:"risk"`
	Tags    []string `json:"tags"`
	Sources []string `json:"sources"`
}

// WHOIS age tags
const (
	AgeTagNewDomain   = "new_domain"
	AgeTagEstablished = "established"
)

// OSINTReport aggregates all source results for one entity
type OSINTReport struct {
	Entity         string         `json:"entity"`
	Type           EntityType     `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	Domain         string         `json:"domain,omitempty"`
	Sources        []SourceResult `json:"sources"`
	AggregateScore int            `json:"aggregate_score"`
	Risk           OSINTRisk      `json:"risk"`
}
