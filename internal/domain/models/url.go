package models

// URLHeuristics is the rule-based portion of a URL verdict
type URLHeuristics struct {
	RiskScore int       `json:"risk_score"`
	RiskLevel OSINTRisk `json:"risk_level"`
	Tags      []string  `json:"tags"`
	Note      string    `json:"note,omitempty"`
}

// Heuristic tag values emitted by the URL scanner
const (
	URLTagSuspiciousTLD  = "suspicious_tld"
	URLTagKnownMalicious = "known_malicious_domain"
	URLTagPhishingKW     = "phishing_keyword"
	URLTagNoHTTPS        = "no_https"
)

// URLFinding is the combined heuristic + OSINT verdict for one URL or
// QR payload found in a case.
type URLFinding struct {
	URL          string        `json:"url"`
	Domain       string        `json:"domain"`
	CombinedRisk int           `json:"combined_risk"`
	RiskLevel    OSINTRisk     `json:"risk_level"`
	Heuristics   URLHeuristics `json:"heuristics"`
	OSINT        *OSINTReport  `json:"osint,omitempty"`
	FromQR       bool          `json:"from_qr,omitempty"`
}

// URLSummary rolls findings up per case
type URLSummary struct {
	TotalURLsScanned   int      `json:"total_urls_scanned"`
	HighRisk           int      `json:"high_risk"`
	MediumRisk         int      `json:"medium_risk"`
	LowRisk            int      `json:"low_risk"`
	TopHighRiskDomains []string `json:"top_high_risk_domains"`
}
