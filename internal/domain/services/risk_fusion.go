package services

import (
	"math"
	"regexp"
	"strings"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// RiskFusion folds the per-case signals into one weighted score with a
// human-readable rationale.
type RiskFusion struct {
	weights config.RiskConfig
	logger  *logger.Logger
}

// High-signal and supporting keyword lexicons for the kw_score factor.
var (
	highRiskKeywords   = []string{"lottery", "prize", "winner", "kyc", "otp", "blocked", "suspended", "verify"}
	mediumRiskKeywords = []string{"account", "bank", "payment", "refund", "urgent", "offer", "update", "transfer"}
)

// Manipulative phrasing patterns for the tone factor.
var manipulativePhrases = []*regexp.Regexp{
	regexp.MustCompile(`act now`),
	regexp.MustCompile(`limited time`),
	regexp.MustCompile(`verify account`),
	regexp.MustCompile(`update details`),
	regexp.MustCompile(`click here`),
	regexp.MustCompile(`avoid suspension`),
}

// Per-entity heuristic tables.
var (
	entitySuspiciousTLDs = []string{".xyz", ".top", ".tk", ".pw", ".club", ".cf"}
	entityPhishingWords  = []string{"verify", "kyc", "update", "secure", "account", "review"}
	trustedDomainMarkers = []string{"americanexpress", "amazon", "gov", "edu", "bank"}
	entityForeignTLDs    = []string{".cl", ".ru"}
)

var emailDomainPart = regexp.MustCompile(`@([\w.-]+)`)

func NewRiskFusion(weights config.RiskConfig, log *logger.Logger) *RiskFusion {
	return &RiskFusion{
		weights: weights,
		logger:  log.WithComponent("risk_fusion"),
	}
}

// Assess fuses text, entities, classification and OSINT reports into a
// RiskReport. All factors live in [0,1]; the final score is a weighted
// sum with category-dependent weight bumps that are deliberately not
// renormalized, inflating totals slightly for the bumped categories.
func (r *RiskFusion) Assess(rawText string, entities []models.Entity, scam models.ScamClass, osintHits []models.OSINTReport) models.RiskReport {
	lower := strings.ToLower(rawText)

	details := make([]models.EntityRiskDetail, 0, len(entities))
	var entityRiskSum float64
	for _, ent := range entities {
		detail := entityRiskDetail(ent)
		details = append(details, detail)
		entityRiskSum += float64(detail.RiskScore)
	}

	factors := models.RiskFactors{
		ScamConfidence: scam.Confidence,
		KeywordScore:   keywordScore(lower),
		ToneScore:      toneScore(lower),
		SentimentScore: 1 - math.Abs(scam.SentimentPolarity),
		OSINTScore:     osintScore(osintHits),
	}
	if len(details) > 0 {
		factors.AvgEntityRisk = entityRiskSum / float64(len(details)) / 100
	}

	weights := r.adjustedWeights(scam.Category)

	score := factors.ScamConfidence*weights.ScamWeight +
		factors.AvgEntityRisk*weights.EntityWeight +
		factors.KeywordScore*weights.KeywordWeight +
		factors.ToneScore*weights.ToneWeight +
		factors.SentimentScore*weights.SentimentWeight +
		factors.OSINTScore*weights.OSINTWeight
	score = math.Round(score*1000) / 1000

	report := models.RiskReport{
		Score:         score,
		RiskLevel:     models.RiskLabelFor(score),
		Rationale:     rationale(factors, scam.Category),
		Factors:       factors,
		EntityDetails: details,
		ScamType:      scam.Category,
	}

	r.logger.Debug().
		Float64("score", score).
		Str("risk_level", string(report.RiskLevel)).
		Msg("risk fusion complete")
	return report
}

// adjustedWeights applies the category-dependent bumps.
func (r *RiskFusion) adjustedWeights(category models.ScamCategory) config.RiskConfig {
	w := r.weights
	lower := strings.ToLower(string(category))
	switch {
	case strings.Contains(lower, "investment"):
		w.OSINTWeight += 0.05
	case strings.Contains(lower, "phishing"):
		w.KeywordWeight += 0.05
	case strings.Contains(lower, "loan"):
		w.EntityWeight += 0.05
	}
	return w
}

// entityRiskDetail applies the per-entity rule table, scales by the
// entity's extraction confidence, and caps at 100.
func entityRiskDetail(ent models.Entity) models.EntityRiskDetail {
	value := strings.ToLower(ent.Value)
	score := 0
	tags := []string{}

	for _, tld := range entitySuspiciousTLDs {
		if strings.Contains(value, tld) {
			score += 20
			tags = append(tags, "suspicious_tld")
			break
		}
	}

	for _, kw := range entityPhishingWords {
		if strings.Contains(value, kw) {
			score += 25
			tags = append(tags, "phishing_keyword")
			break
		}
	}

	if ent.Type == models.EntityTypeEmail {
		if m := emailDomainPart.FindStringSubmatch(value); m != nil {
			trusted := false
			for _, marker := range trustedDomainMarkers {
				if strings.Contains(m[1], marker) {
					trusted = true
					break
				}
			}
			if !trusted {
				score += 30
				tags = append(tags, "unverified_domain")
			}
		}
	}

	for _, tld := range entityForeignTLDs {
		if strings.Contains(value, tld) {
			score += 15
			tags = append(tags, "foreign_domain")
			break
		}
	}

	if ent.Type == models.EntityTypeUPI || ent.Type == models.EntityTypeCryptoWallet {
		score += 10
		tags = append(tags, "direct_payment_channel")
	}

	if ent.Confidence > 0 {
		score = int(math.Round(float64(score) * ent.Confidence))
	}
	if score > 100 {
		score = 100
	}

	return models.EntityRiskDetail{
		Entity:    ent.Value,
		Type:      ent.Type,
		RiskScore: score,
		RiskLevel: models.OSINTRiskLabel(score),
		Tags:      tags,
	}
}

func keywordScore(lower string) float64 {
	var high, medium int
	for _, kw := range highRiskKeywords {
		if strings.Contains(lower, kw) {
			high++
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(lower, kw) {
			medium++
		}
	}
	return math.Min(1, 0.12*float64(high)+0.05*float64(medium))
}

func toneScore(lower string) float64 {
	matches := 0
	for _, re := range manipulativePhrases {
		if re.MatchString(lower) {
			matches++
		}
	}
	return math.Min(1, 0.15*float64(matches))
}

func osintScore(hits []models.OSINTReport) float64 {
	var sum float64
	for _, hit := range hits {
		sum += math.Min(1, float64(hit.AggregateScore)/100*0.3)
	}
	return math.Min(1, sum)
}

// rationale emits one sentence per factor that crossed its threshold.
func rationale(f models.RiskFactors, category models.ScamCategory) string {
	var parts []string
	if f.ScamConfidence > 0.7 {
		parts = append(parts, "Classifier is highly confident this matches the "+string(category)+" pattern.")
	}
	if f.AvgEntityRisk > 0.3 {
		parts = append(parts, "Extracted entities carry elevated risk indicators.")
	}
	if f.KeywordScore > 0.3 {
		parts = append(parts, "Multiple high-risk keywords are present in the text.")
	}
	if f.ToneScore > 0.3 {
		parts = append(parts, "Manipulative or pressuring language was detected.")
	}
	if f.OSINTScore > 0.1 {
		parts = append(parts, "External intelligence sources flagged linked infrastructure.")
	}
	if len(parts) == 0 {
		return "No major fraud indicators found."
	}
	return strings.Join(parts, " ")
}
