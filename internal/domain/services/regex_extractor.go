package services

import (
	"math"
	"regexp"
	"strings"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// RegexExtractor pulls structured indicators out of raw artifact text.
// Hits are deduplicated by (type, lowercased value), first occurrence
// wins.
type RegexExtractor struct {
	patterns map[models.EntityType]*regexp.Regexp
	order    []models.EntityType
	logger   *logger.Logger
}

// Base confidence per indicator shape. Pattern precision drives the
// number: IFSC codes are near-unambiguous, QR placeholders are not.
var baseConfidence = map[models.EntityType]float64{
	models.EntityTypePhone:         0.75,
	models.EntityTypeEmail:         0.90,
	models.EntityTypeURL:           0.85,
	models.EntityTypeUPI:           0.88,
	models.EntityTypeIP:            0.80,
	models.EntityTypeIFSC:          0.95,
	models.EntityTypePAN:           0.90,
	models.EntityTypeCryptoWallet:  0.70,
	models.EntityTypeInvoiceID:     0.60,
	models.EntityTypeDomain:        0.80,
	models.EntityTypeQRPlaceholder: 0.50,
}

// scamKeywords bump confidence when the matched value itself carries
// one.
var scamKeywords = []string{
	"kyc", "verify", "account", "update", "bank", "payment", "lottery",
	"offer", "cashback", "refund", "prize", "winner", "secure", "otp",
	"support", "login", "credentials", "reward", "paytm", "upi",
}

const contextWindow = 40

// NewRegexExtractor compiles the indicator patterns once.
func NewRegexExtractor(log *logger.Logger) *RegexExtractor {
	pats := map[models.EntityType]string{
		models.EntityTypePhone:         `\b(?:\+91[\s-]?)?[6-9]\d{9}\b`,
		models.EntityTypeEmail:         `\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}\b`,
		models.EntityTypeURL:           `https?://[^\s<>()"']+`,
		models.EntityTypeUPI:           `\b[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}\b`,
		models.EntityTypeIP:            `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
		models.EntityTypeIFSC:          `\b[A-Z]{4}0[A-Z0-9]{6}\b`,
		models.EntityTypePAN:           `\b[A-Z]{5}[0-9]{4}[A-Z]\b`,
		models.EntityTypeCryptoWallet:  `\b(?:0x[a-fA-F0-9]{40}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})\b`,
		models.EntityTypeInvoiceID:     `\bINV[-_]?\d{5,10}\b`,
		models.EntityTypeQRPlaceholder: `QR\s?Code|Scan\s?(?:Here|Now|to\s?Pay)`,
		models.EntityTypeDomain:        `\b[a-zA-Z0-9.-]+\.(?:com|in|net|org|xyz|shop|co|io|gov|edu)\b`,
	}

	order := []models.EntityType{
		models.EntityTypePhone,
		models.EntityTypeEmail,
		models.EntityTypeURL,
		models.EntityTypeUPI,
		models.EntityTypeIP,
		models.EntityTypeIFSC,
		models.EntityTypePAN,
		models.EntityTypeCryptoWallet,
		models.EntityTypeInvoiceID,
		models.EntityTypeQRPlaceholder,
		models.EntityTypeDomain,
	}

	compiled := make(map[models.EntityType]*regexp.Regexp, len(pats))
	for t, p := range pats {
		compiled[t] = regexp.MustCompile(p)
	}

	return &RegexExtractor{
		patterns: compiled,
		order:    order,
		logger:   log.WithComponent("regex_extractor"),
	}
}

// Extract runs every pattern over the text in a fixed order. Empty
// text yields an empty slice.
func (e *RegexExtractor) Extract(text string) []models.Entity {
	if strings.TrimSpace(text) == "" {
		return []models.Entity{}
	}

	seen := make(map[string]struct{})
	entities := []models.Entity{}

	for _, entType := range e.order {
		re := e.patterns[entType]
		for _, loc := range re.FindAllStringIndex(text, -1) {
			value := normalizeMatch(text[loc[0]:loc[1]])
			if value == "" {
				continue
			}

			key := string(entType) + ":" + strings.ToLower(value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			entities = append(entities, models.Entity{
				Type:       entType,
				Value:      value,
				Confidence: matchConfidence(entType, value),
				Context:    contextAround(text, loc[0], loc[1]),
			})
		}
	}

	e.logger.Debug().Int("entities", len(entities)).Msg("regex extraction complete")
	return entities
}

// matchConfidence is the per-type base plus a scam-keyword bump when
// the value itself carries one, capped at 1.0 and rounded.
func matchConfidence(entType models.EntityType, value string) float64 {
	conf, ok := baseConfidence[entType]
	if !ok {
		conf = 0.5
	}

	lower := strings.ToLower(value)
	for _, kw := range scamKeywords {
		if strings.Contains(lower, kw) {
			conf += 0.1
			break
		}
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return round2(conf)
}

// normalizeMatch trims stray punctuation and folds newlines out of a
// raw match.
func normalizeMatch(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.TrimSpace(value)
	return strings.Trim(value, ".,;:")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func contextAround(text string, start, end int) string {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}
