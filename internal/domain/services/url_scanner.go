package services

import (
	"context"
	"net/url"
	"os"
	"regexp"
	"strings"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// osintEnricher is the slice of the OSINT layer the scanner needs.
type osintEnricher interface {
	Enrich(ctx context.Context, entity models.Entity) *models.OSINTReport
}

// URLScanner extracts URL candidates from case text and QR payloads
// from the artifact image, then scores each with heuristics blended
// with OSINT reputation.
type URLScanner struct {
	qr       QRDecoder
	enricher osintEnricher
	logger   *logger.Logger
}

// knownMaliciousDomains is the local threat map; values are display
// notes.
var knownMaliciousDomains = map[string]string{
	"phishingsite.com":  "Confirmed phishing campaign",
	"upibanksecure.xyz": "Fake UPI banking portal",
	"lotterywin.top":    "Lottery / prize scam",
	"freemoney.click":   "Investment fraud portal",
	"fraudportal.tk":    "Credential harvesting site",
	"kycupdate.cf":      "Fake KYC scam domain",
}

var suspiciousTLDs = []string{".xyz", ".top", ".tk", ".pw", ".cf", ".club", ".icu", ".zip", ".mov"}

var phishingKeywords = []string{"verify", "kyc", "login", "secure", "update", "bank", "account", "payment", "refund", "click"}

var urlTokenRE = regexp.MustCompile(`https?://[^\s]+`)

const maxTopHighRiskDomains = 5

func NewURLScanner(qr QRDecoder, enricher osintEnricher, log *logger.Logger) *URLScanner {
	return &URLScanner{
		qr:       qr,
		enricher: enricher,
		logger:   log.WithComponent("url_scanner"),
	}
}

// Scan analyzes every distinct URL found in the text or decoded from
// the image. imagePath may be empty when the case has no artifact.
func (s *URLScanner) Scan(ctx context.Context, text, imagePath string) ([]models.URLFinding, models.URLSummary) {
	type candidate struct {
		url    string
		fromQR bool
	}

	seen := make(map[string]struct{})
	var candidates []candidate
	for _, u := range urlTokenRE.FindAllString(text, -1) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		candidates = append(candidates, candidate{url: u})
	}
	for _, u := range s.decodeQR(imagePath) {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		candidates = append(candidates, candidate{url: u, fromQR: true})
	}

	findings := []models.URLFinding{}
	for _, c := range candidates {
		findings = append(findings, s.scanOne(ctx, c.url, c.fromQR))
	}

	return findings, summarize(findings)
}

func (s *URLScanner) scanOne(ctx context.Context, rawURL string, fromQR bool) models.URLFinding {
	heur := heuristicURLRisk(rawURL)

	var report *models.OSINTReport
	if s.enricher != nil && heur.domain != "" {
		report = s.enricher.Enrich(ctx, models.Entity{
			Type:       models.EntityTypeDomain,
			Value:      heur.domain,
			Confidence: 1,
		})
	}

	combined := heur.heuristics.RiskScore
	if report != nil && report.Risk == models.OSINTRiskHigh {
		combined += 20
		if combined > 100 {
			combined = 100
		}
	}

	return models.URLFinding{
		URL:          rawURL,
		Domain:       heur.domain,
		CombinedRisk: combined,
		RiskLevel:    models.OSINTRiskLabel(combined),
		Heuristics:   heur.heuristics,
		OSINT:        report,
		FromQR:       fromQR,
	}
}

type heuristicResult struct {
	domain     string
	heuristics models.URLHeuristics
}

// heuristicURLRisk applies the fixed rule table to one URL.
func heuristicURLRisk(rawURL string) heuristicResult {
	lower := strings.ToLower(rawURL)

	hostname := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		hostname = strings.ToLower(parsed.Hostname())
	}

	score := 0
	tags := []string{}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(hostname, tld) {
			score += 30
			tags = append(tags, models.URLTagSuspiciousTLD)
			break
		}
	}

	note := ""
	for bad, badNote := range knownMaliciousDomains {
		if strings.Contains(hostname, bad) {
			score += 50
			tags = append(tags, models.URLTagKnownMalicious)
			note = badNote
			break
		}
	}

	for _, kw := range phishingKeywords {
		if strings.Contains(lower, kw) {
			score += 20
			tags = append(tags, models.URLTagPhishingKW)
			break
		}
	}

	if !strings.HasPrefix(lower, "https://") {
		score += 10
		tags = append(tags, models.URLTagNoHTTPS)
	}

	if score > 100 {
		score = 100
	}

	return heuristicResult{
		domain: hostname,
		heuristics: models.URLHeuristics{
			RiskScore: score,
			RiskLevel: models.OSINTRiskLabel(score),
			Tags:      tags,
			Note:      note,
		},
	}
}

func (s *URLScanner) decodeQR(imagePath string) []string {
	if s.qr == nil || imagePath == "" {
		return nil
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", imagePath).Msg("artifact unreadable, skipping qr scan")
		return nil
	}
	payloads, err := s.qr.Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("qr decode failed")
		return nil
	}
	return payloads
}

// summarize rolls findings into the per-case URL summary. High-risk
// hosts are listed once each, in finding order, up to the cap.
func summarize(findings []models.URLFinding) models.URLSummary {
	summary := models.URLSummary{
		TotalURLsScanned:   len(findings),
		TopHighRiskDomains: []string{},
	}

	seenHosts := make(map[string]struct{})
	for _, f := range findings {
		switch f.RiskLevel {
		case models.OSINTRiskHigh:
			summary.HighRisk++
			if _, dup := seenHosts[f.Domain]; !dup && f.Domain != "" && len(summary.TopHighRiskDomains) < maxTopHighRiskDomains {
				seenHosts[f.Domain] = struct{}{}
				summary.TopHighRiskDomains = append(summary.TopHighRiskDomains, f.Domain)
			}
		case models.OSINTRiskMedium:
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}
	}
	return summary
}
