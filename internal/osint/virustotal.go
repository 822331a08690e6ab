package osint

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// VirusTotalClient queries domain and URL reputation.
type VirusTotalClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *logger.Logger
}

func NewVirusTotalClient(cfg config.SourceConfig, log *logger.Logger) *VirusTotalClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &VirusTotalClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.APIURL,
		apiKey:  cfg.APIKey,
		logger:  log.WithComponent("virustotal"),
	}
}

type vtAnalysisStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
}

type vtDomainResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats vtAnalysisStats `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

type vtSearchResponse struct {
	Data []struct {
		Attributes struct {
			LastAnalysisStats vtAnalysisStats `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// DomainReport looks up domain reputation.
func (c *VirusTotalClient) DomainReport(ctx context.Context, domain string) models.SourceResult {
	result := models.SourceResult{Source: SourceVirusTotal}
	if c.apiKey == "" {
		result.UsedFallback = true
		result.Note = "no_api_key"
		return result
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/domains/"+url.PathEscape(domain), nil)
	if err != nil {
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}
	req.Header.Set("x-apikey", c.apiKey)

	var resp vtDomainResponse
	if err := fetchJSON(ctx, c.client, req, &resp); err != nil {
		c.logger.Warn().Err(err).Str("domain", domain).Msg("domain lookup failed")
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}

	positives := resp.Data.Attributes.LastAnalysisStats.Malicious + resp.Data.Attributes.LastAnalysisStats.Suspicious
	result.Positives = positives
	result.Score = scoreFromPositives(positives)
	result.Risk = models.OSINTRiskLabel(result.Score)
	return result
}

// URLReport looks up URL reputation through the search endpoint and
// takes the worst detection count across returned objects.
func (c *VirusTotalClient) URLReport(ctx context.Context, rawURL string) models.SourceResult {
	result := models.SourceResult{Source: SourceVirusTotalURL}
	if c.apiKey == "" {
		result.UsedFallback = true
		result.Note = "no_api_key"
		return result
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/search", nil)
	if err != nil {
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}
	req.Header.Set("x-apikey", c.apiKey)
	q := req.URL.Query()
	q.Set("query", rawURL)
	req.URL.RawQuery = q.Encode()

	var resp vtSearchResponse
	if err := fetchJSON(ctx, c.client, req, &resp); err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("url lookup failed")
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}

	positives := 0
	for _, item := range resp.Data {
		if p := item.Attributes.LastAnalysisStats.Malicious + item.Attributes.LastAnalysisStats.Suspicious; p > positives {
			positives = p
		}
	}
	result.Positives = positives
	result.Score = scoreFromPositives(positives)
	result.Risk = models.OSINTRiskLabel(result.Score)
	return result
}
