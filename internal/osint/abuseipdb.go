package osint

import (
	"context"
	"net/http"
	"time"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// abuseMaxAgeDays limits how far back abuse reports count.
const abuseMaxAgeDays = "180"

// AbuseIPDBClient checks IP abuse reputation.
type AbuseIPDBClient struct {
	client *http.Client
	apiURL string
	apiKey string
	logger *logger.Logger
}

func NewAbuseIPDBClient(cfg config.SourceConfig, log *logger.Logger) *AbuseIPDBClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &AbuseIPDBClient{
		client: &http.Client{Timeout: timeout},
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		logger: log.WithComponent("abuseipdb"),
	}
}

type abuseIPDBResponse struct {
	Data struct {
		AbuseConfidenceScore int `json:"abuseConfidenceScore"`
	} `json:"data"`
}

// Check returns the abuse confidence score for an IP.
func (c *AbuseIPDBClient) Check(ctx context.Context, ip string) models.SourceResult {
	result := models.SourceResult{Source: SourceAbuseIPDB}
	if c.apiKey == "" {
		result.UsedFallback = true
		result.Note = "no_api_key"
		return result
	}

	req, err := http.NewRequest(http.MethodGet, c.apiURL, nil)
	if err != nil {
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	q := req.URL.Query()
	q.Set("ipAddress", ip)
	q.Set("maxAgeInDays", abuseMaxAgeDays)
	req.URL.RawQuery = q.Encode()

	var resp abuseIPDBResponse
	if err := fetchJSON(ctx, c.client, req, &resp); err != nil {
		c.logger.Warn().Err(err).Str("ip", ip).Msg("abuse check failed")
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}

	result.AbuseConfidence = resp.Data.AbuseConfidenceScore
	result.Risk = models.OSINTRiskLabel(resp.Data.AbuseConfidenceScore)
	return result
}
