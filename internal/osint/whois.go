package osint

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// newDomainYear is the first registration year tagged new_domain.
const newDomainYear = 2023

// WhoisClient queries domain registration records.
type WhoisClient struct {
	client *http.Client
	apiURL string
	apiKey string
	logger *logger.Logger
}

func NewWhoisClient(cfg config.SourceConfig, log *logger.Logger) *WhoisClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WhoisClient{
		client: &http.Client{Timeout: timeout},
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		logger: log.WithComponent("whois"),
	}
}

type whoisResponse struct {
	WhoisRecord struct {
		RegistrarName         string `json:"registrarName"`
		CreatedDateNormalized string `json:"createdDateNormalized"`
		CreatedDate           string `json:"createdDate"`
		RegistryData          struct {
			Country string `json:"country"`
		} `json:"registryData"`
	} `json:"WhoisRecord"`
}

// DomainLookup fetches the registration record and derives the age tag.
func (c *WhoisClient) DomainLookup(ctx context.Context, domain string) models.SourceResult {
	result := models.SourceResult{Source: SourceWhois}
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
	q := req.URL.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("domainName", domain)
	q.Set("outputFormat", "JSON")
	req.URL.RawQuery = q.Encode()

	var resp whoisResponse
	if err := fetchJSON(ctx, c.client, req, &resp); err != nil {
		c.logger.Warn().Err(err).Str("domain", domain).Msg("whois lookup failed")
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}

	created := resp.WhoisRecord.CreatedDateNormalized
	if created == "" {
		created = resp.WhoisRecord.CreatedDate
	}

	result.Registrar = resp.WhoisRecord.RegistrarName
	result.Created = created
	result.Country = resp.WhoisRecord.RegistryData.Country
	result.AgeTag = ageTag(created)
	return result
}

// ageTag classifies a creation date by its leading year.
func ageTag(created string) string {
	if len(created) < 4 {
		return models.AgeTagEstablished
	}
	year, err := strconv.Atoi(created[:4])
	if err != nil || year < newDomainYear {
		return models.AgeTagEstablished
	}
	return models.AgeTagNewDomain
}
