package osint

import (
	"bufio"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// openPhishMaxLines caps how much of the feed is scanned per check.
const openPhishMaxLines = 1000

// OpenPhishClient checks values against the public phishing feed. The
// feed needs no credential; only transport failures fall back.
type OpenPhishClient struct {
	client  *http.Client
	feedURL string
	logger  *logger.Logger
}

func NewOpenPhishClient(cfg config.SourceConfig, log *logger.Logger) *OpenPhishClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &OpenPhishClient{
		client:  &http.Client{Timeout: timeout},
		feedURL: cfg.APIURL,
		logger:  log.WithComponent("openphish"),
	}
}

// Check reports whether the domain or URL appears in the feed.
func (c *OpenPhishClient) Check(ctx context.Context, value string) models.SourceResult {
	result := models.SourceResult{Source: SourceOpenPhish}

	req, err := http.NewRequest(http.MethodGet, c.feedURL, nil)
	if err != nil {
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		c.logger.Warn().Err(err).Msg("feed fetch failed")
		result.UsedFallback = true
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.UsedFallback = true
		result.Error = "status_" + strconv.Itoa(resp.StatusCode)
		return result
	}

	scanner := bufio.NewScanner(resp.Body)
	for lines := 0; lines < openPhishMaxLines && scanner.Scan(); lines++ {
		if strings.Contains(scanner.Text(), value) {
			result.Listed = true
			break
		}
	}
	if err := scanner.Err(); err != nil && !result.Listed {
		result.UsedFallback = true
		result.Error = err.Error()
	}
	return result
}
