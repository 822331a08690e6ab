// Package osint queries external reputation sources for extracted
// entities. Every source call returns a uniform SourceResult and never
// an error: unavailable credentials, transport failures, and non-200
// statuses all degrade to used_fallback=true so the pipeline keeps
// moving.
package osint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Source slugs as they appear in reports and cache keys.
const (
	SourceVirusTotal    = "virustotal"
	SourceVirusTotalURL = "virustotal_url"
	SourceWhois         = "whois"
	SourceOpenPhish     = "openphish"
	SourceAbuseIPDB     = "abuseipdb"
)

// scoreFromPositives maps a detection count to a 0-100 score.
func scoreFromPositives(count int) int {
	score := 20 * count
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// fetchJSON executes the request and decodes a 200 response into out.
// Any other outcome is an error the caller folds into its fallback
// result.
func fetchJSON(ctx context.Context, client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status_%d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
