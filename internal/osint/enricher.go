package osint

import (
	"context"
	"net/url"
	"regexp"
	"time"

	"cyberlens/internal/config"
	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Cache persists successful source results between runs. Satisfied by
// the file store.
type Cache interface {
	SaveOSINT(source, query string, result models.SourceResult) error
	LoadOSINT(source, query string) (*models.SourceResult, error)
}

// Narrow views over the source clients so tests can stub them.
type domainReputer interface {
	DomainReport(ctx context.Context, domain string) models.SourceResult
}

type urlReputer interface {
	URLReport(ctx context.Context, rawURL string) models.SourceResult
}

type whoisLookup interface {
	DomainLookup(ctx context.Context, domain string) models.SourceResult
}

type blocklistChecker interface {
	Check(ctx context.Context, value string) models.SourceResult
}

type ipChecker interface {
	Check(ctx context.Context, ip string) models.SourceResult
}

// Enricher fans an entity out to its type-specific source set and
// folds the results into one OSINTReport.
type Enricher struct {
	domainRep domainReputer
	urlRep    urlReputer
	whois     whoisLookup
	blocklist blocklistChecker
	ipRep     ipChecker
	fallback  *FallbackStore
	cache     Cache
	logger    *logger.Logger
}

func NewEnricher(cfg config.SourcesConfig, fallback *FallbackStore, cache Cache, log *logger.Logger) *Enricher {
	vt := NewVirusTotalClient(cfg.VirusTotal, log)
	return &Enricher{
		domainRep: vt,
		urlRep:    vt,
		whois:     NewWhoisClient(cfg.Whois, log),
		blocklist: NewOpenPhishClient(cfg.OpenPhish, log),
		ipRep:     NewAbuseIPDBClient(cfg.AbuseIPDB, log),
		fallback:  fallback,
		cache:     cache,
		logger:    log.WithComponent("osint_enricher"),
	}
}

var emailDomainRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})`)

// Enrich runs the source set for one entity. Returns nil for entity
// types outside OSINT scope or values no domain can be derived from.
func (e *Enricher) Enrich(ctx context.Context, entity models.Entity) *models.OSINTReport {
	if !entity.Type.OSINTApplicable() {
		return nil
	}

	switch entity.Type {
	case models.EntityTypeEmail:
		m := emailDomainRE.FindStringSubmatch(entity.Value)
		if m == nil {
			return nil
		}
		return e.enrichEmail(ctx, entity, m[1])
	case models.EntityTypeURL:
		host := hostOf(entity.Value)
		if host == "" {
			return nil
		}
		return e.enrichURL(ctx, entity, host)
	case models.EntityTypeDomain:
		return e.enrichDomain(ctx, entity, entity.Value)
	case models.EntityTypeIP:
		return e.enrichIP(ctx, entity)
	}
	return nil
}

// EnrichAll enriches every applicable entity and skips the rest.
func (e *Enricher) EnrichAll(ctx context.Context, entities []models.Entity) []models.OSINTReport {
	reports := []models.OSINTReport{}
	for _, ent := range entities {
		if report := e.Enrich(ctx, ent); report != nil {
			reports = append(reports, *report)
		}
	}
	return reports
}

func (e *Enricher) enrichEmail(ctx context.Context, entity models.Entity, domain string) *models.OSINTReport {
	vt := e.cached(ctx, SourceVirusTotal, domain, func(ctx context.Context) models.SourceResult {
		return e.domainRep.DomainReport(ctx, domain)
	})
	wh := e.cached(ctx, SourceWhois, domain, func(ctx context.Context) models.SourceResult {
		return e.whois.DomainLookup(ctx, domain)
	})
	op := e.cached(ctx, SourceOpenPhish, domain, func(ctx context.Context) models.SourceResult {
		return e.blocklist.Check(ctx, domain)
	})
	e.substituteFallback(&vt, e.fallback.Email(entity.Value))
	e.substituteFallback(&wh, e.fallback.Email(entity.Value))
	e.substituteFallback(&op, e.fallback.Email(entity.Value))

	score := vt.Score
	if op.Listed {
		score += 30
	}
	if wh.AgeTag == models.AgeTagNewDomain {
		score += 10
	}
	return e.report(entity, domain, []models.SourceResult{vt, wh, op}, score)
}

func (e *Enricher) enrichURL(ctx context.Context, entity models.Entity, host string) *models.OSINTReport {
	vtURL := e.cached(ctx, SourceVirusTotalURL, entity.Value, func(ctx context.Context) models.SourceResult {
		return e.urlRep.URLReport(ctx, entity.Value)
	})
	vtDomain := e.cached(ctx, SourceVirusTotal, host, func(ctx context.Context) models.SourceResult {
		return e.domainRep.DomainReport(ctx, host)
	})
	wh := e.cached(ctx, SourceWhois, host, func(ctx context.Context) models.SourceResult {
		return e.whois.DomainLookup(ctx, host)
	})
	op := e.cached(ctx, SourceOpenPhish, entity.Value, func(ctx context.Context) models.SourceResult {
		return e.blocklist.Check(ctx, entity.Value)
	})
	e.substituteFallback(&vtURL, e.fallback.Domain(host))
	e.substituteFallback(&vtDomain, e.fallback.Domain(host))
	e.substituteFallback(&wh, e.fallback.Domain(host))
	e.substituteFallback(&op, e.fallback.Domain(host))

	score := vtURL.Score
	if vtDomain.Score > score {
		score = vtDomain.Score
	}
	if op.Listed {
		score += 20
	}
	return e.report(entity, host, []models.SourceResult{vtURL, vtDomain, wh, op}, score)
}

func (e *Enricher) enrichDomain(ctx context.Context, entity models.Entity, domain string) *models.OSINTReport {
	vt := e.cached(ctx, SourceVirusTotal, domain, func(ctx context.Context) models.SourceResult {
		return e.domainRep.DomainReport(ctx, domain)
	})
	wh := e.cached(ctx, SourceWhois, domain, func(ctx context.Context) models.SourceResult {
		return e.whois.DomainLookup(ctx, domain)
	})
	op := e.cached(ctx, SourceOpenPhish, domain, func(ctx context.Context) models.SourceResult {
		return e.blocklist.Check(ctx, domain)
	})
	e.substituteFallback(&vt, e.fallback.Domain(domain))
	e.substituteFallback(&wh, e.fallback.Domain(domain))
	e.substituteFallback(&op, e.fallback.Domain(domain))

	score := vt.Score
	if op.Listed {
		score += 30
	}
	if wh.AgeTag == models.AgeTagNewDomain {
		score += 15
	}
	return e.report(entity, domain, []models.SourceResult{vt, wh, op}, score)
}

func (e *Enricher) enrichIP(ctx context.Context, entity models.Entity) *models.OSINTReport {
	ab := e.cached(ctx, SourceAbuseIPDB, entity.Value, func(ctx context.Context) models.SourceResult {
		return e.ipRep.Check(ctx, entity.Value)
	})
	e.substituteFallback(&ab, e.fallback.IP(entity.Value))

	return e.report(entity, "", []models.SourceResult{ab}, ab.AbuseConfidence)
}

// cached returns a prior successful result for (source, query) or
// executes the call and caches success.
func (e *Enricher) cached(ctx context.Context, source, query string, call func(context.Context) models.SourceResult) models.SourceResult {
	if e.cache != nil {
		if hit, err := e.cache.LoadOSINT(source, query); err == nil {
			return *hit
		}
	}
	result := call(ctx)
	if !result.UsedFallback && e.cache != nil {
		if err := e.cache.SaveOSINT(source, query, result); err != nil {
			e.logger.Warn().Err(err).Str("source", source).Msg("failed to cache source result")
		}
	}
	return result
}

// substituteFallback attaches the local record to a fallen-back source
// result.
func (e *Enricher) substituteFallback(result *models.SourceResult, record *models.FallbackRecord) {
	if result.UsedFallback && e.fallback != nil {
		result.Fallback = record
	}
}

// report finalizes the aggregate. When every source fell back the
// entity is Unknown at score zero.
func (e *Enricher) report(entity models.Entity, domain string, sources []models.SourceResult, score int) *models.OSINTReport {
	allFallback := true
	for _, s := range sources {
		if !s.UsedFallback {
			allFallback = false
			break
		}
	}

	out := &models.OSINTReport{
		Entity:    entity.Value,
		Type:      entity.Type,
		Timestamp: time.Now().UTC(),
		Domain:    domain,
		Sources:   sources,
	}
	if allFallback {
		out.AggregateScore = 0
		out.Risk = models.OSINTRiskUnknown
		return out
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	out.AggregateScore = score
	out.Risk = models.OSINTRiskLabel(score)
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
