package osint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Fallback database files, one JSON object per entity kind keyed by
// entity value.
const (
	fallbackDomainsFile = "domains.json"
	fallbackIPsFile     = "ips.json"
	fallbackEmailsFile  = "emails.json"
)

// FallbackStore serves local lookup records when live sources are
// unavailable. Files load lazily and missing files behave as empty
// databases.
type FallbackStore struct {
	dir    string
	logger *logger.Logger

	mu     sync.Mutex
	loaded map[string]map[string]models.FallbackRecord
}

func NewFallbackStore(dir string, log *logger.Logger) *FallbackStore {
	return &FallbackStore{
		dir:    dir,
		logger: log.WithComponent("osint_fallback"),
		loaded: make(map[string]map[string]models.FallbackRecord),
	}
}

// noMatchRecord is returned when the databases have nothing on the
// value.
func noMatchRecord() *models.FallbackRecord {
	return &models.FallbackRecord{
		Risk:    "unknown",
		Tags:    []string{"no_local_match"},
		Sources: []string{"fallback"},
	}
}

func (s *FallbackStore) Domain(domain string) *models.FallbackRecord {
	return s.lookup(fallbackDomainsFile, domain)
}

func (s *FallbackStore) IP(ip string) *models.FallbackRecord {
	return s.lookup(fallbackIPsFile, ip)
}

func (s *FallbackStore) Email(email string) *models.FallbackRecord {
	return s.lookup(fallbackEmailsFile, email)
}

func (s *FallbackStore) lookup(file, value string) *models.FallbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.loaded[file]
	if !ok {
		db = s.load(file)
		s.loaded[file] = db
	}
	if rec, hit := db[value]; hit {
		out := rec
		return &out
	}
	return noMatchRecord()
}

func (s *FallbackStore) load(file string) map[string]models.FallbackRecord {
	db := make(map[string]models.FallbackRecord)
	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", file).Msg("fallback database unreadable")
		}
		return db
	}
	if err := json.Unmarshal(data, &db); err != nil {
		s.logger.Warn().Err(err).Str("file", file).Msg("fallback database corrupt")
	}
	return db
}
