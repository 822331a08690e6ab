// Package store implements the disk-backed JSON store that owns all case,
// batch and OSINT-cache persistence.
package store

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Directory names under the data root
const (
	dirAnalysisCache = "analysis_cache"
	dirOSINTCache    = "osint_cache"
	dirBatches       = "batches"
	dirMetadata      = "metadata"
)

// DefaultOSINTTTL is used when no TTL is configured.
const DefaultOSINTTTL = 24 * time.Hour

// FileStore is a keyed JSON store rooted at a data directory. Case
// records have no TTL and are overwritten by re-analysis; OSINT entries
// are treated as absent once older than the TTL.
type FileStore struct {
	root     string
	osintTTL time.Duration
	logger   *logger.Logger
}

// New creates a FileStore rooted at root.
func New(root string, osintTTL time.Duration, log *logger.Logger) (*FileStore, error) {
	if osintTTL <= 0 {
		osintTTL = DefaultOSINTTTL
	}

	for _, dir := range []string{dirAnalysisCache, dirOSINTCache, dirBatches, dirMetadata} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
		}
	}

	return &FileStore{
		root:     root,
		osintTTL: osintTTL,
		logger:   log.WithComponent("store"),
	}, nil
}

// Root returns the data root the store was created with.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *FileStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrCorruptCache, filepath.Base(path), err)
	}
	return nil
}

// SaveCase persists a case record under its file id, overwriting any
// previous analysis.
func (s *FileStore) SaveCase(record *models.CaseRecord) error {
	path := filepath.Join(s.root, dirAnalysisCache, record.FileID+".json")
	return s.writeJSON(path, record)
}

// LoadCase loads one case record by file id.
func (s *FileStore) LoadCase(fileID string) (*models.CaseRecord, error) {
	var record models.CaseRecord
	path := filepath.Join(s.root, dirAnalysisCache, fileID+".json")
	if err := s.readJSON(path, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListCases loads all persisted case records. The directory is listed
// once (snapshot semantics); corrupt entries are skipped with a warning.
func (s *FileStore) ListCases() ([]models.CaseRecord, error) {
	dir := filepath.Join(s.root, dirAnalysisCache)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis cache: %w", err)
	}

	cases := make([]models.CaseRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var record models.CaseRecord
		if err := s.readJSON(filepath.Join(dir, entry.Name()), &record); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable case record")
			continue
		}
		cases = append(cases, record)
	}
	return cases, nil
}

// SaveBatch persists a batch record under its batch id.
func (s *FileStore) SaveBatch(record *models.BatchRecord) error {
	path := filepath.Join(s.root, dirBatches, record.BatchID+".json")
	return s.writeJSON(path, record)
}

// LoadBatch loads one batch record by batch id.
func (s *FileStore) LoadBatch(batchID string) (*models.BatchRecord, error) {
	var record models.BatchRecord
	path := filepath.Join(s.root, dirBatches, batchID+".json")
	if err := s.readJSON(path, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveEvidenceMeta persists the intake metadata for an uploaded artifact.
func (s *FileStore) SaveEvidenceMeta(meta *models.EvidenceMeta) error {
	path := filepath.Join(s.root, dirMetadata, meta.FileID+".json")
	return s.writeJSON(path, meta)
}

// LoadEvidenceMeta loads intake metadata by file id.
func (s *FileStore) LoadEvidenceMeta(fileID string) (*models.EvidenceMeta, error) {
	var meta models.EvidenceMeta
	path := filepath.Join(s.root, dirMetadata, fileID+".json")
	if err := s.readJSON(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// osintEnvelope wraps a cached source result with its write time so TTL
// can be checked on read.
type osintEnvelope struct {
	CachedAt time.Time           `json:"cached_at"`
	Payload  models.SourceResult `json:"payload"`
}

// OSINTKey derives the stable cache key for a source/query pair.
func OSINTKey(source, query string) string {
	sum := sha1.Sum([]byte(source + "\x00" + query))
	return hex.EncodeToString(sum[:])
}

// SaveOSINT caches a source result for source/query.
func (s *FileStore) SaveOSINT(source, query string, result models.SourceResult) error {
	env := osintEnvelope{CachedAt: time.Now().UTC(), Payload: result}
	path := filepath.Join(s.root, dirOSINTCache, OSINTKey(source, query)+".json")
	return s.writeJSON(path, env)
}

// LoadOSINT returns a cached source result, or ErrNotFound when absent
// or expired. An entry older than the TTL behaves exactly like an
// absent one.
func (s *FileStore) LoadOSINT(source, query string) (*models.SourceResult, error) {
	var env osintEnvelope
	path := filepath.Join(s.root, dirOSINTCache, OSINTKey(source, query)+".json")
	if err := s.readJSON(path, &env); err != nil {
		return nil, err
	}
	if time.Since(env.CachedAt) > s.osintTTL {
		return nil, models.ErrNotFound
	}
	return &env.Payload, nil
}

// SaveModel persists arbitrary model parameters (classifier weights)
// under a relative path inside the data root.
func (s *FileStore) SaveModel(relPath string, v any) error {
	path := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	return s.writeJSON(path, v)
}

// LoadModel loads model parameters saved with SaveModel.
func (s *FileStore) LoadModel(relPath string, v any) error {
	return s.readJSON(filepath.Join(s.root, relPath), v)
}
