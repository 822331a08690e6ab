package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

const hashChunkSize = 4096

type metaWriter interface {
	SaveEvidenceMeta(meta *models.EvidenceMeta) error
}

// EvidenceIntake stores uploaded artifacts, verifies integrity and logs
// custody. Transport concerns (HTTP, multipart) are the caller's
// problem; intake works on bytes plus the original filename.
type EvidenceIntake struct {
	uploadsDir string
	allowed    map[string]struct{}
	scanner    *URLScanner
	meta       metaWriter
	chain      chainAppender
	actor      string
	logger     *logger.Logger
}

func NewEvidenceIntake(
	uploadsDir string,
	allowedExtensions []string,
	scanner *URLScanner,
	meta metaWriter,
	chain chainAppender,
	actor string,
	log *logger.Logger,
) *EvidenceIntake {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &EvidenceIntake{
		uploadsDir: uploadsDir,
		allowed:    allowed,
		scanner:    scanner,
		meta:       meta,
		chain:      chain,
		actor:      actor,
		logger:     log.WithComponent("evidence_intake"),
	}
}

// Store writes the artifact under a fresh uuid-based file id, hashes it,
// records the custody event and runs the URL/QR pre-scan on image
// artifacts. The returned metadata is also persisted.
func (e *EvidenceIntake) Store(ctx context.Context, content []byte, originalName string) (*models.EvidenceMeta, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := e.allowed[ext]; !ok {
		return nil, fmt.Errorf("file type %q: %w", ext, models.ErrUnsupported)
	}

	if err := os.MkdirAll(e.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	fileID := uuid.New().String() + ext
	storedAt := filepath.Join(e.uploadsDir, fileID)
	if err := os.WriteFile(storedAt, content, 0o644); err != nil {
		return nil, fmt.Errorf("store artifact %s: %w", fileID, err)
	}

	hash, err := sha256File(storedAt)
	if err != nil {
		return nil, fmt.Errorf("hash artifact %s: %w", fileID, err)
	}

	if err := e.chain.Append(models.ActionUploadEvidence, e.actor, fileID, &hash, map[string]any{
		"original_name": originalName,
		"file_type":     ext,
		"size_bytes":    int64(len(content)),
	}); err != nil {
		return nil, fmt.Errorf("chain event for upload %s: %w", fileID, err)
	}

	meta := &models.EvidenceMeta{
		FileID:       fileID,
		OriginalName: originalName,
		SHA256:       hash,
		UploadedAt:   time.Now().UTC(),
		StoredAt:     storedAt,
		FileType:     ext,
		FileSize:     int64(len(content)),
	}

	if e.scanner != nil && isImageExt(ext) {
		findings, _ := e.scanner.Scan(ctx, "", storedAt)
		meta.PreScan = findings
	}

	if err := e.meta.SaveEvidenceMeta(meta); err != nil {
		return nil, fmt.Errorf("persist metadata for %s: %w", fileID, err)
	}

	e.logger.Info().
		Str("file_id", fileID).
		Str("original_name", originalName).
		Int64("size_bytes", meta.FileSize).
		Msg("evidence stored")
	return meta, nil
}

func isImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// sha256File hashes the stored artifact in fixed-size chunks so large
// evidence files never load twice into memory.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashChunkSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
