package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
)

type memMetaWriter struct {
	saved []*models.EvidenceMeta
}

func (m *memMetaWriter) SaveEvidenceMeta(meta *models.EvidenceMeta) error {
	m.saved = append(m.saved, meta)
	return nil
}

type custodyRecorder struct {
	actions []string
	targets []string
	hashes  []*string
	metas   []map[string]any
}

func (c *custodyRecorder) Append(action, _, target string, sha256 *string, meta map[string]any) error {
	c.actions = append(c.actions, action)
	c.targets = append(c.targets, target)
	c.hashes = append(c.hashes, sha256)
	c.metas = append(c.metas, meta)
	return nil
}

func newTestIntake(t *testing.T, scanner *URLScanner) (*EvidenceIntake, *memMetaWriter, *custodyRecorder, string) {
	t.Helper()
	uploads := filepath.Join(t.TempDir(), "uploads")
	metas := &memMetaWriter{}
	chain := &custodyRecorder{}
	intake := NewEvidenceIntake(
		uploads,
		[]string{".png", ".jpg", ".jpeg", ".pdf", ".txt"},
		scanner,
		metas,
		chain,
		"system",
		testLogger(),
	)
	return intake, metas, chain, uploads
}

func TestEvidenceIntakeStoresAndLogsCustody(t *testing.T) {
	intake, metas, chain, uploads := newTestIntake(t, nil)

	content := []byte("Dear user, your KYC is pending")
	meta, err := intake.Store(context.Background(), content, "complaint.txt")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(meta.FileID, ".txt"))
	assert.Equal(t, "complaint.txt", meta.OriginalName)
	assert.Equal(t, ".txt", meta.FileType)
	assert.Equal(t, int64(len(content)), meta.FileSize)
	assert.Len(t, meta.SHA256, 64)

	stored, err := os.ReadFile(filepath.Join(uploads, meta.FileID))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	require.Len(t, chain.actions, 1)
	assert.Equal(t, models.ActionUploadEvidence, chain.actions[0])
	assert.Equal(t, meta.FileID, chain.targets[0])
	require.NotNil(t, chain.hashes[0])
	assert.Equal(t, meta.SHA256, *chain.hashes[0])
	assert.Equal(t, "complaint.txt", chain.metas[0]["original_name"])
	assert.Equal(t, int64(len(content)), chain.metas[0]["size_bytes"])

	require.Len(t, metas.saved, 1)
	assert.Equal(t, meta, metas.saved[0])
}

func TestEvidenceIntakeRejectsUnsupportedExtension(t *testing.T) {
	intake, metas, chain, _ := newTestIntake(t, nil)

	_, err := intake.Store(context.Background(), []byte("MZ"), "malware.exe")
	assert.ErrorIs(t, err, models.ErrUnsupported)
	assert.Empty(t, chain.actions)
	assert.Empty(t, metas.saved)
}

func TestEvidenceIntakeUppercaseExtension(t *testing.T) {
	intake, _, _, _ := newTestIntake(t, nil)

	meta, err := intake.Store(context.Background(), []byte("scan"), "SCREENSHOT.PNG")
	require.NoError(t, err)
	assert.Equal(t, ".png", meta.FileType)
}

func TestEvidenceIntakeDistinctFileIDs(t *testing.T) {
	intake, _, _, _ := newTestIntake(t, nil)

	first, err := intake.Store(context.Background(), []byte("same bytes"), "a.txt")
	require.NoError(t, err)
	second, err := intake.Store(context.Background(), []byte("same bytes"), "a.txt")
	require.NoError(t, err)

	assert.NotEqual(t, first.FileID, second.FileID)
	assert.Equal(t, first.SHA256, second.SHA256)
}

func TestEvidenceIntakePreScansImages(t *testing.T) {
	scanner := NewURLScanner(
		stubQR{payloads: []string{"http://kycupdate.cf/claim"}},
		&stubEnricher{},
		testLogger(),
	)
	intake, metas, _, _ := newTestIntake(t, scanner)

	meta, err := intake.Store(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47}, "qr.png")
	require.NoError(t, err)
	require.Len(t, meta.PreScan, 1)
	assert.Equal(t, "http://kycupdate.cf/claim", meta.PreScan[0].URL)
	assert.True(t, meta.PreScan[0].FromQR)
	assert.Equal(t, meta.PreScan, metas.saved[0].PreScan)

	// text artifacts are analyzed later by the pipeline, not at intake
	meta, err = intake.Store(context.Background(), []byte("visit http://kycupdate.cf"), "note.txt")
	require.NoError(t, err)
	assert.Empty(t, meta.PreScan)
}
