package chainlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainlog.jsonl")
	l, err := Open(path, logger.NewDevelopment())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndReadBack(t *testing.T) {
	l := openTestLog(t)

	hash := "deadbeef"
	require.NoError(t, l.Append(models.ActionUploadEvidence, "system", "file-1.png", &hash, map[string]any{
		"size_bytes": 1024,
	}))
	require.NoError(t, l.Append(models.ActionCaseAnalyzed, "system", "file-1.png", nil, nil))

	events, err := l.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, models.ActionUploadEvidence, events[0].Action)
	assert.Equal(t, "file-1.png", events[0].Target)
	require.NotNil(t, events[0].SHA256)
	assert.Equal(t, "deadbeef", *events[0].SHA256)

	assert.Equal(t, models.ActionCaseAnalyzed, events[1].Action)
	assert.Nil(t, events[1].SHA256)
	assert.NotNil(t, events[1].Meta)
}

func TestAppendOnly(t *testing.T) {
	l := openTestLog(t)

	require.NoError(t, l.Append("A", "system", "t1", nil, nil))
	first, err := l.Events()
	require.NoError(t, err)

	require.NoError(t, l.Append("B", "system", "t2", nil, nil))
	require.NoError(t, l.Append("C", "system", "t3", nil, nil))
	second, err := l.Events()
	require.NoError(t, err)

	// Events present earlier remain a prefix of any later read.
	require.GreaterOrEqual(t, len(second), len(first))
	for i := range first {
		assert.Equal(t, first[i].Action, second[i].Action)
		assert.Equal(t, first[i].Target, second[i].Target)
	}
}

func TestCorruptLineSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainlog.jsonl")
	l, err := Open(path, logger.NewDevelopment())
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append("A", "system", "t1", nil, nil))

	// Inject a torn line by hand.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, l.Append("B", "system", "t2", nil, nil))

	events, err := l.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Action)
	assert.Equal(t, "B", events[1].Action)
}
