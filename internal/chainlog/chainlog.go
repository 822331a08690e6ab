// Package chainlog implements the append-only chain-of-custody event log.
package chainlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cyberlens/internal/domain/models"
	"cyberlens/pkg/logger"
)

// Log is a tamper-evident, append-only event stream backed by a JSONL
// file. One event is one line, flushed on every append. No update or
// delete operation exists.
type Log struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	logger *logger.Logger
}

// Open opens (creating if needed) the chain log at path.
func Open(path string, log *logger.Logger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chain log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain log: %w", err)
	}

	return &Log{
		path:   path,
		file:   f,
		logger: log.WithComponent("chainlog"),
	}, nil
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Append writes one event and syncs it to disk. Writes within a single
// Log are ordered; an event is never partially visible.
func (l *Log) Append(action, actor, target string, sha256 *string, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}

	event := models.ChainEvent{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Actor:     actor,
		Target:    target,
		SHA256:    sha256,
		Meta:      meta,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chain event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to append chain event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync chain log: %w", err)
	}

	l.logger.Debug().
		Str("action", action).
		Str("target", target).
		Msg("chain event appended")

	return nil
}

// Events reads the full event stream back. Corrupt lines are skipped
// with a warning so a damaged tail never blocks custody review.
func (l *Log) Events() ([]models.ChainEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open chain log for reading: %w", err)
	}
	defer f.Close()

	var events []models.ChainEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev models.ChainEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			l.logger.Warn().Err(err).Msg("skipping corrupt chain log line")
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to scan chain log: %w", err)
	}

	return events, nil
}
