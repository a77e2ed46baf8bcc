package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/johan/sads-console/internal/quotes"
)

const quoteFileName = "quotes.jsonl"

// FileStorage appends quotes to a JSONL file rotated by size.
type FileStorage struct {
	path string

	mu           sync.Mutex
	out          *lumberjack.Logger
	messageCount int64
}

// NewFileStorage creates a new file storage under outputDir.
func NewFileStorage(outputDir string, maxSizeMB, maxBackups int) (*FileStorage, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}

	path := filepath.Join(outputDir, quoteFileName)
	return &FileStorage{
		path: path,
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}, nil
}

// Write writes a quote as one JSON line.
func (s *FileStorage) Write(q *quotes.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return errors.Wrap(err, "marshaling quote")
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(data); err != nil {
		return errors.Wrap(err, "writing quote")
	}
	s.messageCount++
	return nil
}

// Rotate starts a new file; the current one is kept as a backup.
func (s *FileStorage) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCount = 0
	return s.out.Rotate()
}

// Close closes the current file.
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}

// CurrentPath returns the path to the current output file.
func (s *FileStorage) CurrentPath() string {
	return s.path
}

// MessageCount returns the number of quotes written since the last rotation.
func (s *FileStorage) MessageCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}
