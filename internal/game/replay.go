package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	archiveVersion   = 1
	archiveExtension = ".skat"
)

// archiveMetadata heads every result archive.
type archiveMetadata struct {
	ID           string
	Players      []string
	CreatedAt    time.Time
	SavedAt      time.Time
	Version      int
	HistoryCount int
}

// SaveToFile writes the result as <dir>/<id>.skat: gzip-compressed gob, metadata first and
// one record per round.
func (r *SkatResult) SaveToFile(directory string) error {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, r.ID+archiveExtension)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := archiveMetadata{
		ID:           r.ID,
		Players:      r.Players,
		CreatedAt:    r.CreatedAt,
		SavedAt:      time.Now().UTC(),
		Version:      archiveVersion,
		HistoryCount: len(r.Histories),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, h := range r.Histories {
		if err := encoder.Encode(h); err != nil {
			return fmt.Errorf("failed to encode round %d: %w", i, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

// LoadSkatResult reads an archive written by SaveToFile.
func LoadSkatResult(directory, id string) (*SkatResult, error) {
	filename := filepath.Join(directory, id+archiveExtension)
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata archiveMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != archiveVersion {
		return nil, fmt.Errorf("unsupported archive version: %d", metadata.Version)
	}

	result := &SkatResult{
		ID:        metadata.ID,
		Players:   metadata.Players,
		CreatedAt: metadata.CreatedAt,
		Histories: make([]*GameHistory, 0, metadata.HistoryCount),
	}
	for i := 0; i < metadata.HistoryCount; i++ {
		var h GameHistory
		if err := decoder.Decode(&h); err != nil {
			return nil, fmt.Errorf("failed to decode round %d: %w", i, err)
		}
		result.Histories = append(result.Histories, &h)
	}
	return result, nil
}
