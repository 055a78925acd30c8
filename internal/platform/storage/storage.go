// Package storage provides uploaded-file storage for the HMS: a FileStore
// interface, a local-disk implementation writing under an uploads
// directory, and Echo HTTP handlers for multipart upload, download, and
// deletion. DiskStore keeps metadata in an in-memory index, so it does not
// survive a restart; a database-backed FileStore can replace it behind the
// same interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed upload size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// FileMetadata describes a stored file.
type FileMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   string    `json:"patient_id,omitempty"`
	Category    string    `json:"category,omitempty"` // lab-report, scan, consent-form, other
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileStore is the contract for file storage backends.
type FileStore interface {
	Save(ctx context.Context, meta FileMetadata, content io.Reader) (*FileMetadata, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *FileMetadata, error)
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID string) ([]*FileMetadata, error)
}

// DiskStore stores file content under a root directory, one file per ID,
// with metadata kept in memory and rebuilt lazily. Suitable for the
// single-node deployments this system targets.
type DiskStore struct {
	root string
	mu   sync.RWMutex
	meta map[string]*FileMetadata
}

// NewDiskStore creates the uploads directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory %s: %w", root, err)
	}
	return &DiskStore{root: root, meta: make(map[string]*FileMetadata)}, nil
}

func (s *DiskStore) path(id string) string {
	// IDs are generated UUIDs; reject anything that could escape root.
	return filepath.Join(s.root, filepath.Base(id))
}

func (s *DiskStore) Save(_ context.Context, meta FileMetadata, content io.Reader) (*FileMetadata, error) {
	if strings.TrimSpace(meta.FileName) == "" {
		return nil, ErrMissingFileName
	}

	meta.ID = uuid.New().String()
	meta.CreatedAt = time.Now().UTC()

	f, err := os.Create(s.path(meta.ID))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		os.Remove(s.path(meta.ID))
		return nil, fmt.Errorf("write file: %w", err)
	}
	if n > MaxFileSize {
		os.Remove(s.path(meta.ID))
		return nil, ErrFileTooLarge
	}
	meta.Size = n

	s.mu.Lock()
	stored := meta
	s.meta[meta.ID] = &stored
	s.mu.Unlock()

	return &stored, nil
}

func (s *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, *FileMetadata, error) {
	s.mu.RLock()
	meta, ok := s.meta[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrFileNotFound
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	return f, meta, nil
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.meta[id]
	delete(s.meta, id)
	s.mu.Unlock()
	if !ok {
		return ErrFileNotFound
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *DiskStore) ListByPatient(_ context.Context, patientID string) ([]*FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*FileMetadata
	for _, m := range s.meta {
		if m.PatientID == patientID {
			result = append(result, m)
		}
	}
	return result, nil
}
