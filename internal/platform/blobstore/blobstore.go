// Package blobstore archives printed lab reports. It defines the BlobStore
// interface, an in-memory implementation for development and tests, an S3
// implementation for production, and Echo handlers to list and download a
// patient's archived reports.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrMissingPatient     = errors.New("patient id is required")
)

// MaxFileSize is the maximum allowed blob size in bytes (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// CategoryLabReport is the category used for printed glucose reports.
const CategoryLabReport = "lab-report"

// AllowedContentTypes lists the formats a report can be archived in.
var AllowedContentTypes = map[string]bool{
	"text/html":                true,
	"text/html; charset=utf-8": true,
	"application/pdf":          true,
	"image/png":                true,
}

// BlobMetadata describes a stored blob.
type BlobMetadata struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PatientID   string    `json:"patient_id"`
	LabNumber   string    `json:"lab_number,omitempty"`
	Category    string    `json:"category"`
	Hash        string    `json:"hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// BlobStore defines the contract for report archive backends. Keys are
// built with KeyFor.
type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Download(ctx context.Context, key string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, key string) error
	GetMetadata(ctx context.Context, key string) (*BlobMetadata, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error)
}

// KeyFor returns the object key of a report: reports/<patient>/<id><ext>.
func KeyFor(patientID, id, fileName string) string {
	return path.Join("reports", sanitize(patientID), id+path.Ext(fileName))
}

// PatientPrefix is the key prefix shared by all reports of a patient.
func PatientPrefix(patientID string) string {
	return "reports/" + sanitize(patientID) + "/"
}

// IDFromKey extracts the blob ID from an object key.
func IDFromKey(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	return s
}

// prepare validates meta, reads the content and fills the derived fields.
func prepare(meta BlobMetadata, content io.Reader) (BlobMetadata, []byte, error) {
	if meta.FileName == "" {
		return meta, nil, ErrMissingFileName
	}
	if meta.PatientID == "" {
		return meta, nil, ErrMissingPatient
	}
	if meta.ContentType != "" && !AllowedContentTypes[meta.ContentType] {
		return meta, nil, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return meta, nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return meta, nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New().String()
	meta.Key = KeyFor(meta.PatientID, meta.ID, meta.FileName)
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()
	if meta.Category == "" {
		meta.Category = CategoryLabReport
	}
	return meta, data, nil
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore for testing/dev.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs: make(map[string]*storedBlob),
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.Key] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, key string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *InMemoryBlobStore) GetMetadata(_ context.Context, key string) (*BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return &meta, nil
}

// ListByPatient returns the patient's reports, newest first.
func (s *InMemoryBlobStore) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*BlobMetadata, int, error) {
	s.mu.RLock()
	var matched []*BlobMetadata
	prefix := PatientPrefix(patientID)
	for key, b := range s.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		m := b.metadata
		matched = append(matched, &m)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	page, total := paginate(matched, limit, offset)
	return page, total, nil
}

func paginate(items []*BlobMetadata, limit, offset int) ([]*BlobMetadata, int) {
	total := len(items)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total
}
