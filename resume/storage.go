// Package resume stores the optional resume attached to a user registration
// and hands back an opaque reference kept on the account.
package resume

import (
	"bytes"
	"context"
	"io"
	mathrand "math/rand"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/oklog/ulid/v2"
)

// Storage persists uploaded documents
type Storage interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes a stored document, missing keys are not an error
	Delete(ctx context.Context, key string) error
}

// ErrTooLarge is returned when an upload exceeds the configured limit
var ErrTooLarge = errors.New("resume exceeds the maximum upload size", errors.CategoryValidation).
	WithTextCode("RESUME_TOO_LARGE").
	WithCode(errors.CodeBadRequest)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewKey returns a sortable object key under prefix, keeping the file extension
func NewKey(prefix, filename string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	entropyMu.Unlock()

	ext := strings.ToLower(path.Ext(path.Base(filename)))
	return strings.TrimSuffix(prefix, "/") + "/" + id + ext
}

// MemoryStorage keeps documents in memory, used by tests and local runs
type MemoryStorage struct {
	mu      sync.RWMutex
	prefix  string
	objects map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage
func NewMemoryStorage(prefix string) *MemoryStorage {
	if prefix == "" {
		prefix = "resumes"
	}
	return &MemoryStorage{
		prefix:  prefix,
		objects: map[string][]byte{},
	}
}

// Put implements Storage
func (m *MemoryStorage) Put(ctx context.Context, filename, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read resume")
	}

	key := NewKey(m.prefix, filename)

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return key, nil
}

// Delete implements Storage
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

// Get returns a stored document
func (m *MemoryStorage) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len returns the number of stored documents
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ Storage = (*MemoryStorage)(nil)
