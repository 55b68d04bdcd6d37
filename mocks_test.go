package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-portal-auth"
)

// MockStore implements auth.CredentialStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	if a, ok := args.Get(0).(*auth.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ExistsByEmail(ctx context.Context, email string, caseInsensitive bool) (bool, error) {
	args := m.Called(ctx, email, caseInsensitive)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	args := m.Called(ctx, account)
	if a, ok := args.Get(0).(*auth.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id string) (*auth.Account, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*auth.Account); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// memoryStore is an in-memory auth.CredentialStore with the same email
// policy as the bun stores.
type memoryStore struct {
	mu              sync.Mutex
	caseInsensitive bool
	byID            map[string]*auth.Account
	inserts         int
}

func newMemoryStore(caseInsensitive bool) *memoryStore {
	return &memoryStore{caseInsensitive: caseInsensitive, byID: map[string]*auth.Account{}}
}

func (s *memoryStore) key(email string) string {
	if s.caseInsensitive {
		return strings.ToLower(email)
	}
	return email
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (s *memoryStore) ExistsByEmail(_ context.Context, email string, caseInsensitive bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if caseInsensitive && strings.EqualFold(a.Email, email) {
			return true, nil
		}
		if !caseInsensitive && a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Insert(_ context.Context, account *auth.Account) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if s.key(a.Email) == s.key(account.Email) {
			return nil, auth.ErrAlreadyRegistered
		}
	}
	cp := *account
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now().UTC()
	s.byID[cp.ID] = &cp
	s.inserts++
	out := cp
	return &out, nil
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// fastHasher keeps argon2 cheap in tests
func fastHasher() *auth.Argon2Hasher {
	return auth.NewArgon2Hasher(auth.Argon2Params{
		Time:    1,
		Memory:  8 * 1024,
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	})
}

// countingHasher records how often each hasher method runs
type countingHasher struct {
	mu       sync.Mutex
	inner    auth.CredentialHasher
	hashes   int
	compares int
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: fastHasher()}
}

func (h *countingHasher) HashPassword(password string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.inner.HashPassword(password)
}

func (h *countingHasher) ComparePasswordAndHash(password, hash string) error {
	h.mu.Lock()
	h.compares++
	h.mu.Unlock()
	return h.inner.ComparePasswordAndHash(password, hash)
}

func (h *countingHasher) counts() (hashes, compares int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes, h.compares
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{now: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var testSigning = auth.SigningConfig{
	Key:          []byte("test-signing-key-0123456789abcdef"),
	Issuer:       "portal",
	Audience:     "portal-clients",
	ExpiryOffset: 60 * time.Minute,
}
