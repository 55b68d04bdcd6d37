package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2Params tunes the argon2id key derivation
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option
var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

// Argon2Hasher stores passwords as PHC formatted argon2id strings
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher returns the default CredentialHasher
func NewArgon2Hasher(params ...Argon2Params) *Argon2Hasher {
	p := DefaultArgon2Params
	if len(params) > 0 {
		p = params[0]
	}
	return &Argon2Hasher{params: p}
}

// HashPassword will generate a password hash
func (h *Argon2Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h *Argon2Hasher) ComparePasswordAndHash(password, hash string) error {
	params, salt, key, err := decodeArgon2Hash(hash)
	if err != nil {
		return err
	}

	other := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

func decodeArgon2Hash(hash string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, errors.New("unsupported password hash format", errors.CategoryInternal)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errors.New("unsupported argon2 version", errors.CategoryInternal)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, errors.Wrap(err, errors.CategoryInternal, "invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errors.Wrap(err, errors.CategoryInternal, "invalid argon2 salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, errors.Wrap(err, errors.CategoryInternal, "invalid argon2 key")
	}

	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(key))

	return params, salt, key, nil
}

// BcryptHasher hashes with bcrypt at the given cost
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher uses the build dependent default cost when cost is zero
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = passwordHashCost()
	}
	return &BcryptHasher{Cost: cost}
}

// HashPassword will generate a password hash
func (h *BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(b), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h *BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

// PlaintextHasher keeps passwords as submitted. It only exists to read
// records written by the legacy portal and must not be used for new stores.
type PlaintextHasher struct{}

func (PlaintextHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	return password, nil
}

func (PlaintextHasher) ComparePasswordAndHash(password, hash string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(hash)) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

var (
	_ CredentialHasher = (*Argon2Hasher)(nil)
	_ CredentialHasher = (*BcryptHasher)(nil)
	_ CredentialHasher = PlaintextHasher{}
)
