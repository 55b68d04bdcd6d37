package auth

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SigningConfig is supplied once at startup and read-only afterwards
type SigningConfig struct {
	Key          []byte
	Issuer       string
	Audience     string
	ExpiryOffset time.Duration
}

// SigningConfigFrom builds a SigningConfig out of a Config, using the
// user token expiration as the default offset.
func SigningConfigFrom(cfg Config) SigningConfig {
	return SigningConfig{
		Key:          []byte(cfg.GetSigningKey()),
		Issuer:       cfg.GetIssuer(),
		Audience:     cfg.GetAudience(),
		ExpiryOffset: time.Duration(cfg.GetUserTokenExpiration()) * time.Minute,
	}
}

// Token is a signed compact token and its validity window
type Token struct {
	Value     string    `json:"token"`
	ID        string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires"`
}

// TokenService issues and validates HS256 tokens
type TokenService struct {
	config SigningConfig
	now    func() time.Time
	logger Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg SigningConfig) *TokenService {
	return &TokenService{
		config: cfg,
		now:    time.Now,
		logger: defLogger{},
	}
}

// WithLogger sets the logger
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	ts.logger = normalizeLogger(logger)
	return ts
}

// WithClock overrides the time source used for issuing and validating
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// Issue signs the claims with the configured key. A ttl <= 0 uses the
// configured expiry offset.
func (ts *TokenService) Issue(claims Claims, ttl time.Duration) (*Token, error) {
	if claims.Subject == "" {
		return nil, errors.New("token subject is required", errors.CategoryBadInput)
	}

	if ttl <= 0 {
		ttl = ts.config.ExpiryOffset
	}
	if ttl <= 0 {
		return nil, errors.New("token expiry offset must be positive", errors.CategoryInternal)
	}

	now := ts.now().UTC()
	expiresAt := now.Add(ttl)

	jwtClaims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.TokenID,
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    ts.config.Issuer,
		},
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}

	if ts.config.Audience != "" {
		jwtClaims.Audience = jwt.ClaimStrings{ts.config.Audience}
	}

	ensureTokenID(&jwtClaims.RegisteredClaims)

	value, err := ts.SignClaims(jwtClaims)
	if err != nil {
		return nil, err
	}

	return &Token{
		Value:     value,
		ID:        jwtClaims.ID,
		IssuedAt:  jwtClaims.IssuedAt.Time,
		ExpiresAt: jwtClaims.ExpiresAt.Time,
	}, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.config.Key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string. Expiry is enforced without
// leeway, now >= exp is rejected.
func (ts *TokenService) Validate(tokenString string) (*ClaimSet, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.config.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.config.Issuer))
	}
	if ts.config.Audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.config.Audience))
	}

	if err := ts.verifySignature(tokenString); err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.config.Key, nil
	}, parserOptions...)

	if err != nil {
		return nil, mapValidationError(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	return claimSetFromJWT(claims), nil
}

// verifySignature checks the HS256 signature over the raw header and payload
// segments before any claim is decoded, so an edited payload is reported as a
// signature failure even when it no longer decodes. Tokens without three
// segments or with an undecodable signature are left to the parser.
func (ts *TokenService) verifySignature(tokenString string) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil
	}

	sig, err := jwt.NewParser().DecodeSegment(parts[2])
	if err != nil {
		return nil
	}

	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, ts.config.Key); err != nil {
		ts.logger.Debug("TokenService validate signature mismatch: %v", err)
		return ErrInvalidSignature
	}
	return nil
}

func mapValidationError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case stderrors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidIssuer
	case stderrors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrInvalidAudience
	default:
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)
