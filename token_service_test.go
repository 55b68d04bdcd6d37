package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-portal-auth"
)

var issuedAt = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newClockedService(cfg auth.SigningConfig) (*auth.TokenService, *fixedClock) {
	clock := newFixedClock(issuedAt)
	return auth.NewTokenService(cfg).WithClock(clock.Now), clock
}

func TestTokenService_IssueSetsRegisteredClaims(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	token, err := ts.Issue(auth.Claims{Subject: "user-1", Email: "a@b.com", Name: "A B"}, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, token.Value)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, issuedAt, token.IssuedAt)
	assert.Equal(t, issuedAt.Add(60*time.Minute), token.ExpiresAt)
	assert.Len(t, strings.Split(token.Value, "."), 3)

	parsed, _, err := jwt.NewParser().ParseUnverified(token.Value, &auth.JWTClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(*auth.JWTClaims)
	assert.Equal(t, "HS256", parsed.Method.Alg())
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "A B", claims.Name)
	assert.Empty(t, claims.Role)
	assert.Equal(t, "portal", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"portal-clients"}, claims.Audience)
	assert.Equal(t, token.ID, claims.ID)
}

func TestTokenService_IssueUsesExplicitTTL(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	token, err := ts.Issue(auth.Claims{Subject: "admin-1", Email: "root@b.com", Role: auth.AdminRoleClaim}, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(15*time.Minute), token.ExpiresAt)
}

func TestTokenService_IssueGeneratesUniqueTokenIDs(t *testing.T) {
	ts, _ := newClockedService(testSigning)
	claims := auth.Claims{Subject: "user-1", Email: "a@b.com"}

	first, err := ts.Issue(claims, 0)
	require.NoError(t, err)
	second, err := ts.Issue(claims, 0)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Value, second.Value)
}

func TestTokenService_IssueRequiresSubject(t *testing.T) {
	ts, _ := newClockedService(testSigning)
	_, err := ts.Issue(auth.Claims{Email: "a@b.com"}, 0)
	assert.Error(t, err)
}

func TestTokenService_IssueRequiresPositiveTTL(t *testing.T) {
	cfg := testSigning
	cfg.ExpiryOffset = 0
	ts, _ := newClockedService(cfg)
	_, err := ts.Issue(auth.Claims{Subject: "u"}, 0)
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts, _ := newClockedService(testSigning)
	original := auth.Claims{
		Subject: "user-1",
		Email:   "a@b.com",
		Name:    "A B",
		Role:    auth.AdminRoleClaim,
		TokenID: "fixed-jti",
	}

	token, err := ts.Issue(original, 0)
	require.NoError(t, err)

	set, err := ts.Validate(token.Value)
	require.NoError(t, err)

	assert.Equal(t, original, set.Claims())
	assert.Equal(t, "portal", set.Issuer)
	assert.Equal(t, []string{"portal-clients"}, set.Audience)
	assert.Equal(t, issuedAt, set.IssuedAt.UTC())
	assert.Equal(t, token.ExpiresAt, set.ExpiresAt.UTC())
	assert.True(t, set.IsAdmin())
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	ts, clock := newClockedService(testSigning)

	token, err := ts.Issue(auth.Claims{Subject: "user-1", Email: "a@b.com"}, 60*time.Minute)
	require.NoError(t, err)

	clock.Set(issuedAt.Add(59*time.Minute + 59*time.Second))
	_, err = ts.Validate(token.Value)
	assert.NoError(t, err)

	clock.Set(issuedAt.Add(60 * time.Minute))
	_, err = ts.Validate(token.Value)
	require.Error(t, err)
	assert.Same(t, auth.ErrTokenExpired, err)
	assert.True(t, auth.IsTokenExpiredError(err))

	clock.Set(issuedAt.Add(3 * time.Hour))
	_, err = ts.Validate(token.Value)
	assert.Same(t, auth.ErrTokenExpired, err)
}

func TestTokenService_TamperedPayloadFailsSignature(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	token, err := ts.Issue(auth.Claims{Subject: "user-1", Email: "a@b.com"}, 0)
	require.NoError(t, err)

	parts := strings.Split(token.Value, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	body["email"] = "b@b.com"
	tampered, err := json.Marshal(body)
	require.NoError(t, err)

	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(tampered) + "." + parts[2]

	_, err = ts.Validate(forged)
	assert.Same(t, auth.ErrInvalidSignature, err)
}

func TestTokenService_AnyPayloadEditFailsSignature(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	token, err := ts.Issue(auth.Claims{Subject: "user-1", Email: "a@b.com"}, 0)
	require.NoError(t, err)

	parts := strings.Split(token.Value, ".")
	require.Len(t, parts, 3)

	payload := []byte(parts[1])
	for i := range payload {
		for _, r := range []byte("AQgw") {
			if payload[i] == r {
				continue
			}
			edited := append([]byte(nil), payload...)
			edited[i] = r

			forged := parts[0] + "." + string(edited) + "." + parts[2]
			_, err := ts.Validate(forged)
			require.Same(t, auth.ErrInvalidSignature, err, "position %d replaced with %q", i, r)
		}
	}

	// truncated payloads are edits too
	_, err = ts.Validate(parts[0] + "." + parts[1][:len(parts[1])-1] + "." + parts[2])
	assert.Same(t, auth.ErrInvalidSignature, err)
}

func TestTokenService_WrongKeyFailsSignature(t *testing.T) {
	ts, _ := newClockedService(testSigning)
	token, err := ts.Issue(auth.Claims{Subject: "user-1"}, 0)
	require.NoError(t, err)

	other := testSigning
	other.Key = []byte("another-signing-key-0123456789ab")
	verifier, _ := newClockedService(other)

	_, err = verifier.Validate(token.Value)
	assert.Same(t, auth.ErrInvalidSignature, err)
}

func TestTokenService_IssuerAndAudienceMismatch(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	otherIssuer := testSigning
	otherIssuer.Issuer = "someone-else"
	foreignIssuer, _ := newClockedService(otherIssuer)
	token, err := foreignIssuer.Issue(auth.Claims{Subject: "user-1"}, 0)
	require.NoError(t, err)

	_, err = ts.Validate(token.Value)
	assert.Same(t, auth.ErrInvalidIssuer, err)

	otherAudience := testSigning
	otherAudience.Audience = "other-clients"
	foreignAudience, _ := newClockedService(otherAudience)
	token, err = foreignAudience.Issue(auth.Claims{Subject: "user-1"}, 0)
	require.NoError(t, err)

	_, err = ts.Validate(token.Value)
	assert.Same(t, auth.ErrInvalidAudience, err)
}

func TestTokenService_RejectsUnexpectedAlgorithm(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": testSigning.Issuer,
		"aud": testSigning.Audience,
		"exp": issuedAt.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(testSigning.Key)
	require.NoError(t, err)

	_, err = ts.Validate(signed)
	assert.Same(t, auth.ErrInvalidSignature, err)
}

func TestTokenService_RequiresExpiration(t *testing.T) {
	ts, _ := newClockedService(testSigning)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"iss": testSigning.Issuer,
		"aud": testSigning.Audience,
	})
	signed, err := token.SignedString(testSigning.Key)
	require.NoError(t, err)

	_, err = ts.Validate(signed)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenService_MalformedToken(t *testing.T) {
	logger := new(MockLogger)
	logger.On("Error", mock.Anything, mock.Anything).Maybe()

	ts, _ := newClockedService(testSigning)
	ts.WithLogger(logger)

	_, err := ts.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))

	_, err = ts.Validate("")
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))

	_, err = ts.Validate("only.two")
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestSigningConfigFrom(t *testing.T) {
	cfg := auth.SigningConfigFrom(staticConfig{})
	assert.Equal(t, []byte("static-signing-key-0123456789"), cfg.Key)
	assert.Equal(t, "portal", cfg.Issuer)
	assert.Equal(t, "portal-clients", cfg.Audience)
	assert.Equal(t, 30*time.Minute, cfg.ExpiryOffset)
}

type staticConfig struct{}

func (staticConfig) GetSigningKey() string       { return "static-signing-key-0123456789" }
func (staticConfig) GetIssuer() string           { return "portal" }
func (staticConfig) GetAudience() string         { return "portal-clients" }
func (staticConfig) GetUserTokenExpiration() int { return 30 }
