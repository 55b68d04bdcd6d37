package auth

import (
	"context"
	"strings"
	"sync"
)

// unknownAccountSecret is hashed once per Authenticator. Logins for unknown
// emails still run a full password comparison against it.
const unknownAccountSecret = "portal-auth-unknown-account"

// Authenticator verifies credentials for one principal kind and issues tokens
type Authenticator struct {
	policy       Policy
	store        CredentialStore
	hasher       CredentialHasher
	issuer       TokenIssuer
	logger       Logger
	activitySink ActivitySink

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(policy Policy, store CredentialStore, hasher CredentialHasher, issuer TokenIssuer) *Authenticator {
	if hasher == nil {
		hasher = NewArgon2Hasher()
	}
	return &Authenticator{
		policy:       policy,
		store:        store,
		hasher:       hasher,
		issuer:       issuer,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

// WithLogger sets the logger
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	a.logger = normalizeLogger(logger)
	return a
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (a *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	a.activitySink = normalizeActivitySink(sink)
	return a
}

// Policy returns the rules this authenticator enforces
func (a *Authenticator) Policy() Policy {
	return a.policy
}

// Authenticate checks the credential pair and returns a signed token with a
// minimal profile. Unknown emails and wrong passwords both return
// ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	if !a.policy.Valid() {
		return nil, ErrUnknownPrincipalKind
	}

	email = strings.TrimSpace(email)

	account, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if HasTextCode(err, TextCodeAccountNotFound) {
			a.logger.Debug("Authenticate %s unknown email", a.policy.Kind)
			a.compareUnknown(password)
			a.fail(ctx, email, "", ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		a.logger.Error("Authenticate %s lookup failed: %v", a.policy.Kind, err)
		a.fail(ctx, email, "", err)
		return nil, err
	}

	if err := a.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		a.logger.Debug("Authenticate %s password mismatch", a.policy.Kind)
		a.fail(ctx, email, account.ID, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := a.issuer.Issue(a.policy.claimsFor(account), a.policy.TokenTTL)
	if err != nil {
		a.logger.Error("Authenticate %s failed to issue token: %v", a.policy.Kind, err)
		a.fail(ctx, email, account.ID, err)
		return nil, err
	}

	emitActivity(ctx, a.activitySink, a.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Kind:      a.policy.Kind,
		AccountID: account.ID,
		Email:     account.Email,
		Metadata: map[string]any{
			"jti":        token.ID,
			"expires_at": token.ExpiresAt,
		},
	})

	return &LoginResult{
		Message: a.policy.LoginMessage,
		Token:   token,
		Profile: ProfileFromAccount(account, a.policy.RoleClaim),
	}, nil
}

// Profile re-resolves a verified token subject against the store
func (a *Authenticator) Profile(ctx context.Context, subject string) (*Profile, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrAccountNotFound
	}

	account, err := a.store.FindByID(ctx, subject)
	if err != nil {
		if HasTextCode(err, TextCodeAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		a.logger.Error("Profile %s lookup failed: %v", a.policy.Kind, err)
		return nil, err
	}

	return ProfileFromAccount(account, a.policy.RoleClaim), nil
}

func (a *Authenticator) compareUnknown(password string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.HashPassword(unknownAccountSecret)
		if err != nil {
			a.logger.Error("Authenticate %s failed to hash placeholder secret: %v", a.policy.Kind, err)
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash == "" {
		return
	}
	_ = a.hasher.ComparePasswordAndHash(password, a.dummyHash)
}

func (a *Authenticator) fail(ctx context.Context, email, accountID string, err error) {
	emitActivity(ctx, a.activitySink, a.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Kind:      a.policy.Kind,
		AccountID: accountID,
		Email:     email,
		Reason:    failureReason(err),
	})
}
