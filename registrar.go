package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
)

// Registrar creates accounts for a single principal kind
type Registrar struct {
	policy       Policy
	store        CredentialStore
	hasher       CredentialHasher
	phoneRegion  string
	logger       Logger
	activitySink ActivitySink
}

// NewRegistrar returns a Registrar for the given policy
func NewRegistrar(policy Policy, store CredentialStore, hasher CredentialHasher) *Registrar {
	if hasher == nil {
		hasher = NewArgon2Hasher()
	}
	return &Registrar{
		policy:       policy,
		store:        store,
		hasher:       hasher,
		phoneRegion:  DefaultPhoneRegion,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

// WithLogger sets the logger
func (r *Registrar) WithLogger(logger Logger) *Registrar {
	r.logger = normalizeLogger(logger)
	return r
}

// WithActivitySink configures an ActivitySink for registration events.
func (r *Registrar) WithActivitySink(sink ActivitySink) *Registrar {
	r.activitySink = normalizeActivitySink(sink)
	return r
}

// WithPhoneRegion sets the region used to normalise phone numbers
func (r *Registrar) WithPhoneRegion(region string) *Registrar {
	if region != "" {
		r.phoneRegion = region
	}
	return r
}

// Policy returns the rules this registrar enforces
func (r *Registrar) Policy() Policy {
	return r.policy
}

// Register validates the request, rejects taken emails, hashes the password
// and persists the account. Nothing is written when any step fails.
func (r *Registrar) Register(ctx context.Context, req RegistrationRequest) (*Confirmation, error) {
	if !r.policy.Valid() {
		return nil, ErrUnknownPrincipalKind
	}

	if err := Validate(r.policy, req); err != nil {
		r.fail(ctx, req.Email, err)
		return nil, err
	}

	email := strings.TrimSpace(req.Email)

	exists, err := r.store.ExistsByEmail(ctx, email, r.policy.CaseInsensitiveEmail)
	if err != nil {
		r.logger.Error("Register %s exists check failed: %v", r.policy.Kind, err)
		r.fail(ctx, email, err)
		return nil, err
	}
	if exists {
		r.fail(ctx, email, ErrAlreadyRegistered)
		return nil, ErrAlreadyRegistered
	}

	hash, err := r.hasher.HashPassword(req.Password)
	if err != nil {
		r.logger.Error("Register %s failed to hash password: %v", r.policy.Kind, err)
		r.fail(ctx, email, err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	account := r.accountFrom(req, email, hash)

	saved, err := r.store.Insert(ctx, account)
	if err != nil {
		// a concurrent registration can pass the exists check
		if HasTextCode(err, TextCodeAlreadyRegistered) || isUniqueViolation(err) {
			r.fail(ctx, email, ErrAlreadyRegistered)
			return nil, ErrAlreadyRegistered
		}
		r.logger.Error("Register %s insert failed: %v", r.policy.Kind, err)
		r.fail(ctx, email, err)
		return nil, err
	}

	emitActivity(ctx, r.activitySink, r.logger, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		Kind:      r.policy.Kind,
		AccountID: saved.ID,
		Email:     saved.Email,
	})

	return &Confirmation{
		ID:      saved.ID,
		Message: r.policy.RegisteredMessage,
	}, nil
}

func (r *Registrar) accountFrom(req RegistrationRequest, email, hash string) *Account {
	account := &Account{
		Kind:         r.policy.Kind,
		Email:        email,
		PasswordHash: hash,
	}
	if !r.policy.RequireProfile {
		return account
	}

	account.FullName = strings.TrimSpace(req.FullName)
	account.FirstName = strings.TrimSpace(req.FirstName)
	account.LastName = strings.TrimSpace(req.LastName)
	account.Phone = strings.TrimSpace(req.Phone)
	account.PhoneE164 = NormalizePhone(account.Phone, r.phoneRegion)
	account.Skills = strings.TrimSpace(req.Skills)
	account.Bio = strings.TrimSpace(req.Bio)
	account.ResumeRef = req.ResumeRef
	return account
}

func (r *Registrar) fail(ctx context.Context, email string, err error) {
	emitActivity(ctx, r.activitySink, r.logger, ActivityEvent{
		EventType: ActivityEventRegisterFailure,
		Kind:      r.policy.Kind,
		Email:     email,
		Reason:    failureReason(err),
	})
}
