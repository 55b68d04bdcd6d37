package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// accountRow is implemented by the bun models backing each store
type accountRow[M any] interface {
	*M
	toAccount() *Account
	fromAccount(a *Account, id uuid.UUID, emailKey string)
}

// BunStore is a CredentialStore backed by a single bun table
type BunStore[M any, P accountRow[M]] struct {
	db              bun.IDB
	kind            PrincipalKind
	caseInsensitive bool
	useHashid       bool
	now             func() time.Time
}

// StoreOption configures a BunStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	useHashid bool
	now       func() time.Time
}

// WithHashIDs derives account IDs from the email instead of random UUIDs
func WithHashIDs() StoreOption {
	return func(o *storeOptions) {
		o.useHashid = true
	}
}

// WithStoreClock overrides the created_at time source
func WithStoreClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewAdminStore returns the admin credential store. Emails are matched exactly.
func NewAdminStore(db bun.IDB, opts ...StoreOption) *BunStore[AdminAccount, *AdminAccount] {
	return newBunStore[AdminAccount, *AdminAccount](db, KindAdmin, false, opts)
}

// NewUserStore returns the job seeker credential store. Emails are keyed lower case.
func NewUserStore(db bun.IDB, opts ...StoreOption) *BunStore[UserAccount, *UserAccount] {
	return newBunStore[UserAccount, *UserAccount](db, KindUser, true, opts)
}

// NewStoreForPolicy returns the store matching the policy kind
func NewStoreForPolicy(db bun.IDB, policy Policy, opts ...StoreOption) (CredentialStore, error) {
	switch policy.Kind {
	case KindAdmin:
		return NewAdminStore(db, opts...), nil
	case KindUser:
		return NewUserStore(db, opts...), nil
	default:
		return nil, ErrUnknownPrincipalKind
	}
}

func newBunStore[M any, P accountRow[M]](db bun.IDB, kind PrincipalKind, caseInsensitive bool, opts []StoreOption) *BunStore[M, P] {
	o := &storeOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &BunStore[M, P]{
		db:              db,
		kind:            kind,
		caseInsensitive: caseInsensitive,
		useHashid:       o.useHashid,
		now:             o.now,
	}
}

// Kind returns the principal kind stored in this table
func (s *BunStore[M, P]) Kind() PrincipalKind {
	return s.kind
}

func (s *BunStore[M, P]) emailKey(email string) string {
	if s.caseInsensitive {
		return strings.ToLower(email)
	}
	return email
}

// FindByEmail looks up the account by exact email match
func (s *BunStore[M, P]) FindByEmail(ctx context.Context, email string) (*Account, error) {
	record := P(new(M))
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return record.toAccount(), nil
}

// FindByID looks up the account by its primary key
func (s *BunStore[M, P]) FindByID(ctx context.Context, id string) (*Account, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrAccountNotFound
	}

	record := P(new(M))
	err = s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return record.toAccount(), nil
}

// ExistsByEmail reports whether the email is taken. With caseInsensitive set
// both sides are lower-cased, otherwise the comparison is exact.
func (s *BunStore[M, P]) ExistsByEmail(ctx context.Context, email string, caseInsensitive bool) (bool, error) {
	q := s.db.NewSelect().Model(P(new(M)))
	if caseInsensitive {
		q = q.Where("lower(?TableAlias.email) = ?", strings.ToLower(email))
	} else {
		q = q.Where("?TableAlias.email = ?", email)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check account email")
	}
	return exists, nil
}

// Insert persists a new account, assigning its ID and creation time. A
// uniqueness violation is reported as ErrAlreadyRegistered.
func (s *BunStore[M, P]) Insert(ctx context.Context, account *Account) (*Account, error) {
	if account == nil {
		return nil, errors.New("account must not be nil", errors.CategoryBadInput)
	}

	id := uuid.New()
	if s.useHashid {
		if hid, err := hashid.NewUUID(s.emailKey(account.Email)); err == nil {
			id = hid
		}
	}

	stored := *account
	stored.Kind = s.kind
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}

	record := P(new(M))
	record.fromAccount(&stored, id, s.emailKey(stored.Email))

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert account")
	}

	return record.toAccount(), nil
}

func mapStoreError(err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return ErrAccountNotFound
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to load account")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "23505")
}

var (
	_ CredentialStore = (*BunStore[AdminAccount, *AdminAccount])(nil)
	_ CredentialStore = (*BunStore[UserAccount, *UserAccount])(nil)
)
