package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is an identity record of either principal kind
type Account struct {
	ID           string        `json:"id,omitempty"`
	Kind         PrincipalKind `json:"kind,omitempty"`
	Email        string        `json:"email,omitempty"`
	PasswordHash string        `json:"-"`
	FullName     string        `json:"full_name,omitempty"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	PhoneE164    string        `json:"phone_e164,omitempty"`
	Skills       string        `json:"skills,omitempty"`
	Bio          string        `json:"bio,omitempty"`
	ResumeRef    string        `json:"resume_ref,omitempty"`
	CreatedAt    time.Time     `json:"created_at,omitempty"`
}

// DisplayName is the full name when given, otherwise first and last name
func (a *Account) DisplayName() string {
	if a == nil {
		return ""
	}
	if name := strings.TrimSpace(a.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Profile holds the fields safe to hand back to clients
type Profile struct {
	ID       string        `json:"id"`
	Kind     PrincipalKind `json:"kind"`
	Email    string        `json:"email"`
	FullName string        `json:"fullName,omitempty"`
	Role     string        `json:"role,omitempty"`
}

// ProfileFromAccount strips credentials from an account
func ProfileFromAccount(account *Account, role string) *Profile {
	if account == nil {
		return nil
	}
	return &Profile{
		ID:       account.ID,
		Kind:     account.Kind,
		Email:    account.Email,
		FullName: account.DisplayName(),
		Role:     role,
	}
}

// RegistrationRequest is the submitted new account payload
type RegistrationRequest struct {
	FullName  string `form:"fullName" json:"fullName"`
	FirstName string `form:"firstName" json:"firstName"`
	LastName  string `form:"lastName" json:"lastName"`
	Email     string `form:"email" json:"email"`
	Phone     string `form:"phone" json:"phone"`
	Password  string `form:"password" json:"password"`
	Skills    string `form:"skills" json:"skills"`
	Bio       string `form:"bio" json:"bio"`
	ResumeRef string `form:"-" json:"-"`
}

// Confirmation is returned by a successful registration
type Confirmation struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// LoginRequest is the transient credential pair submitted at login
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// LoginResult is the token plus minimal profile returned on login
type LoginResult struct {
	Message string   `json:"message"`
	Token   *Token   `json:"-"`
	Profile *Profile `json:"profile"`
}

// AdminAccount is the bun model for the admins table
type AdminAccount struct {
	bun.BaseModel `bun:"table:admins,alias:adm"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Email         string    `bun:"email,notnull"`
	EmailKey      string    `bun:"email_key,notnull"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (m *AdminAccount) toAccount() *Account {
	return &Account{
		ID:           m.ID.String(),
		Kind:         KindAdmin,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *AdminAccount) fromAccount(a *Account, id uuid.UUID, emailKey string) {
	m.ID = id
	m.Email = a.Email
	m.EmailKey = emailKey
	m.PasswordHash = a.PasswordHash
	m.CreatedAt = a.CreatedAt
}

// UserAccount is the bun model for the users table
type UserAccount struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Email         string    `bun:"email,notnull"`
	EmailKey      string    `bun:"email_key,notnull"`
	PasswordHash  string    `bun:"password_hash,notnull"`
	FullName      string    `bun:"full_name"`
	FirstName     string    `bun:"first_name"`
	LastName      string    `bun:"last_name"`
	Phone         string    `bun:"phone"`
	PhoneE164     string    `bun:"phone_e164"`
	Skills        string    `bun:"skills"`
	Bio           string    `bun:"bio"`
	ResumeRef     string    `bun:"resume_ref"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func (m *UserAccount) toAccount() *Account {
	return &Account{
		ID:           m.ID.String(),
		Kind:         KindUser,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Phone:        m.Phone,
		PhoneE164:    m.PhoneE164,
		Skills:       m.Skills,
		Bio:          m.Bio,
		ResumeRef:    m.ResumeRef,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *UserAccount) fromAccount(a *Account, id uuid.UUID, emailKey string) {
	m.ID = id
	m.Email = a.Email
	m.EmailKey = emailKey
	m.PasswordHash = a.PasswordHash
	m.FullName = a.FullName
	m.FirstName = a.FirstName
	m.LastName = a.LastName
	m.Phone = a.Phone
	m.PhoneE164 = a.PhoneE164
	m.Skills = a.Skills
	m.Bio = a.Bio
	m.ResumeRef = a.ResumeRef
	m.CreatedAt = a.CreatedAt
}
