package auth

import (
	"strings"
	"time"
)

// PrincipalKind distinguishes the account classes served by the portal
type PrincipalKind string

const (
	KindAdmin PrincipalKind = "admin"
	KindUser  PrincipalKind = "user"
)

// AdminRoleClaim is the role claim value carried by admin tokens
const AdminRoleClaim = "Admin"

// DefaultAdminTokenTTL is the fixed admin token lifetime
const DefaultAdminTokenTTL = time.Hour

// Policy carries the kind specific rules used by the shared registration
// and authentication flows.
type Policy struct {
	Kind PrincipalKind
	// RequireProfile enables the name, phone, skills and bio presence rules.
	RequireProfile bool
	// MinPasswordLength of zero disables the length rule.
	MinPasswordLength int
	ValidatePhone     bool
	// CaseInsensitiveEmail lower-cases both sides of the duplicate check.
	CaseInsensitiveEmail bool
	// RoleClaim is added to issued tokens when not empty.
	RoleClaim string
	// IncludeName adds the display name claim to issued tokens.
	IncludeName bool
	// TokenTTL of zero falls back to the signing config expiry offset.
	TokenTTL time.Duration
	// RegisteredMessage is the confirmation text returned on success.
	RegisteredMessage string
	// LoginMessage is the text returned alongside a token.
	LoginMessage string
}

// AdminPolicy returns the rules for admin accounts: email and password only,
// exact-match duplicate detection, role claim, one hour tokens.
func AdminPolicy() Policy {
	return Policy{
		Kind:              KindAdmin,
		RoleClaim:         AdminRoleClaim,
		TokenTTL:          DefaultAdminTokenTTL,
		RegisteredMessage: "Admin registered successfully.",
		LoginMessage:      "Admin login successful.",
	}
}

// UserPolicy returns the rules for job seeker accounts. ttl is the configured
// token lifetime, zero uses the signing config default.
func UserPolicy(ttl time.Duration) Policy {
	return Policy{
		Kind:                 KindUser,
		RequireProfile:       true,
		MinPasswordLength:    6,
		ValidatePhone:        true,
		CaseInsensitiveEmail: true,
		IncludeName:          true,
		TokenTTL:             ttl,
		RegisteredMessage:    "User registered successfully",
		LoginMessage:         "User login successful.",
	}
}

// Valid reports whether the policy names a known kind
func (p Policy) Valid() bool {
	switch p.Kind {
	case KindAdmin, KindUser:
		return true
	default:
		return false
	}
}

// EmailKey is the value uniqueness is enforced on for this policy
func (p Policy) EmailKey(email string) string {
	if p.CaseInsensitiveEmail {
		return strings.ToLower(email)
	}
	return email
}

func (p Policy) claimsFor(account *Account) Claims {
	claims := Claims{
		Subject: account.ID,
		Email:   account.Email,
		Role:    p.RoleClaim,
	}
	if p.IncludeName {
		claims.Name = account.DisplayName()
	}
	return claims
}
