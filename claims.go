package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity part of a token, before registered claims are added
type Claims struct {
	Subject string
	Email   string
	Name    string
	Role    string
	// TokenID is generated when empty
	TokenID string
}

// JWTClaims is the wire payload of issued tokens
type JWTClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// ClaimSet is what a verified token tells downstream handlers
type ClaimSet struct {
	Subject   string
	Email     string
	Name      string
	Role      string
	TokenID   string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole checks the role claim
func (c *ClaimSet) HasRole(role string) bool {
	return c != nil && c.Role != "" && c.Role == role
}

// IsAdmin reports whether the token was issued to an admin account
func (c *ClaimSet) IsAdmin() bool {
	return c.HasRole(AdminRoleClaim)
}

// Claims returns the identity claims, as passed to Issue
func (c *ClaimSet) Claims() Claims {
	return Claims{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
		Role:    c.Role,
		TokenID: c.TokenID,
	}
}

func claimSetFromJWT(c *JWTClaims) *ClaimSet {
	set := &ClaimSet{
		Subject:  c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Role:     c.Role,
		TokenID:  c.ID,
		Issuer:   c.Issuer,
		Audience: []string(c.Audience),
	}
	if c.IssuedAt != nil {
		set.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		set.ExpiresAt = c.ExpiresAt.Time
	}
	return set
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
