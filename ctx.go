package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the verified claims in the given context
func WithClaimsContext(ctx context.Context, claims *ClaimSet) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the verified claims from the standard context
func GetClaims(ctx context.Context) (*ClaimSet, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(claimsCtxKey).(*ClaimSet)
	return raw, ok && raw != nil
}

// ContextEnricher is a jwtware validation listener that copies the verified
// claims into the request user context for code below the HTTP layer.
func ContextEnricher(c *fiber.Ctx, claims *ClaimSet) error {
	c.SetUserContext(WithClaimsContext(c.UserContext(), claims))
	return nil
}
