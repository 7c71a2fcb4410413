package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID      string          `json:"sub"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Email       string          `json:"email,omitempty"`
	Role        domain.UserRole `json:"role"`
}

// ActorName is the audit label for the principal.
func (p *Principal) ActorName() string {
	if p == nil {
		return domain.SystemActor
	}
	return domain.ResolveActor(p.DisplayName, p.Username, p.Email)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle requires a valid bearer token.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return util.NewUnauthorized("missing authorization header")
	}
	return m.Optional(c)
}

// Optional loads a principal when a bearer token is present and passes
// anonymous requests through. A malformed or invalid token is rejected.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		UserID:      claims.Subject,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Role:        claims.Role,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// Actor resolves the audit actor: an explicit body value wins, then the
// principal, then the system actor.
func Actor(c *fiber.Ctx, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	principal, _ := PrincipalFromContext(c)
	return principal.ActorName()
}
