package middleware

import (
	"strings"

	"mercado/internal/apperrors"
	"mercado/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the Locals key holding the authenticated models.Identity.
const IdentityKey = "identity"

// Authenticator resolves a bearer credential to an identity.
type Authenticator interface {
	Authenticate(credential string) (models.Identity, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's identity in the request locals.
func AuthRequired(auth Authenticator) fiber.Handler {
	return authenticate(auth, false)
}

// AuthRequiredWithQuery also accepts the token in the "token" query
// parameter, for clients that cannot set headers on a websocket handshake.
func AuthRequiredWithQuery(auth Authenticator) fiber.Handler {
	return authenticate(auth, true)
}

func authenticate(auth Authenticator, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c, allowQuery)
		if err != nil {
			return err
		}

		identity, err := auth.Authenticate(token)
		if err != nil {
			return err
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// RequireCapability lets the request through only if the caller holds capability.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return apperrors.ErrUnauthorized
		}
		if !identity.Can(capability) {
			return apperrors.Forbidden("missing capability %s", capability)
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(IdentityKey).(models.Identity)
	return identity, ok
}

// BearerToken extracts the credential from "Authorization: Bearer <token>",
// falling back to the token query parameter when allowQuery is set.
func BearerToken(c *fiber.Ctx, allowQuery bool) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.Unauthorized("authorization header format must be 'Bearer <token>'")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if allowQuery {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
	}
	return "", apperrors.ErrUnauthorized
}
