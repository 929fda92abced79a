// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"strings"

	"reviewhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID   = "userID"
	LocalIdentity = "identity"
)

var errMissingToken = errors.New("missing bearer token")

// IdentityVerifier validates tokens issued by the external identity provider.
type IdentityVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewIdentityVerifier creates a verifier for HMAC-signed identity tokens.
// Empty issuer or audience disables that check.
func NewIdentityVerifier(secret, issuer, audience string) *IdentityVerifier {
	return &IdentityVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// Verify parses and validates a raw token and returns the caller identity.
func (v *IdentityVerifier) Verify(tokenString string) (*models.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}

	return &models.Identity{
		UserID:          sub,
		Email:           stringClaim(claims, "email"),
		FirstName:       stringClaim(claims, "first_name"),
		LastName:        stringClaim(claims, "last_name"),
		ProfileImageURL: stringClaim(claims, "profile_image_url"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", models.NewUnauthorizedError("Invalid authorization header format")
	}
	return parts[1], nil
}

func setIdentity(c *fiber.Ctx, identity *models.Identity) {
	c.Locals(LocalUserID, identity.UserID)
	c.Locals(LocalIdentity, identity)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), UserIDKey, identity.UserID)
	c.SetUserContext(ctx)
}

// AuthRequired rejects requests without a valid identity token.
// onIdentity, when non-nil, runs after verification (e.g. to upsert the user).
func AuthRequired(v *IdentityVerifier, onIdentity func(context.Context, *models.Identity) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			if errors.Is(err, errMissingToken) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		identity, err := v.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		setIdentity(c, identity)

		if onIdentity != nil {
			if err := onIdentity(c.UserContext(), identity); err != nil {
				Logger.ErrorContext(c.UserContext(), "identity sync failed", "error", err)
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			}
		}

		return c.Next()
	}
}

// OptionalAuth attaches the caller identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth(v *IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Next()
		}
		if identity, err := v.Verify(tokenString); err == nil {
			setIdentity(c, identity)
		}
		return c.Next()
	}
}

// UserIDFrom returns the authenticated user id, or "" for anonymous requests.
func UserIDFrom(c *fiber.Ctx) string {
	if uid, ok := c.Locals(LocalUserID).(string); ok {
		return uid
	}
	return ""
}

// IdentityFrom returns the verified identity stored by the auth middleware.
func IdentityFrom(c *fiber.Ctx) *models.Identity {
	if identity, ok := c.Locals(LocalIdentity).(*models.Identity); ok {
		return identity
	}
	return nil
}
