package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"creative-arena-backend/internal/identity"
	"creative-arena-backend/internal/models"
	"creative-arena-backend/internal/store"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Principal is the verified caller. Role is empty until the caller has
// registered a user record.
type Principal struct {
	UID   string
	Email string
	Role  string
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access"})
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden access"})
}

// Authenticate verifies the bearer token and resolves the caller's stored
// role once per request.
func Authenticate(verifier identity.Verifier, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(c)
			return
		}

		token, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			slog.DebugContext(c.Request.Context(), "token rejected", "error", err)
			unauthorized(c)
			return
		}

		principal := Principal{UID: token.UID, Email: token.Email}
		user, err := users.GetUserByEmail(c.Request.Context(), token.Email)
		switch {
		case err == nil:
			principal.Role = user.Role
		case errors.Is(err, store.ErrNotFound):
		default:
			slog.ErrorContext(c.Request.Context(), "role lookup failed", "email", token.Email, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole admits callers whose stored role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			unauthorized(c)
			return
		}
		for _, role := range roles {
			if principal.Role != "" && principal.Role == role {
				c.Next()
				return
			}
		}
		forbidden(c)
	}
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
