package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ManishBastola/bank-app/internal/core/domain"
	"github.com/ManishBastola/bank-app/pkg/authtoken"
)

const claimCtxKey = contextKey("identityClaim")

// IdentityFilter verifies an inbound bearer token and attaches the resolved
// identity claim to the request context before any handler runs.
//
// A request without an Authorization header passes through anonymous;
// handlers that need an identity enforce it themselves. A present but
// unverifiable token is rejected immediately, before any business logic.
func IdentityFilter(codec *authtoken.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context())

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claim, err := codec.Verify(parts[1])
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, authtoken.ErrExpired) {
				msg = "Token has expired"
			}
			logger.Warn("Token verification failed", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		ctx := context.WithValue(c.Request.Context(), claimCtxKey, claim)
		enrichedLogger := logger.With(slog.Int64("user_id", claim.UserID), slog.String("role", claim.Role))
		ctx = context.WithValue(ctx, loggerCtxKey, enrichedLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// ClaimFromCtx returns the verified identity claim for the request, if any.
func ClaimFromCtx(ctx context.Context) (domain.IdentityClaim, bool) {
	claim, ok := ctx.Value(claimCtxKey).(domain.IdentityClaim)
	return claim, ok
}

// RequireIdentity fetches the request's identity claim and writes a 401 when
// the request is anonymous. Handlers on protected paths call this first.
func RequireIdentity(c *gin.Context) (domain.IdentityClaim, bool) {
	claim, ok := ClaimFromCtx(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return domain.IdentityClaim{}, false
	}
	return claim, true
}
