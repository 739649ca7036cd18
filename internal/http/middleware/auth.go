package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unipath-labs/go-abroad-backend/internal/auth"
	"github.com/unipath-labs/go-abroad-backend/internal/repo"
)

const (
	// userIDKey is the Gin context key holding the internal user id.
	userIDKey = "userID"
)

// Auth verifies the bearer token on every request and resolves the token
// subject to an internal user row, creating it on first contact. The internal
// id lands in the Gin context under "userID"; nothing downstream ever sees an
// unverified identity.
func Auth(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.FromAuthorizationHeader(c.GetHeader("Authorization"))
		if err != nil {
			// The sentinel (missing vs malformed) is logged; the client only
			// ever sees one generic 401.
			LoggerFrom(c).Warn().Err(err).Msg("authorization header rejected")
			unauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := auth.VerifyToken(raw, secret)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("bearer token rejected")
			unauthorized(c, "invalid or expired token")
			return
		}

		u, err := repo.FindOrCreateUser(c.Request.Context(), db, claims.Subject, claims.Email)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("user resolution failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "internal_error",
				"message":    "internal server error",
			})
			return
		}

		c.Set(userIDKey, u.ID)
		c.Next()
	}
}

// UserIDFrom returns the authenticated internal user id, or "" on
// unauthenticated routes.
func UserIDFrom(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

// SetUserID stores a user id the way Auth does. Used by handler tests that
// bypass token verification.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
