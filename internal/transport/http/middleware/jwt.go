package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"myopiadx/internal/pkg/jwtutil"
	"myopiadx/internal/transport/http/response"
)

const (
	ContextSpecialistIDKey    = "specialist_id"
	ContextSpecialistEmailKey = "specialist_email"
)

// AuthJWT validates the bearer token and stores the specialist identity
// in the request context.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextSpecialistIDKey, claims.SpecialistID)
		c.Set(ContextSpecialistEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuthJWT records the specialist identity when a valid token is
// present but lets anonymous requests through. Screening requests carry
// the identity into the audit trail when available.
func OptionalAuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		const prefix = "Bearer "
		if strings.HasPrefix(authHeader, prefix) {
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
			if claims, err := jwtutil.ParseToken(secret, token); err == nil {
				c.Set(ContextSpecialistIDKey, claims.SpecialistID)
				c.Set(ContextSpecialistEmailKey, claims.Email)
			}
		}
		c.Next()
	}
}

// SpecialistID returns the authenticated specialist's ID, zero when the
// request is anonymous.
func SpecialistID(c *gin.Context) uint {
	v, ok := c.Get(ContextSpecialistIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
