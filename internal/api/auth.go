// internal/api/auth.go
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"compliance-calendar/internal/common/config"
	"compliance-calendar/internal/common/logger"
)

const (
	ctxActorID = "actorId"
	ctxRole    = "actorRole"

	roleAdmin = "admin"
)

// Identity extracts the caller from a bearer token. When a signing key is
// configured the signature is verified; without one the gateway in front is
// trusted to have done that and only the claims are read.
func Identity(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = "role"
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Missing bearer token",
			})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		var err error
		if cfg.SigningKey != "" {
			_, err = jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(cfg.SigningKey), nil
			}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		} else {
			_, _, err = jwt.NewParser().ParseUnverified(raw, claims)
		}
		if err != nil {
			log.Warn("token rejected", map[string]interface{}{"error": err.Error()})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Invalid token",
			})
			return
		}

		sub, _ := claims.GetSubject()
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Token has no subject",
			})
			return
		}

		c.Set(ctxActorID, sub)
		if role, ok := claims[roleClaim].(string); ok {
			c.Set(ctxRole, role)
		}
		c.Next()
	}
}

// RequireAdmin gates mutating event routes on the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != roleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "FORBIDDEN",
				"message": "Admin role required",
			})
			return
		}
		c.Next()
	}
}

func actorID(c *gin.Context) string {
	return c.GetString(ctxActorID)
}
