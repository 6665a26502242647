package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var errNoToken = errors.New("a token is required for authentication")

type signalClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RequireSocketAuth refuses the connection before the websocket
// upgrade when the presented credential is missing or invalid. The
// token comes from the `token` query parameter or a bearer header.
func RequireSocketAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			log.Warn().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws auth: no token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errNoToken.Error()})
			return
		}

		claims := &signalClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.UserID == "" {
			log.Warn().Err(err).Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws auth: invalid token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not authorized"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
