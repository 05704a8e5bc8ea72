package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/ksuvorov/livewire/internal/domain"
)

const identityKey = "user_id"

// AccessClaims is the typed shape of an access token. Tokens carry a type
// discriminator so refresh tokens cannot open a signaling connection.
type AccessClaims struct {
	UserID    string `json:"id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// AuthMiddleware resolves the caller identity once at the handshake. The
// token is taken from the Authorization header, the "token" query parameter
// (browsers cannot set WS headers), or the accessToken cookie.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveIdentity(c, secret)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("handshake rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Set(identityKey, string(userID))
		c.Next()
	}
}

// UserID returns the identity stashed by AuthMiddleware.
func UserID(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(identityKey))
}

func resolveIdentity(c *gin.Context, secret string) (domain.UserID, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return "", domain.ErrUnauthenticated
	}

	var claims AccessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthenticated
	}
	if claims.TokenType != "access" || claims.UserID == "" {
		return "", domain.ErrUnauthenticated
	}
	return domain.UserID(claims.UserID), nil
}

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if q := c.Query("token"); q != "" {
		return q
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie
	}
	return ""
}
