package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
)

// UsernameKey holds the signed-in shopper's username in the gin context.
const UsernameKey = "username"

var (
	errInvalidFormat = errors.New("invalid token format")
	errInvalidToken  = errors.New("invalid token")
)

// OptionalUser records the username of a valid bearer token. Anonymous and
// invalid requests pass through without one; checkout never requires login.
func OptionalUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" || secret == "" {
			c.Next()
			return
		}

		claims, err := parseBearer(raw, secret)
		if err != nil {
			log.Println("[AUTH] [WARN] ignoring token:", err)
			c.Next()
			return
		}

		username, _ := claims["username"].(string)
		if strings.TrimSpace(username) == "" {
			username, _ = claims["email"].(string)
		}
		if username = strings.TrimSpace(username); username != "" {
			c.Set(UsernameKey, username)
		}
		c.Next()
	}
}
