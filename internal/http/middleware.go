package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookmarkd/internal/auth"
)

const identityKey = "bookmarkd/identity"

// authRequired is the gate in front of every protected route. It verifies
// the bearer token and attaches the resolved identity to the request
// context; on any failure the request is aborted before the handler runs.
func authRequired(tokens *auth.TokenService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthenticated(c)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthenticated(c)
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			// expired vs tampered vs garbage: same response, but the
			// reason matters for diagnosing client clock and key issues
			logger.WithError(err).Debug("rejected bearer token")
			abortUnauthenticated(c)
			return
		}

		c.Set(identityKey, auth.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
}

// identityFrom returns the identity the guard attached. Handlers behind
// authRequired can rely on it being present.
func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
