package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/papercraft/internal/response"
)

// SessionValidator checks a token id against the author's active session.
type SessionValidator interface {
	ValidateAuthorSession(ctx context.Context, authorID int, jti string) error
}

// CheckAuthorSession validates the JWT's JTI against the active session in Redis.
// A token is rejected once the author logs out or logs in elsewhere.
func CheckAuthorSession(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := sessions.ValidateAuthorSession(c.Request.Context(), claims.AuthorID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
