package middleware

import (
	"context"
	"errors"
	"log"

	"counseling/internal/domain"
	"counseling/internal/modules/auth"

	"github.com/gin-gonic/gin"
)

type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*auth.Session, error)
}

type AdminChecker interface {
	IsAdmin(userID string) bool
}

// Session resolves the session cookie and stores session, user_id, email
// and is_admin on the context. Requests without a valid cookie pass through
// anonymously; a stale cookie is cleared.
func Session(resolver SessionResolver, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		session, err := resolver.GetSession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				log.Printf("session_error path=%s error=%q", c.Request.URL.Path, err.Error())
			}
			c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
			c.Next()
			return
		}

		c.Set("session", session)
		c.Set("user_id", session.User.ID)
		c.Set("email", session.User.Email)
		c.Set("is_admin", admins != nil && admins.IsAdmin(session.User.ID))
		c.Next()
	}
}
