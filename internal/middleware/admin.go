package middleware

import (
	"net/http"
	"net/url"

	"counseling/internal/web"

	"github.com/gin-gonic/gin"
)

// RequireAdmin gates a route group on the administrator set. Anonymous
// callers go to login, other users see the no-permission page (GET) or are
// sent home (mutations).
func RequireAdmin(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.Path))
			c.Abort()
			return
		}

		if admins == nil || !admins.IsAdmin(userID) {
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				c.HTML(http.StatusForbidden, "forbidden.html", web.NewPage(c, "No permission"))
			} else {
				c.Redirect(http.StatusSeeOther, "/?err=forbidden")
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
