package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultPublicPrefixes are reachable without a session. "/" is matched exactly.
var DefaultPublicPrefixes = []string{"/login", "/signup", "/logout", "/static", "/api", "/favicon.ico"}

type Action int

const (
	Proceed Action = iota
	Redirect
)

type Decision struct {
	Action   Action
	Location string
}

type Guard struct {
	public []string
}

func NewGuard(publicPrefixes ...string) *Guard {
	if len(publicPrefixes) == 0 {
		publicPrefixes = DefaultPublicPrefixes
	}
	return &Guard{public: publicPrefixes}
}

func (g *Guard) IsPublic(path string) bool {
	if path == "/" {
		return true
	}
	for _, p := range g.public {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide returns the single terminal decision for a request.
func (g *Guard) Decide(path string, hasSession bool) Decision {
	if !hasSession && !g.IsPublic(path) {
		return Decision{Action: Redirect, Location: "/login?next=" + url.QueryEscape(path)}
	}
	if hasSession && (path == "/login" || path == "/signup") {
		return Decision{Action: Redirect, Location: "/"}
	}
	return Decision{Action: Proceed}
}

// Middleware must run after Session.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Decide(c.Request.URL.Path, c.GetString("user_id") != "")
		if d.Action == Redirect {
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
			return
		}
		c.Next()
	}
}
