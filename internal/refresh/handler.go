package refresh

import (
	"net/http"
	"net/url"
	"strings"

	"counseling/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxWatchedPaths = 8

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts same-origin upgrades plus the given extra origins.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/refresh/ws", h.Subscribe)
}

// Subscribe upgrades the request and streams revalidation messages for
// every ?path= the client watches.
func (h *Handler) Subscribe(c *gin.Context) {
	paths := watchedPaths(c.QueryArray("path"))
	if len(paths) == 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "at least one path is required")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		return
	}
	h.hub.Serve(conn, paths)
}

func watchedPaths(raw []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if !strings.HasPrefix(p, "/") || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) == maxWatchedPaths {
			break
		}
	}
	return out
}
