package server

import (
	"net/http"
	"strings"

	"counseling/internal/middleware"
	"counseling/internal/modules/admin"
	"counseling/internal/modules/auth"
	"counseling/internal/modules/booking"
	"counseling/internal/modules/reservation"
	"counseling/internal/pkg/response"
	"counseling/internal/refresh"
	"counseling/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// Deps carries everything the router needs. Hub may be nil, in which case
// the refresh websocket is not mounted.
type Deps struct {
	Auth        *auth.Service
	Booking     *booking.Service
	Reservation *reservation.Service
	Admin       *admin.Service
	Hub         *refresh.Hub
	Renderer    *web.Renderer
	Cookie      auth.CookieConfig
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HTMLRender = d.Renderer

	policy := d.Admin.Policy()

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLogger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.Session(d.Auth, policy))
	r.Use(middleware.NewGuard().Middleware())

	r.StaticFS("/static", web.StaticFS())

	authHandler := auth.NewHandler(d.Auth, d.Cookie)
	bookingHandler := booking.NewHandler(d.Booking)
	reservationHandler := reservation.NewHandler(d.Reservation)
	adminHandler := admin.NewHandler(d.Admin)

	authHandler.RegisterRoutes(r)
	bookingHandler.RegisterRoutes(r)
	reservationHandler.RegisterRoutes(r)

	adminGroup := r.Group("/admin", middleware.RequireAdmin(policy))
	adminHandler.RegisterRoutes(adminGroup)

	api := r.Group("/api", middleware.CORS(d.CORSOrigins))
	{
		v1 := api.Group("/v1")
		authHandler.RegisterAPIRoutes(v1)
		bookingHandler.RegisterAPIRoutes(v1)

		if d.Hub != nil {
			refresh.NewHandler(d.Hub, d.CORSOrigins).RegisterRoutes(api)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
			return
		}
		c.HTML(http.StatusNotFound, "error.html", struct {
			web.Page
			Message string
		}{Page: web.NewPage(c, "Not found"), Message: "The page you are looking for does not exist."})
	})

	return r
}

// WithCSRF wraps h with double-submit CSRF protection on every unsafe
// method. Plain-HTTP deployments must mark requests as such so the origin
// check does not demand TLS.
func WithCSRF(h http.Handler, key []byte, secure bool) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)(h)
	if secure {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"CSRF_FAILED","message":"Invalid or missing CSRF token"}}`))
		return
	}
	http.Error(w, "Your form expired. Go back, reload the page and try again.", http.StatusForbidden)
}

// ParseSameSite maps the COOKIE_SAMESITE setting onto http.SameSite.
func ParseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
