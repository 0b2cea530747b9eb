package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"counseling/internal/pkg/response"
	"counseling/internal/web"

	"github.com/gin-gonic/gin"
)

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// Handler serves the login, signup, logout and home pages.
type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{service: service, cookie: cookie}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Home)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/signup", h.SignupPage)
	r.POST("/signup", h.Signup)
	r.GET("/logout", h.Logout)
	r.POST("/logout", h.Logout)
}

func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

type loginPage struct {
	web.Page
	Email     string
	Next      string
	FormError string
}

type signupPage struct {
	web.Page
	Email       string
	FieldErrors map[string]string
	FormError   string
}

func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", web.NewPage(c, "Home"))
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", loginPage{
		Page: web.NewPage(c, "Log in"),
		Next: SafeNext(c.Query("next")),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	next := SafeNext(form.Next)

	session, err := h.service.SignInWithPassword(c.Request.Context(), form.Credentials)
	if err != nil {
		status, msg := http.StatusUnauthorized, "Incorrect email or password."
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("auth_error op=sign_in error=%q", err.Error())
			status, msg = http.StatusInternalServerError, "Sign in is unavailable right now. Please try again."
		}
		c.HTML(status, "login.html", loginPage{
			Page:      web.NewPage(c, "Log in"),
			Email:     form.Email,
			Next:      next,
			FormError: msg,
		})
		return
	}

	h.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, next)
}

func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", signupPage{Page: web.NewPage(c, "Sign up")})
}

func (h *Handler) Signup(c *gin.Context) {
	var creds Credentials
	_ = c.ShouldBind(&creds)

	session, err := h.service.SignUp(c.Request.Context(), creds)
	if err != nil {
		page := signupPage{Page: web.NewPage(c, "Sign up"), Email: creds.Email}
		status := http.StatusUnprocessableEntity

		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			page.FieldErrors = fieldMessages(verr.Fields)
		case errors.Is(err, ErrEmailAlreadyExists):
			status = http.StatusConflict
			page.FormError = "This email is already registered."
		default:
			log.Printf("auth_error op=sign_up error=%q", err.Error())
			status = http.StatusInternalServerError
			page.FormError = "Sign up is unavailable right now. Please try again."
		}
		c.HTML(status, "signup.html", page)
		return
	}

	h.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if v, ok := c.Get("session"); ok {
		if session, ok := v.(*Session); ok {
			h.service.SignOut(c.Request.Context(), session)
		}
	}
	h.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// Me reports the session user for API clients.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":     UserResponse{ID: userID, Email: c.GetString("email")},
		"is_admin": c.GetBool("is_admin"),
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, s *Session) {
	maxAge := int(h.cookie.TTL.Seconds())
	if !s.ExpiresAt.IsZero() {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(SessionCookie, s.Token, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookie.Secure, true)
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if strings.HasPrefix(next, "/login") || strings.HasPrefix(next, "/signup") || strings.HasPrefix(next, "/logout") {
		return "/"
	}
	return next
}

func fieldMessages(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, tag := range fields {
		switch tag {
		case "required":
			out[field] = "This field is required."
		case "email":
			out[field] = "Enter a valid email address."
		case "min":
			out[field] = "Use at least 6 characters."
		case "max":
			out[field] = "This value is too long."
		default:
			out[field] = "This value is not valid."
		}
	}
	return out
}
