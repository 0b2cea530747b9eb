package web

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// Page carries what the layout needs on every screen.
type Page struct {
	Title     string
	UserEmail string
	IsAdmin   bool
	CSRFField template.HTML
	Flash     Flash
	// Watch lists the paths whose refresh signals reload this page.
	Watch []string
}

type Flash struct {
	OK  string
	Err string
}

// NewPage reads the session values the middleware stored on the context
// and the ok/err query banners.
func NewPage(c *gin.Context, title string, watch ...string) Page {
	return Page{
		Title:     title,
		UserEmail: c.GetString("email"),
		IsAdmin:   c.GetBool("is_admin"),
		CSRFField: csrf.TemplateField(c.Request),
		Flash: Flash{
			OK:  OKMessage(c.Query("ok")),
			Err: ErrorMessage(c.Query("err")),
		},
		Watch: watch,
	}
}

var okMessages = map[string]string{
	"booked":            "Your reservation is confirmed.",
	"cancelled":         "Your reservation was cancelled.",
	"already_cancelled": "This reservation was already cancelled.",
	"created":           "Slot created. It stays hidden until you activate it.",
	"updated":           "Slot updated.",
	"deleted":           "Slot deleted.",
	"1":                 "Saved.",
}

var errMessages = map[string]string{
	"already_booked":   "This slot was just booked by someone else. Refresh and pick another one.",
	"not_bookable":     "This slot is no longer open for booking.",
	"not_found":        "We could not find that item.",
	"too_late":         "This session has already started and can no longer be cancelled.",
	"invalid_input":    "The request was incomplete. Please try again.",
	"invalid_datetime": "Enter both start and end as valid date and time values.",
	"invalid_range":    "The start must be before the end.",
	"forbidden":        "You do not have permission to do that.",
	"store_error":      "Something went wrong while saving. Please try again.",
}

func OKMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := okMessages[code]; ok {
		return msg
	}
	return okMessages["1"]
}

func ErrorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := errMessages[code]; ok {
		return msg
	}
	return errMessages["store_error"]
}
