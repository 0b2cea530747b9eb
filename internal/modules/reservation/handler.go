package reservation

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"counseling/internal/domain"
	"counseling/internal/web"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(listPath, h.ListPage)
	r.POST(listPath+"/cancel", h.Cancel)
}

type listPage struct {
	web.Page
	Items []View
}

type cancelForm struct {
	ReservationID string `form:"reservationId"`
}

func (h *Handler) ListPage(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(listPath))
			return
		}
		log.Printf("reservation_error op=list error=%q", err.Error())
		c.HTML(http.StatusInternalServerError, "error.html", struct {
			web.Page
			Message string
		}{Page: web.NewPage(c, "Error"), Message: "Your reservations could not be loaded."})
		return
	}

	c.HTML(http.StatusOK, "reservations.html", listPage{
		Page:  web.NewPage(c, "My reservations", listPath),
		Items: items,
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	var form cancelForm
	_ = c.ShouldBind(&form)

	outcome, err := h.service.Cancel(c.Request.Context(), form.ReservationID, c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(listPath))
			return
		}
		code := errorCode(err)
		if code == "store_error" {
			log.Printf("reservation_error op=cancel reservation_id=%s error=%q", form.ReservationID, err.Error())
		}
		c.Redirect(http.StatusSeeOther, listPath+"?err="+code)
		return
	}

	c.Redirect(http.StatusSeeOther, listPath+"?ok="+string(outcome))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTooLate):
		return "too_late"
	default:
		return "store_error"
	}
}
