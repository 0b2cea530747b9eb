package booking

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"counseling/internal/domain"
	"counseling/internal/pkg/response"
	"counseling/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const bookingPath = "/booking"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(bookingPath, h.BookingPage)
	r.POST(bookingPath, h.Book)
}

func (h *Handler) RegisterAPIRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.ListSlotsJSON)
	rg.POST("/slots/:id/reservations", h.BookJSON)
}

type bookingPage struct {
	web.Page
	Slots []domain.Slot
}

func (h *Handler) BookingPage(c *gin.Context) {
	slots, err := h.service.ListBookableSlots(c.Request.Context(), h.service.Now())
	if err != nil {
		log.Printf("booking_error op=list_slots error=%q", err.Error())
		c.HTML(http.StatusInternalServerError, "error.html", struct {
			web.Page
			Message string
		}{Page: web.NewPage(c, "Error"), Message: "Open slots could not be loaded."})
		return
	}

	c.HTML(http.StatusOK, "booking.html", bookingPage{
		Page:  web.NewPage(c, "Book a session", bookingPath),
		Slots: slots,
	})
}

func (h *Handler) Book(c *gin.Context) {
	var form bookForm
	_ = c.ShouldBind(&form)

	_, err := h.service.Book(c.Request.Context(), form.SlotID, c.GetString("user_id"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(bookingPath))
			return
		}
		code := errorCode(err)
		if code == "store_error" {
			log.Printf("booking_error op=book slot_id=%s error=%q", form.SlotID, err.Error())
		}
		c.Redirect(http.StatusSeeOther, bookingPath+"?err="+code)
		return
	}

	c.Redirect(http.StatusSeeOther, bookingPath+"?ok=booked")
}

func (h *Handler) ListSlotsJSON(c *gin.Context) {
	slots, err := h.service.ListBookableSlots(c.Request.Context(), h.service.Now())
	if err != nil {
		log.Printf("booking_error op=list_slots error=%q", err.Error())
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load slots")
		return
	}

	if token := csrf.Token(c.Request); token != "" {
		c.Header("X-CSRF-Token", token)
	}

	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		item := SlotResponse{
			ID:      s.ID,
			StartTS: s.StartTS.Format(time.RFC3339),
			EndTS:   s.EndTS.Format(time.RFC3339),
		}
		if s.Note != nil {
			item.Note = *s.Note
		}
		out = append(out, item)
	}
	response.Success(c, http.StatusOK, gin.H{"slots": out})
}

func (h *Handler) BookJSON(c *gin.Context) {
	r, err := h.service.Book(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		case errors.Is(err, domain.ErrConflict):
			response.Error(c, http.StatusConflict, "SLOT_ALREADY_BOOKED", "This slot was just booked by someone else")
		case errors.Is(err, domain.ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
		case errors.Is(err, domain.ErrInvalidInput):
			response.Error(c, http.StatusUnprocessableEntity, "SLOT_NOT_BOOKABLE", "Slot is not open for booking")
		default:
			log.Printf("booking_error op=book slot_id=%s error=%q", c.Param("id"), err.Error())
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create reservation")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"reservation": gin.H{
			"id":      r.ID,
			"slot_id": r.SlotID,
			"status":  r.Status,
		},
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "already_booked"
	case errors.Is(err, domain.ErrSlotNotBookable):
		return "not_bookable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "store_error"
	}
}
