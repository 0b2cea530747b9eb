package admin

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"counseling/internal/domain"
	"counseling/internal/web"

	"github.com/gin-gonic/gin"
)

const slotsPath = "/admin/slots"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.ListSlots)
	rg.POST("/slots", h.CreateSlot)
	rg.POST("/slots/:id/active", h.SetSlotActive)
	rg.POST("/slots/:id/delete", h.DeleteSlot)
}

type slotsPage struct {
	web.Page
	Slots []domain.Slot
}

func (h *Handler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(slotsPath))
		case errors.Is(err, domain.ErrForbidden):
			c.HTML(http.StatusForbidden, "forbidden.html", web.NewPage(c, "No permission"))
		default:
			log.Printf("admin_error op=list_slots error=%q", err.Error())
			c.HTML(http.StatusInternalServerError, "error.html", struct {
				web.Page
				Message string
			}{Page: web.NewPage(c, "Error")})
		}
		return
	}

	c.HTML(http.StatusOK, "admin_slots.html", slotsPage{
		Page:  web.NewPage(c, "Manage slots", slotsPath),
		Slots: slots,
	})
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var in CreateSlotInput
	if err := c.ShouldBind(&in); err != nil {
		h.redirectError(c, "create_slot", domain.ErrInvalidInput)
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), in, c.GetString("user_id"))
	if err != nil {
		h.redirectError(c, "create_slot", err)
		return
	}

	log.Printf("admin_slot_created slot_id=%s counselor_id=%s start=%s", slot.ID, slot.CounselorID, slot.StartTS.Format("2006-01-02T15:04Z07:00"))
	c.Redirect(http.StatusSeeOther, slotsPath+"?ok=created")
}

func (h *Handler) SetSlotActive(c *gin.Context) {
	var form setActiveForm
	_ = c.ShouldBind(&form)
	active, err := strconv.ParseBool(form.Active)
	if err != nil {
		h.redirectError(c, "set_slot_active", domain.ErrInvalidInput)
		return
	}

	if err := h.service.SetSlotActive(c.Request.Context(), c.Param("id"), active, c.GetString("user_id")); err != nil {
		h.redirectError(c, "set_slot_active", err)
		return
	}
	c.Redirect(http.StatusSeeOther, slotsPath+"?ok=updated")
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	if err := h.service.DeleteSlot(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		h.redirectError(c, "delete_slot", err)
		return
	}
	c.Redirect(http.StatusSeeOther, slotsPath+"?ok=deleted")
}

func (h *Handler) redirectError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(slotsPath))
		return
	case errors.Is(err, domain.ErrForbidden):
		c.Redirect(http.StatusSeeOther, "/?err=forbidden")
		return
	}

	code := errorCode(err)
	if code == "store_error" {
		log.Printf("admin_error op=%s error=%q", op, err.Error())
	}
	c.Redirect(http.StatusSeeOther, slotsPath+"?err="+code)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidDateTime):
		return "invalid_datetime"
	case errors.Is(err, domain.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "store_error"
	}
}
