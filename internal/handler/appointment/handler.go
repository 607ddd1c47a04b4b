package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/handler"
	"github.com/jwalitptl/polyclinic-api/internal/middleware"
	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/service/access"
	"github.com/jwalitptl/polyclinic-api/internal/service/booking"
)

type Handler struct {
	booking  *booking.Service
	resolver *access.Resolver
}

func NewHandler(booking *booking.Service, resolver *access.Resolver) *Handler {
	return &Handler{booking: booking, resolver: resolver}
}

// BookAppointment reserves a slot. A conflicting concurrent booking surfaces
// as 409; the caller should offer another slot rather than retry.
func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, req.ServiceID) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	appointment, err := h.booking.Book(c.Request.Context(), &req, &actor.ID)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.booking.GetAppointment(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, appointment.ServiceID) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

// ListByDate returns one day's appointments across all services, joined with
// the service name. Director only; responsibles list through their service.
func (h *Handler) ListByDate(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanAdminister(actor) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("director role required"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date must be YYYY-MM-DD"))
		return
	}

	appointments, err := h.booking.ListByDate(c.Request.Context(), date)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

// CancelAppointment moves an appointment to cancelled. Repeating the call
// reports already_cancelled with 200 rather than failing.
func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	appointment, err := h.booking.GetAppointment(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, appointment.ServiceID) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	outcome, err := h.booking.Cancel(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"outcome": outcome}))
}
