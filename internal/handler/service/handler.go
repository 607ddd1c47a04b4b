package service

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/handler"
	"github.com/jwalitptl/polyclinic-api/internal/middleware"
	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/schedule"
	"github.com/jwalitptl/polyclinic-api/internal/service/access"
	"github.com/jwalitptl/polyclinic-api/internal/service/booking"
	"github.com/jwalitptl/polyclinic-api/internal/service/registry"
)

type Handler struct {
	registry        *registry.Service
	booking         *booking.Service
	checker         *schedule.Checker
	resolver        *access.Resolver
	defaultDuration int
}

func NewHandler(
	registry *registry.Service,
	booking *booking.Service,
	checker *schedule.Checker,
	resolver *access.Resolver,
	defaultDuration int,
) *Handler {
	if defaultDuration <= 0 {
		defaultDuration = schedule.DefaultSlotMinutes
	}
	return &Handler{
		registry:        registry,
		booking:         booking,
		checker:         checker,
		resolver:        resolver,
		defaultDuration: defaultDuration,
	}
}

// ListServices returns the services visible to the caller: all active ones
// for a director, the single assigned one for a responsible.
func (h *Handler) ListServices(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	services, err := h.resolver.VisibleServices(c.Request.Context(), actor)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) CreateService(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanAdminister(actor) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("director role required"))
		return
	}

	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	service, err := h.registry.CreateService(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(service))
}

func (h *Handler) GetService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, id) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	service, err := h.registry.GetService(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(service))
}

func (h *Handler) ActivateService(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) DeactivateService(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanAdminister(actor) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("director role required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	if active {
		err = h.registry.Activate(c.Request.Context(), id)
	} else {
		err = h.registry.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"active": active}))
}

func (h *Handler) AssignResponsible(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanAdminister(actor) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("director role required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	var req model.AssignResponsibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.registry.AssignResponsible(c.Request.Context(), id, req.ActorID); err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"responsible_id": req.ActorID}))
}

// ListSlots returns the day's slot grid for a service, each slot annotated
// with its availability at query time.
func (h *Handler) ListSlots(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, id) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date must be YYYY-MM-DD"))
		return
	}

	duration := h.defaultDuration
	if raw := c.Query("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("duration must be a positive number of minutes"))
			return
		}
	}

	service, err := h.registry.GetService(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	slots, err := h.checker.ListSlots(c.Request.Context(), service.ID, date, service.OpenTime, service.CloseTime, duration)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"service_id": service.ID,
		"date":       date,
		"slots":      slots,
	}))
}

// ListAppointments returns a service's appointments, optionally bounded by
// from/to dates.
func (h *Handler) ListAppointments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, id) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	var from, to *model.Date
	if raw := c.Query("from"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("from must be YYYY-MM-DD"))
			return
		}
		from = &d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("to must be YYYY-MM-DD"))
			return
		}
		to = &d
	}

	appointments, err := h.booking.ListByService(c.Request.Context(), id, from, to)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid service ID"))
		return
	}

	actor := middleware.ActorFromContext(c)
	if !h.resolver.CanManage(actor, id) {
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("service not in scope"))
		return
	}

	stats, err := h.booking.Statistics(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFromError(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
