package handlers

import (
	"net/http"

	"wardrobe/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleListEvents(c *gin.Context) {
	start, err := queryDate(c, "startDate")
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := queryDate(c, "endDate")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	order := models.EventOrder(c.DefaultQuery("order", string(models.EventOrderCreated)))
	if order != models.EventOrderCreated && order != models.EventOrderDate {
		badRequest(c, "order must be created or date")
		return
	}

	events, err := h.svc.ListEvents(c.Request.Context(), session(c), models.EventFilter{
		StartDate: start,
		EndDate:   end,
		Type:      c.Query("type"),
		Order:     order,
		Limit:     limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *Handler) handleCreateEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	created, err := h.svc.CreateEvent(c.Request.Context(), session(c), event)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) handleGetEvent(c *gin.Context) {
	event, err := h.svc.GetEvent(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) handleUpdateEvent(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	event, err := h.svc.UpdateEvent(c.Request.Context(), session(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) handleDeleteEvent(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), session(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
