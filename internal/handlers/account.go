package handlers

import (
	"net/http"

	"wardrobe/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleGetProfile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), session(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) handleUploadProfilePhoto(c *gin.Context) {
	img, err := formImage(c, "image", true)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.svc.UploadProfilePhoto(c.Request.Context(), session(c), *img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) handleClosetMetadata(c *gin.Context) {
	meta, err := h.svc.ClosetMetadata(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) handleOutfitsMetadata(c *gin.Context) {
	meta, err := h.svc.OutfitsMetadata(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *Handler) handleEventsMetadata(c *gin.Context) {
	meta, err := h.svc.EventsMetadata(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// handleReconcile reports counter drift for the caller. Pass ?repair=true to
// rewrite drifted counters.
func (h *Handler) handleReconcile(c *gin.Context) {
	repair, err := queryBool(c, "repair")
	if err != nil {
		respondError(c, err)
		return
	}

	drift, err := h.svc.Reconcile(c.Request.Context(), session(c), repair)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drift)
}

func (h *Handler) handleClosetAnalytics(c *gin.Context) {
	report, err := h.svc.ClosetAnalytics(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) handleOutfitAnalytics(c *gin.Context) {
	report, err := h.svc.OutfitAnalytics(c.Request.Context(), session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
