package handlers

import (
	"net/http"

	"wardrobe/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleListOutfits(c *gin.Context) {
	favorite, err := queryBool(c, "favorite")
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}

	outfits, err := h.svc.ListOutfits(c.Request.Context(), session(c), models.OutfitFilter{
		Occasion: c.Query("occasion"),
		Season:   c.Query("season"),
		Weather:  c.Query("weather"),
		Favorite: favorite,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outfits": outfits, "count": len(outfits)})
}

func (h *Handler) handleCreateOutfit(c *gin.Context) {
	var outfit models.Outfit
	img, err := bindPayload(c, &outfit)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreateOutfit(c.Request.Context(), session(c), outfit, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) handleGetOutfit(c *gin.Context) {
	outfit, err := h.svc.GetOutfit(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outfit)
}

func (h *Handler) handleUpdateOutfit(c *gin.Context) {
	var patch models.OutfitPatch
	img, err := bindPayload(c, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	outfit, err := h.svc.UpdateOutfit(c.Request.Context(), session(c), c.Param("id"), patch, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outfit)
}

func (h *Handler) handleDeleteOutfit(c *gin.Context) {
	if err := h.svc.DeleteOutfit(c.Request.Context(), session(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleMarkOutfitWorn answers 207 when the outfit was updated but some of
// its items were not. The body lists which items failed.
func (h *Handler) handleMarkOutfitWorn(c *gin.Context) {
	date, err := wornDate(c)
	if err != nil {
		respondError(c, err)
		return
	}

	batch, err := h.svc.MarkOutfitWorn(c.Request.Context(), session(c), c.Param("id"), date)
	if batch != nil && batch.Partial() {
		c.JSON(http.StatusMultiStatus, batch)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
