package handlers

import (
	"net/http"

	"wardrobe/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleListItems(c *gin.Context) {
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

	items, err := h.svc.ListItems(c.Request.Context(), session(c), models.ItemFilter{
		Category: models.Category(c.Query("category")),
		Color:    c.Query("color"),
		Occasion: c.Query("occasion"),
		Season:   c.Query("season"),
		Favorite: favorite,
		Search:   c.Query("search"),
		Sort:     models.ItemSort(c.Query("sort")),
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) handleCreateItem(c *gin.Context) {
	var item models.ClothingItem
	img, err := bindPayload(c, &item)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.svc.CreateItem(c.Request.Context(), session(c), item, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) handleGetItem(c *gin.Context) {
	item, err := h.svc.GetItem(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) handleUpdateItem(c *gin.Context) {
	var patch models.ItemPatch
	img, err := bindPayload(c, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), session(c), c.Param("id"), patch, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) handleDeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Request.Context(), session(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type favoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

func (h *Handler) handleSetItemFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Favorite == nil {
		badRequest(c, "favorite is required")
		return
	}

	item, err := h.svc.SetItemFavorite(c.Request.Context(), session(c), c.Param("id"), *req.Favorite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) handleMarkItemWorn(c *gin.Context) {
	date, err := wornDate(c)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.svc.MarkItemWorn(c.Request.Context(), session(c), c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
