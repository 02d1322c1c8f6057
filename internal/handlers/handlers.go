package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/media"
	"wardrobe/internal/metrics"
	"wardrobe/internal/middleware"
	"wardrobe/internal/models"
	"wardrobe/internal/wardrobe"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Handler struct {
	svc *wardrobe.Service
	cfg *config.Config
}

// SetupRoutes mounts the JSON API under /api/v1. When gatherer is non-nil
// the Prometheus scrape endpoint is served at /metrics.
func SetupRoutes(r *gin.Engine, svc *wardrobe.Service, cfg *config.Config, rec metrics.Recorder, gatherer prometheus.Gatherer) {
	h := &Handler{svc: svc, cfg: cfg}

	r.Use(middleware.Metrics(rec))
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.Track404AndBlock(cfg))
	r.Use(middleware.RateLimit(cfg))

	r.GET("/healthz", h.handleHealth)
	r.GET("/api/v1/options", h.handleOptions)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Use(middleware.AuthRateLimit(cfg))
	{
		auth.POST("/register", h.handleRegister)
		auth.POST("/login", h.handleLogin)
		auth.POST("/google", h.handleGoogleLogin)
		auth.POST("/password-reset", h.handleRequestPasswordReset)
		auth.POST("/password-reset/confirm", h.handleResetPassword)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(svc))
	{
		protected.POST("/auth/logout", h.handleLogout)

		protected.GET("/profile", h.handleGetProfile)
		protected.PATCH("/profile", h.handleUpdateProfile)
		protected.POST("/profile/photo", h.handleUploadProfilePhoto)

		protected.GET("/items", h.handleListItems)
		protected.POST("/items", h.handleCreateItem)
		protected.GET("/items/:id", h.handleGetItem)
		protected.PATCH("/items/:id", h.handleUpdateItem)
		protected.DELETE("/items/:id", h.handleDeleteItem)
		protected.PUT("/items/:id/favorite", h.handleSetItemFavorite)
		protected.POST("/items/:id/worn", h.handleMarkItemWorn)

		protected.GET("/outfits", h.handleListOutfits)
		protected.POST("/outfits", h.handleCreateOutfit)
		protected.GET("/outfits/:id", h.handleGetOutfit)
		protected.PATCH("/outfits/:id", h.handleUpdateOutfit)
		protected.DELETE("/outfits/:id", h.handleDeleteOutfit)
		protected.POST("/outfits/:id/worn", h.handleMarkOutfitWorn)

		protected.GET("/events", h.handleListEvents)
		protected.POST("/events", h.handleCreateEvent)
		protected.GET("/events/:id", h.handleGetEvent)
		protected.PATCH("/events/:id", h.handleUpdateEvent)
		protected.DELETE("/events/:id", h.handleDeleteEvent)

		protected.GET("/metadata/closet", h.handleClosetMetadata)
		protected.GET("/metadata/outfits", h.handleOutfitsMetadata)
		protected.GET("/metadata/events", h.handleEventsMetadata)
		protected.POST("/metadata/reconcile", h.handleReconcile)

		protected.GET("/analytics/closet", h.handleClosetAnalytics)
		protected.GET("/analytics/outfits", h.handleOutfitAnalytics)
	}
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleOptions lists the vocabularies the client offers in its pickers.
func (h *Handler) handleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":   models.Categories,
		"colors":       models.Colors,
		"occasions":    models.Occasions,
		"seasons":      models.Seasons,
		"patterns":     models.Patterns,
		"eventTypes":   models.EventTypes,
		"weatherTypes": models.WeatherTypes,
	})
}

func session(c *gin.Context) *identity.Session {
	return middleware.CurrentSession(c)
}

// respondError maps the error taxonomy onto HTTP statuses. Unexpected errors
// are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, database.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, identity.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "Invalid Google ID token"
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, database.ErrInvalidResetToken):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrEmailTaken):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, identity.ErrGoogleDisabled):
		status, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, media.ErrStorageDisabled):
		status, message = http.StatusServiceUnavailable, "Image storage is not configured"
	case errors.Is(err, models.ErrUpload):
		status, message = http.StatusBadGateway, err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindPayload decodes the request body into dst. Multipart requests carry the
// JSON document in the "data" field next to an optional "image" file.
func bindPayload(c *gin.Context, dst any) (*media.Image, error) {
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(dst); err != nil {
			return nil, models.Invalid("malformed JSON body")
		}
		return nil, nil
	}

	if data := c.PostForm("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return nil, models.Invalid("malformed data field")
		}
	}
	return formImage(c, "image", false)
}

func formImage(c *gin.Context, field string, required bool) (*media.Image, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, nil
		}
		return nil, models.Invalid(field + " file is required")
	}
	if header.Size > media.MaxImageBytes {
		return nil, models.Invalid("image exceeds size limit")
	}

	f, err := header.Open()
	if err != nil {
		return nil, models.Invalid("failed to read image")
	}
	defer f.Close()

	img, err := media.ReadImage(f, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, models.Invalid(err.Error())
	}
	return &img, nil
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, models.Invalid("limit must be a non-negative integer")
	}
	return limit, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, models.Invalid(key + " must be a boolean")
	}
	return v, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, models.Invalid("invalid date " + strconv.Quote(raw))
	}
	return t, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type wornRequest struct {
	Date string `json:"date"`
}

// wornDate reads the optional wear date. An absent body means now.
func wornDate(c *gin.Context) (time.Time, error) {
	var req wornRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return time.Time{}, nil
		}
		return time.Time{}, models.Invalid("malformed JSON body")
	}
	if req.Date == "" {
		return time.Time{}, nil
	}
	return parseDate(req.Date)
}
