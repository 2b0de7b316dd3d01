package handler

import (
	"errors"
	"net/http"

	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/filter"
	"cakemap/catalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var errBBoxFormat = errors.New("bbox must contain 4 numbers: west,south,east,north")

// CatalogHandler serves the catalog JSON API.
type CatalogHandler struct {
	catalog *service.Catalog
}

func NewCatalogHandler(catalog *service.Catalog) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
	}
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(h *CatalogHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/sections", h.ListSections)
		api.GET("/categories", h.ListCategories)
		api.GET("/settings", h.GetSettings)

		api.GET("/sections/:index/shops", h.ShopsForSection)
		api.GET("/shops", h.ShopsWithinBounds)
		api.GET("/shops/:id", h.GetShop)
		api.POST("/shops/:id/bookmark", h.ToggleBookmark)

		api.GET("/bookmarks", h.ListBookmarks)
		api.DELETE("/bookmarks/:id", h.RemoveBookmark)

		api.GET("/filter", h.GetFilter)
		api.PUT("/filter", h.ApplyFilter)

		api.GET("/feed", h.GetFeed)
		api.POST("/feed/next", h.NextFeedPage)
		api.POST("/feed/reset", h.ResetFeed)
	}

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debugf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   code,
		"message": message,
	})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, domain.ErrInvalidPage):
		status, code = http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrSuperseded):
		status, code = http.StatusConflict, "superseded"
	case errors.Is(err, domain.ErrTransientNetwork):
		status, code = http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, domain.ErrDecodeMismatch):
		status, code = http.StatusBadGateway, "upstream_mismatch"
	case errors.Is(err, domain.ErrStoreWrite):
		status, code = http.StatusInternalServerError, "store_write_failed"
	case errors.Is(err, filter.ErrSessionClosed):
		status, code = http.StatusConflict, "session_closed"
	}

	if status >= http.StatusInternalServerError {
		log.Errorf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}
