package handler

import (
	"net/http"
	"strconv"
	"strings"

	"cakemap/catalog/internal/domain"

	"github.com/gin-gonic/gin"
)

type sectionResponse struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Regions   []domain.Region `json:"regions"`
	ShopCount int             `json:"shop_count"`
	Color     string          `json:"color"`
}

type categoryResponse struct {
	ID    domain.Category `json:"id"`
	Label string          `json:"label"`
	Color string          `json:"color"`
}

type toggleResponse struct {
	ID           int64 `json:"id"`
	IsBookmarked bool  `json:"is_bookmarked"`
}

type filterRequest struct {
	Categories []string `json:"categories"`
}

type nextPageRequest struct {
	LastVisible *int `json:"last_visible"`
}

// Health GET /api/health
func (h *CatalogHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListSections GET /api/sections
func (h *CatalogHandler) ListSections(c *gin.Context) {
	sections := domain.SectionsForAllRegions()
	resp := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		resp = append(resp, sectionResponse{
			Index:     s.Index,
			Name:      s.Name(),
			Regions:   s.Regions,
			ShopCount: s.ShopCount,
			Color:     s.Color,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ListCategories GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	resp := make([]categoryResponse, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		resp = append(resp, categoryResponse{ID: cat, Label: cat.Label(), Color: cat.Color()})
	}
	c.JSON(http.StatusOK, resp)
}

// GetSettings GET /api/settings
func (h *CatalogHandler) GetSettings(c *gin.Context) {
	settings, err := h.catalog.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ShopsForSection GET /api/sections/:index/shops?categories=figure,rice&page=0
func (h *CatalogHandler) ShopsForSection(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "invalid_parameter", "section index must be an integer")
		return
	}
	section, ok := domain.SectionByIndex(index)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "unknown section " + c.Param("index"),
		})
		return
	}

	active, page, ok := listParams(c)
	if !ok {
		return
	}

	shops, err := h.catalog.ShopsForSection(c.Request.Context(), section, active, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"section": section.Name(),
		"page":    page,
		"shops":   shops,
	})
}

// ShopsWithinBounds GET /api/shops?bbox=west,south,east,north
func (h *CatalogHandler) ShopsWithinBounds(c *gin.Context) {
	bbox := c.Query("bbox")
	if bbox == "" {
		badRequest(c, "missing_parameter", "bbox parameter is required (format: west,south,east,north)")
		return
	}

	box, err := parseBBox(bbox)
	if err != nil {
		badRequest(c, "invalid_parameter", err.Error())
		return
	}

	active, page, ok := listParams(c)
	if !ok {
		return
	}

	shops, err := h.catalog.ShopsWithinBounds(c.Request.Context(), box, active, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"shops": shops,
	})
}

// GetShop GET /api/shops/:id
func (h *CatalogHandler) GetShop(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	detail, err := h.catalog.ShopDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ToggleBookmark POST /api/shops/:id/bookmark
func (h *CatalogHandler) ToggleBookmark(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	on, err := h.catalog.ToggleBookmarkByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{ID: id, IsBookmarked: on})
}

// ListBookmarks GET /api/bookmarks
func (h *CatalogHandler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.catalog.Bookmarks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

// RemoveBookmark DELETE /api/bookmarks/:id
func (h *CatalogHandler) RemoveBookmark(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	if err := h.catalog.RemoveBookmark(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFilter GET /api/filter
func (h *CatalogHandler) GetFilter(c *gin.Context) {
	pref, err := h.catalog.FilterPreference(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": pref.Slice()})
}

// ApplyFilter PUT /api/filter
func (h *CatalogHandler) ApplyFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid JSON format: "+err.Error())
		return
	}

	set := domain.NewCategorySet()
	for _, raw := range req.Categories {
		cat, err := domain.ParseCategory(raw)
		if err != nil {
			badRequest(c, "invalid_parameter", err.Error())
			return
		}
		set[cat] = struct{}{}
	}

	applied, changed, err := h.catalog.ApplyFilter(c.Request.Context(), set)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": applied.Slice(),
		"changed":    changed,
	})
}

// GetFeed GET /api/feed
func (h *CatalogHandler) GetFeed(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Feed())
}

// NextFeedPage POST /api/feed/next with an optional {"last_visible": n} body.
func (h *CatalogHandler) NextFeedPage(c *gin.Context) {
	var req nextPageRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid_request", "Invalid JSON format: "+err.Error())
			return
		}
	}

	var (
		loaded bool
		err    error
	)
	if req.LastVisible != nil {
		loaded, err = h.catalog.LoadFeedIfNearEnd(c.Request.Context(), *req.LastVisible)
	} else {
		loaded, err = h.catalog.LoadNextFeedPage(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	snap := h.catalog.Feed()
	c.JSON(http.StatusOK, gin.H{
		"loaded":    loaded,
		"page":      snap.Page,
		"exhausted": snap.Exhausted,
		"entries":   snap.Entries,
	})
}

// ResetFeed POST /api/feed/reset
func (h *CatalogHandler) ResetFeed(c *gin.Context) {
	h.catalog.ResetFeed()
	c.Status(http.StatusNoContent)
}

func shopID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid_parameter", "shop id must be a positive integer")
		return 0, false
	}
	return id, true
}

// listParams reads the shared categories and page query parameters.
func listParams(c *gin.Context) (domain.CategorySet, int, bool) {
	active, err := domain.ParseCategorySet(c.Query("categories"))
	if err != nil {
		badRequest(c, "invalid_parameter", err.Error())
		return nil, 0, false
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil {
		badRequest(c, "invalid_parameter", "page must be an integer")
		return nil, 0, false
	}
	return active, page, true
}

func parseBBox(raw string) (domain.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, errBBoxFormat
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return domain.BoundingBox{}, errBBoxFormat
		}
		values[i] = v
	}

	box := domain.BoundingBox{West: values[0], South: values[1], East: values[2], North: values[3]}
	if err := box.Validate(); err != nil {
		return domain.BoundingBox{}, err
	}
	return box, nil
}
