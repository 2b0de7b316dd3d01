package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cakemap/catalog/internal/bookmark"
	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/feed"
	"cakemap/catalog/internal/repository"
	"cakemap/catalog/internal/service"
	"cakemap/catalog/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	shops []domain.Shop
	err   error
}

func (s *stubClient) FetchShops(ctx context.Context, regions []domain.Region, page int) ([]domain.Shop, error) {
	return s.shops, s.err
}

func (s *stubClient) FetchShopsInBounds(ctx context.Context, box domain.BoundingBox, page int) ([]domain.Shop, error) {
	return s.shops, s.err
}

func (s *stubClient) FetchShop(ctx context.Context, id int64) (domain.Shop, error) {
	for _, shop := range s.shops {
		if shop.ID == id {
			return shop, nil
		}
	}
	return domain.Shop{}, domain.ErrNotFound
}

func (s *stubClient) FetchFeed(ctx context.Context, page int) ([]domain.FeedEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if page > 0 {
		return []domain.FeedEntry{}, nil
	}
	return []domain.FeedEntry{domain.NewFeedEntry(1, "A", domain.RegionMapo, "a.jpg")}, nil
}

func setupRouter(t *testing.T, sc *stubClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenBadger("")
	require.NoError(t, err)
	repo, err := repository.NewBadgerBookmarkRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	catalog := service.NewCatalog(
		repository.NewShopRepository(sc),
		sc,
		bookmark.NewStore(repo),
		state.NewMemoryStore(),
		feed.NewPaginator(sc, 2),
		nil,
	)
	return NewRouter(NewCatalogHandler(catalog))
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type shopsBody struct {
	Page  int                    `json:"page"`
	Shops []domain.AnnotatedShop `json:"shops"`
}

func testShops() []domain.Shop {
	return []domain.Shop{
		{ID: 1, Name: "A", Region: domain.RegionMapo, Latitude: 37.55, Longitude: 126.91, Categories: []domain.Category{domain.CategoryFigure}, ImageURLs: []string{}},
		{ID: 2, Name: "B", Region: domain.RegionMapo, Latitude: 37.56, Longitude: 126.92, Categories: []domain.Category{domain.CategoryRice}, ImageURLs: []string{}},
	}
}

func TestStaticRoutes(t *testing.T) {
	r := setupRouter(t, &stubClient{})

	w := doRequest(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/sections", "")
	require.Equal(t, http.StatusOK, w.Code)
	sections := decode[[]sectionResponse](t, w)
	require.Len(t, sections, 8)
	assert.Equal(t, "도봉,강북,노원", sections[0].Name)

	w = doRequest(r, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]categoryResponse](t, w), len(domain.Categories))

	w = doRequest(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShopsForSectionAndBookmark(t *testing.T) {
	r := setupRouter(t, &stubClient{shops: testShops()})

	w := doRequest(r, http.MethodGet, "/api/sections/1/shops?categories=figure", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[shopsBody](t, w)
	require.Len(t, body.Shops, 1)
	assert.False(t, body.Shops[0].IsBookmarked)

	w = doRequest(r, http.MethodPost, "/api/shops/1/bookmark", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[toggleResponse](t, w).IsBookmarked)

	w = doRequest(r, http.MethodGet, "/api/sections/1/shops", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[shopsBody](t, w)
	require.Len(t, body.Shops, 2)
	assert.True(t, body.Shops[0].IsBookmarked)
	assert.False(t, body.Shops[1].IsBookmarked)

	w = doRequest(r, http.MethodGet, "/api/bookmarks", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Bookmark](t, w), 1)

	w = doRequest(r, http.MethodDelete, "/api/bookmarks/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodGet, "/api/bookmarks", "")
	assert.Empty(t, decode[[]domain.Bookmark](t, w))
}

func TestShopsWithinBounds(t *testing.T) {
	r := setupRouter(t, &stubClient{shops: testShops()})

	w := doRequest(r, http.MethodGet, "/api/shops?bbox=126.90,37.50,126.915,37.60", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[shopsBody](t, w)
	require.Len(t, body.Shops, 1)
	assert.Equal(t, int64(1), body.Shops[0].ID)

	for _, path := range []string{
		"/api/shops",
		"/api/shops?bbox=1,2,3",
		"/api/shops?bbox=a,b,c,d",
		"/api/shops?bbox=127,37,126,38",
		"/api/shops?bbox=NaN,NaN,NaN,NaN",
		"/api/shops?bbox=126,-Inf,127,38",
	} {
		w = doRequest(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		path   string
		status int
		code   string
	}{
		{"transient", domain.NewTransientError("fetch", errors.New("timeout")), "/api/sections/0/shops", http.StatusServiceUnavailable, "upstream_unavailable"},
		{"decode", domain.NewDecodeError("fetch", errors.New("bad json")), "/api/sections/0/shops", http.StatusBadGateway, "upstream_mismatch"},
		{"negative page", nil, "/api/sections/0/shops?page=-1", http.StatusBadRequest, "invalid_parameter"},
		{"bad category", nil, "/api/sections/0/shops?categories=cupcake", http.StatusBadRequest, "invalid_parameter"},
		{"unknown section", nil, "/api/sections/9/shops", http.StatusNotFound, "not_found"},
		{"missing shop", nil, "/api/shops/77", http.StatusNotFound, "not_found"},
		{"bad shop id", nil, "/api/shops/abc", http.StatusBadRequest, "invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, &stubClient{err: tt.err})
			w := doRequest(r, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[errorBody](t, w).Error)
		})
	}
}

func TestFilterRoutes(t *testing.T) {
	r := setupRouter(t, &stubClient{})

	w := doRequest(r, http.MethodPut, "/api/filter", `{"categories":["rice","FIGURE"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	applied := decode[struct {
		Categories []domain.Category `json:"categories"`
		Changed    bool              `json:"changed"`
	}](t, w)
	assert.True(t, applied.Changed)
	assert.ElementsMatch(t, []domain.Category{domain.CategoryRice, domain.CategoryFigure}, applied.Categories)

	w = doRequest(r, http.MethodGet, "/api/filter", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rice")

	w = doRequest(r, http.MethodPut, "/api/filter", `{"categories":["luxury"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/filter", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedRoutes(t *testing.T) {
	r := setupRouter(t, &stubClient{})

	w := doRequest(r, http.MethodPost, "/api/feed/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[struct {
		Loaded  bool               `json:"loaded"`
		Page    int                `json:"page"`
		Entries []domain.FeedEntry `json:"entries"`
	}](t, w)
	assert.True(t, first.Loaded)
	assert.Equal(t, 1, first.Page)
	assert.Len(t, first.Entries, 1)

	w = doRequest(r, http.MethodPost, "/api/feed/next", `{"last_visible":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"exhausted":true`)

	w = doRequest(r, http.MethodPost, "/api/feed/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodGet, "/api/feed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"page":0`)
}
