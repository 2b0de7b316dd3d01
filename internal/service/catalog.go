package service

import (
	"context"
	"errors"
	"fmt"

	"cakemap/catalog/internal/bookmark"
	"cakemap/catalog/internal/client"
	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/feed"
	"cakemap/catalog/internal/filter"
	"cakemap/catalog/internal/repository"
	"cakemap/catalog/internal/state"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	log "github.com/sirupsen/logrus"
)

// Catalog composes the shop repository, category filter, bookmark store and
// feed paginator into the operations the API exposes.
type Catalog struct {
	shops     repository.ShopRepository
	client    client.CatalogClient
	bookmarks bookmark.Store
	settings  state.Store
	feed      *feed.Paginator
	previewer client.LinkPreviewer
}

func NewCatalog(
	shops repository.ShopRepository,
	client client.CatalogClient,
	bookmarks bookmark.Store,
	settings state.Store,
	paginator *feed.Paginator,
	previewer client.LinkPreviewer,
) *Catalog {
	return &Catalog{
		shops:     shops,
		client:    client,
		bookmarks: bookmarks,
		settings:  settings,
		feed:      paginator,
		previewer: previewer,
	}
}

func (c *Catalog) ShopsForSection(ctx context.Context, section domain.RegionSection, active domain.CategorySet, page int) ([]domain.AnnotatedShop, error) {
	shops, err := c.shops.FetchShopsForRegions(ctx, section.Regions, page)
	if err != nil {
		return nil, fmt.Errorf("failed to load shops for section %q page %d: %w", section.Name(), page, err)
	}

	c.remember(func() error {
		return state.Set(ctx, c.settings, state.LastSection, section.Index)
	})
	if center, ok := Centroid(shops); ok {
		c.remember(func() error {
			return state.Set(ctx, c.settings, state.LastCoordinate, center)
		})
	}

	return c.annotate(ctx, filter.Apply(active, shops))
}

func (c *Catalog) ShopsWithinBounds(ctx context.Context, box domain.BoundingBox, active domain.CategorySet, page int) ([]domain.AnnotatedShop, error) {
	shops, err := c.shops.FetchShopsWithinBounds(ctx, box, page)
	if err != nil {
		return nil, fmt.Errorf("failed to load shops within bounds page %d: %w", page, err)
	}
	return c.annotate(ctx, filter.Apply(active, shops))
}

// remember writes a setting on a best-effort basis.
func (c *Catalog) remember(write func() error) {
	if err := write(); err != nil {
		log.Warnf("⚠️ Failed to save setting: %v", err)
	}
}

func (c *Catalog) annotate(ctx context.Context, shops []domain.Shop) ([]domain.AnnotatedShop, error) {
	saved, err := c.bookmarks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate shops: %w", err)
	}
	bookmarked := make(map[int64]struct{}, len(saved))
	for _, b := range saved {
		bookmarked[b.ID] = struct{}{}
	}

	result := make([]domain.AnnotatedShop, 0, len(shops))
	for _, shop := range shops {
		_, ok := bookmarked[shop.ID]
		result = append(result, domain.AnnotatedShop{Shop: shop, IsBookmarked: ok})
	}
	return result, nil
}

// ToggleBookmark flips the bookmark for shop and returns the new state.
func (c *Catalog) ToggleBookmark(ctx context.Context, shop domain.Shop) (bool, error) {
	on, err := c.bookmarks.Toggle(ctx, shop.ID, func() domain.Bookmark {
		return domain.NewBookmark(shop)
	})
	if err != nil {
		return on, fmt.Errorf("failed to toggle bookmark for shop %d: %w", shop.ID, err)
	}
	return on, nil
}

// ToggleBookmarkByID resolves the shop first so that an added bookmark carries its details.
func (c *Catalog) ToggleBookmarkByID(ctx context.Context, id int64) (bool, error) {
	shop, err := c.findShop(ctx, id)
	if err != nil {
		// Removing does not need the shop, so a shop gone from the catalog can still be unbookmarked.
		if errors.Is(err, domain.ErrNotFound) {
			if on, existsErr := c.bookmarks.IsBookmarked(ctx, id); existsErr == nil && on {
				return c.ToggleBookmark(ctx, domain.Shop{ID: id})
			}
		}
		return false, err
	}
	return c.ToggleBookmark(ctx, shop)
}

// Centroid returns the mean coordinate of shops, or false when there are none.
func Centroid(shops []domain.Shop) (domain.Coordinate, bool) {
	if len(shops) == 0 {
		return domain.Coordinate{}, false
	}

	points := make(orb.MultiPoint, 0, len(shops))
	for _, shop := range shops {
		points = append(points, shop.Point())
	}
	center, _ := planar.CentroidArea(points)
	return domain.Coordinate{Latitude: center.Lat(), Longitude: center.Lon()}, true
}

func (c *Catalog) findShop(ctx context.Context, id int64) (domain.Shop, error) {
	if shop, ok := c.shops.Lookup(id); ok {
		return shop, nil
	}
	shop, err := c.client.FetchShop(ctx, id)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("failed to load shop %d: %w", id, err)
	}
	return shop, nil
}

func (c *Catalog) Shop(ctx context.Context, id int64) (domain.AnnotatedShop, error) {
	shop, err := c.findShop(ctx, id)
	if err != nil {
		return domain.AnnotatedShop{}, err
	}
	on, err := c.bookmarks.IsBookmarked(ctx, id)
	if err != nil {
		return domain.AnnotatedShop{}, fmt.Errorf("failed to load shop %d: %w", id, err)
	}
	return domain.AnnotatedShop{Shop: shop, IsBookmarked: on}, nil
}

// ShopDetail adds the section and a link preview. A failed preview is dropped.
func (c *Catalog) ShopDetail(ctx context.Context, id int64) (domain.ShopDetail, error) {
	shop, err := c.Shop(ctx, id)
	if err != nil {
		return domain.ShopDetail{}, err
	}

	detail := domain.ShopDetail{
		AnnotatedShop: shop,
		Section:       domain.SectionContaining(shop.Region),
	}

	if shop.HasLink() && c.previewer != nil {
		preview, err := c.previewer.Preview(ctx, shop.GetLink())
		if err != nil {
			log.Warnf("⚠️ Failed to preview link for shop %d: %v", id, err)
		} else {
			detail.Preview = preview
		}
	}
	return detail, nil
}

func (c *Catalog) Bookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	return c.bookmarks.ListAll(ctx)
}

func (c *Catalog) RemoveBookmark(ctx context.Context, id int64) error {
	if err := c.bookmarks.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove bookmark %d: %w", id, err)
	}
	return nil
}

func (c *Catalog) FilterPreference(ctx context.Context) (domain.CategorySet, error) {
	saved, err := state.Get(ctx, c.settings, state.FilterPreference)
	if err != nil {
		return nil, err
	}
	return domain.NewCategorySet(saved...), nil
}

// ApplyFilter saves categories as the filter preference. changed reports
// whether it differs from the previous preference.
func (c *Catalog) ApplyFilter(ctx context.Context, categories domain.CategorySet) (applied domain.CategorySet, changed bool, err error) {
	session, err := filter.NewSession(ctx, c.settings)
	if err != nil {
		return nil, false, err
	}
	if err := session.Replace(categories); err != nil {
		return nil, false, err
	}
	changed = session.HasChanged()

	applied, err = session.Apply(ctx)
	if err != nil {
		return nil, false, err
	}
	return applied, changed, nil
}

// Settings are the values restored when the client starts.
type Settings struct {
	LastSection    int               `json:"last_section"`
	LastCoordinate domain.Coordinate `json:"last_coordinate"`
	Filter         []domain.Category `json:"filter"`
}

func (c *Catalog) Settings(ctx context.Context) (Settings, error) {
	section, err := state.Get(ctx, c.settings, state.LastSection)
	if err != nil {
		return Settings{}, err
	}
	coord, err := state.Get(ctx, c.settings, state.LastCoordinate)
	if err != nil {
		return Settings{}, err
	}
	prefs, err := state.Get(ctx, c.settings, state.FilterPreference)
	if err != nil {
		return Settings{}, err
	}
	return Settings{LastSection: section, LastCoordinate: coord, Filter: prefs}, nil
}

func (c *Catalog) Feed() feed.Snapshot {
	return c.feed.Snapshot()
}

func (c *Catalog) LoadNextFeedPage(ctx context.Context) (bool, error) {
	return c.feed.LoadNextPage(ctx)
}

func (c *Catalog) LoadFeedIfNearEnd(ctx context.Context, lastVisible int) (bool, error) {
	return c.feed.LoadIfNearEnd(ctx, lastVisible)
}

func (c *Catalog) ResetFeed() {
	c.feed.Reset()
}
