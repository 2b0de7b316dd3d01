package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"cakemap/catalog/internal/client"
	"cakemap/catalog/internal/domain"
	"cakemap/catalog/internal/metrics"

	log "github.com/sirupsen/logrus"
)

type ShopRepository interface {
	FetchShopsForRegions(ctx context.Context, regions []domain.Region, page int) ([]domain.Shop, error)
	FetchShopsWithinBounds(ctx context.Context, box domain.BoundingBox, page int) ([]domain.Shop, error)
	// LastResult returns the shops of the most recent fetch that was still current when it completed.
	LastResult() []domain.Shop
	// Lookup finds a shop in the last result.
	Lookup(id int64) (domain.Shop, bool)
}

type shopRepository struct {
	client client.CatalogClient

	// generation is bumped on every fetch; a completion whose generation is stale is discarded.
	generation atomic.Uint64

	mu   sync.RWMutex
	last []domain.Shop
}

func NewShopRepository(client client.CatalogClient) ShopRepository {
	return &shopRepository{
		client: client,
		last:   []domain.Shop{},
	}
}

func (r *shopRepository) FetchShopsForRegions(ctx context.Context, regions []domain.Region, page int) ([]domain.Shop, error) {
	if page < 0 {
		return nil, fmt.Errorf("failed to fetch shops for regions: %w", domain.ErrInvalidPage)
	}

	regions = normalizeRegions(regions)
	gen := r.generation.Add(1)

	shops, err := r.client.FetchShops(ctx, regions, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shops for regions %v page %d: %w", regions, page, err)
	}

	if err := r.commit(gen, shops); err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *shopRepository) FetchShopsWithinBounds(ctx context.Context, box domain.BoundingBox, page int) ([]domain.Shop, error) {
	if page < 0 {
		return nil, fmt.Errorf("failed to fetch shops within bounds: %w", domain.ErrInvalidPage)
	}

	gen := r.generation.Add(1)

	fetched, err := r.client.FetchShopsInBounds(ctx, box, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shops within bounds page %d: %w", page, err)
	}

	// The upstream does not honor bounds precisely.
	shops := make([]domain.Shop, 0, len(fetched))
	for _, shop := range fetched {
		if box.Contains(shop.Latitude, shop.Longitude) {
			shops = append(shops, shop)
		}
	}
	if dropped := len(fetched) - len(shops); dropped > 0 {
		log.Debugf("🗺️ Dropped %d shops outside bounds", dropped)
	}

	if err := r.commit(gen, shops); err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *shopRepository) commit(gen uint64, shops []domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generation.Load() != gen {
		metrics.SupersededFetches.Inc()
		log.Debugf("⏭️ Discarding shop fetch generation %d", gen)
		return domain.ErrSuperseded
	}

	r.last = shops
	return nil
}

func (r *shopRepository) LastResult() []domain.Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Shop(nil), r.last...)
}

func (r *shopRepository) Lookup(id int64) (domain.Shop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, shop := range r.last {
		if shop.ID == id {
			return shop, true
		}
	}
	return domain.Shop{}, false
}

// normalizeRegions drops duplicates and orders regions by registry order so that
// equal sets always produce the same upstream request.
func normalizeRegions(regions []domain.Region) []domain.Region {
	order := make(map[domain.Region]int, len(domain.Regions))
	for i, region := range domain.Regions {
		order[region] = i
	}

	seen := make(map[domain.Region]struct{}, len(regions))
	out := make([]domain.Region, 0, len(regions))
	for _, region := range regions {
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		out = append(out, region)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return order[out[i]] < order[out[j]]
	})
	return out
}
