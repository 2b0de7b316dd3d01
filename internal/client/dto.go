package client

import (
	"fmt"

	"cakemap/catalog/internal/domain"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// shopDTO mirrors the upstream store payload. Field names follow the upstream contract.
type shopDTO struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	District   string   `json:"district"`
	Location   string   `json:"location"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	ImageURLs  []string `json:"imageUrls"`
	StoreTypes []string `json:"storeTypes"`
	URL        *string  `json:"url"`
}

type shopsResponse struct {
	Stores *[]shopDTO `json:"stores"`
}

type feedDTO struct {
	StoreID   int64  `json:"storeId"`
	StoreName string `json:"storeName"`
	District  string `json:"district"`
	ImageURL  string `json:"imageUrl"`
}

type feedResponse struct {
	Feeds *[]feedDTO `json:"feeds"`
}

func (d shopDTO) toDomain() (domain.Shop, error) {
	if d.ID == 0 {
		return domain.Shop{}, fmt.Errorf("store without id")
	}
	if d.Latitude == nil || d.Longitude == nil {
		return domain.Shop{}, fmt.Errorf("store %d has no coordinates", d.ID)
	}
	region, err := domain.ParseRegion(d.District)
	if err != nil {
		return domain.Shop{}, fmt.Errorf("store %d: %w", d.ID, err)
	}

	categories := make([]domain.Category, 0, len(d.StoreTypes))
	for _, raw := range d.StoreTypes {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			log.Warnf("⚠️ Dropping unknown store type %q on store %d", raw, d.ID)
			continue
		}
		categories = append(categories, category)
	}

	shop := domain.Shop{
		ID:         d.ID,
		Name:       d.Name,
		Region:     region,
		Location:   d.Location,
		Latitude:   *d.Latitude,
		Longitude:  *d.Longitude,
		ImageURLs:  d.ImageURLs,
		Categories: categories,
	}
	if shop.ImageURLs == nil {
		shop.ImageURLs = []string{}
	}
	if d.URL != nil && *d.URL != "" {
		link := *d.URL
		shop.Link = &link
	}
	return shop, nil
}

func decodeShops(body []byte) ([]domain.Shop, error) {
	var resp shopsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stores: %w", err)
	}
	if resp.Stores == nil {
		return nil, fmt.Errorf("response has no stores field")
	}

	shops := make([]domain.Shop, 0, len(*resp.Stores))
	for _, dto := range *resp.Stores {
		shop, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		shops = append(shops, shop)
	}
	return shops, nil
}

func decodeShop(body []byte) (domain.Shop, error) {
	var dto shopDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Shop{}, fmt.Errorf("failed to unmarshal store: %w", err)
	}
	return dto.toDomain()
}

func decodeFeed(body []byte) ([]domain.FeedEntry, error) {
	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feeds: %w", err)
	}
	if resp.Feeds == nil {
		return nil, fmt.Errorf("response has no feeds field")
	}

	entries := make([]domain.FeedEntry, 0, len(*resp.Feeds))
	for _, dto := range *resp.Feeds {
		region, err := domain.ParseRegion(dto.District)
		if err != nil {
			return nil, fmt.Errorf("feed for store %d: %w", dto.StoreID, err)
		}
		entries = append(entries, domain.NewFeedEntry(dto.StoreID, dto.StoreName, region, dto.ImageURL))
	}
	return entries, nil
}
