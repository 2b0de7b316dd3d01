package domain

import "github.com/google/uuid"

// FeedEntry is one photo in the shop feed. UID only exists for list diffing on the client.
type FeedEntry struct {
	UID      string `json:"uid"`
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	Region   Region `json:"region"`
	ImageURL string `json:"image_url"`
}

func NewFeedEntry(shopID int64, shopName string, region Region, imageURL string) FeedEntry {
	return FeedEntry{
		UID:      uuid.New().String(),
		ShopID:   shopID,
		ShopName: shopName,
		Region:   region,
		ImageURL: imageURL,
	}
}

type FeedPage struct {
	PageNumber int         `json:"page_number"`
	Entries    []FeedEntry `json:"entries"`
}
