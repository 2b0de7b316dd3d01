package domain

import "time"

// Bookmark is a denormalised copy of a shop so it survives the shop leaving the live catalog.
type Bookmark struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Region    Region    `json:"region"`
	Location  string    `json:"location"`
	ImageURLs []string  `json:"image_urls"`
	SavedAt   time.Time `json:"saved_at"`
}

func NewBookmark(shop Shop) Bookmark {
	return Bookmark{
		ID:        shop.ID,
		Name:      shop.Name,
		Region:    shop.Region,
		Location:  shop.Location,
		ImageURLs: append([]string(nil), shop.ImageURLs...),
		SavedAt:   time.Now().UTC(),
	}
}
