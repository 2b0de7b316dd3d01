package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

type Shop struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Region     Region     `json:"region"`
	Location   string     `json:"location"` // free-text address
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	ImageURLs  []string   `json:"image_urls"`
	Categories []Category `json:"categories"`
	Link       *string    `json:"link,omitempty"`
}

func (s Shop) Point() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// GetLink returns the external link or an empty string.
func (s Shop) GetLink() string {
	if s.Link != nil {
		return *s.Link
	}
	return ""
}

func (s Shop) HasLink() bool {
	return s.Link != nil && *s.Link != ""
}

// AnnotatedShop carries the derived bookmark state; it is never stored on Shop.
type AnnotatedShop struct {
	Shop
	IsBookmarked bool `json:"is_bookmarked"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BoundingBox is a closed latitude/longitude rectangle.
type BoundingBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.South, b.North, b.West, b.East} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("coordinates must be finite")
		}
	}
	if b.South > b.North {
		return fmt.Errorf("south %.6f is above north %.6f", b.South, b.North)
	}
	if b.West > b.East {
		return fmt.Errorf("west %.6f is east of %.6f", b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("latitude must be within -90..90")
	}
	if b.West < -180 || b.East > 180 {
		return fmt.Errorf("longitude must be within -180..180")
	}
	return nil
}

func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Contains includes points on the edges.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return b.Bound().Contains(orb.Point{lng, lat})
}

// LinkPreview is OpenGraph metadata scraped from a shop's external link.
type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ShopDetail struct {
	AnnotatedShop
	Section RegionSection `json:"section"`
	Preview *LinkPreview  `json:"preview,omitempty"`
}
