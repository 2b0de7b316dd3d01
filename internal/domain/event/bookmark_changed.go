package event

import (
	"time"

	"cakemap/catalog/internal/domain"
)

const TypeBookmarkChanged = "BookmarkChanged"

type BookmarkChanged struct {
	ShopID     int64            `json:"shop_id"`
	Bookmarked bool             `json:"bookmarked"`
	Bookmark   *domain.Bookmark `json:"bookmark,omitempty"` // set when Bookmarked is true
	OccurredAt time.Time        `json:"occurred_at"`
}

func (e *BookmarkChanged) EventType() string {
	return TypeBookmarkChanged
}

func (e *BookmarkChanged) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
