package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a style tag attached to a shop. The upstream API calls these storeTypes.
type Category string

func (c Category) String() string {
	return string(c)
}

const (
	CategoryLettering Category = "lettering"
	CategoryCharacter Category = "character"
	CategoryMealbox   Category = "mealbox"
	CategoryTiara     Category = "tiara"
	CategoryRice      Category = "rice"
	CategoryFlower    Category = "flower"
	CategoryPhoto     Category = "photo"
	CategoryFigure    Category = "figure"
)

var Categories = []Category{
	CategoryLettering,
	CategoryCharacter,
	CategoryMealbox,
	CategoryTiara,
	CategoryRice,
	CategoryFlower,
	CategoryPhoto,
	CategoryFigure,
}

func (c Category) Label() string {
	switch c {
	case CategoryLettering:
		return "레터링"
	case CategoryCharacter:
		return "캐릭터"
	case CategoryMealbox:
		return "도시락"
	case CategoryTiara:
		return "티아라"
	case CategoryRice:
		return "떡"
	case CategoryFlower:
		return "플라워"
	case CategoryPhoto:
		return "포토"
	case CategoryFigure:
		return "피규어"
	default:
		return "Unknown"
	}
}

func (c Category) Color() string {
	switch c {
	case CategoryLettering:
		return "#FF7E9D"
	case CategoryCharacter:
		return "#FFB547"
	case CategoryMealbox:
		return "#7FC8A9"
	case CategoryTiara:
		return "#B28DFF"
	case CategoryRice:
		return "#C9A66B"
	case CategoryFlower:
		return "#FF9CEE"
	case CategoryPhoto:
		return "#6EB5FF"
	case CategoryFigure:
		return "#85E3FF"
	default:
		return "#CCCCCC"
	}
}

func (c Category) order() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return len(Categories)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.order() == len(Categories) {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// CategorySet is an unordered set of categories.
type CategorySet map[Category]struct{}

func NewCategorySet(categories ...Category) CategorySet {
	set := make(CategorySet, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return set
}

// ParseCategorySet parses a comma separated list; blanks are ignored.
func ParseCategorySet(s string) (CategorySet, error) {
	set := NewCategorySet()
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseCategory(part)
		if err != nil {
			return nil, err
		}
		set[c] = struct{}{}
	}
	return set, nil
}

func (s CategorySet) Contains(c Category) bool {
	_, ok := s[c]
	return ok
}

func (s CategorySet) Empty() bool {
	return len(s) == 0
}

// Intersects reports whether any of the given categories is in the set.
func (s CategorySet) Intersects(categories []Category) bool {
	for _, c := range categories {
		if s.Contains(c) {
			return true
		}
	}
	return false
}

// Equal compares as sets; order and duplicates are irrelevant.
func (s CategorySet) Equal(other CategorySet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

func (s CategorySet) Clone() CategorySet {
	clone := make(CategorySet, len(s))
	for c := range s {
		clone[c] = struct{}{}
	}
	return clone
}

// Slice returns the members in canonical category order.
func (s CategorySet) Slice() []Category {
	result := make([]Category, 0, len(s))
	for c := range s {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].order() != result[j].order() {
			return result[i].order() < result[j].order()
		}
		return result[i] < result[j]
	})
	return result
}
