package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySetEqualIgnoresOrder(t *testing.T) {
	a := NewCategorySet(CategoryLettering, CategoryFlower, CategoryPhoto)
	b := NewCategorySet(CategoryPhoto, CategoryLettering, CategoryFlower, CategoryPhoto)

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(NewCategorySet(CategoryLettering, CategoryFlower)))
	assert.False(t, a.Equal(NewCategorySet(CategoryLettering, CategoryFlower, CategoryRice)))
	assert.True(t, NewCategorySet().Equal(nil))
}

func TestCategorySetSliceIsCanonical(t *testing.T) {
	set := NewCategorySet(CategoryFigure, CategoryLettering, CategoryRice)
	assert.Equal(t, []Category{CategoryLettering, CategoryRice, CategoryFigure}, set.Slice())
}

func TestParseCategorySet(t *testing.T) {
	set, err := ParseCategorySet("Tiara, rice,,tiara")
	require.NoError(t, err)
	assert.True(t, set.Equal(NewCategorySet(CategoryTiara, CategoryRice)))

	empty, err := ParseCategorySet("")
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	_, err = ParseCategorySet("lettering,cupcake")
	assert.Error(t, err)
}

func TestCategoryIntersects(t *testing.T) {
	set := NewCategorySet(CategoryCharacter)
	assert.True(t, set.Intersects([]Category{CategoryMealbox, CategoryCharacter}))
	assert.False(t, set.Intersects([]Category{CategoryMealbox}))
	assert.False(t, set.Intersects(nil))
}

func TestEveryCategoryHasLabelAndColor(t *testing.T) {
	for _, c := range Categories {
		assert.NotEqual(t, "Unknown", c.Label(), c)
		assert.NotEqual(t, "#CCCCCC", c.Color(), c)
	}
	assert.Equal(t, "Unknown", Category("luxury").Label())
}
