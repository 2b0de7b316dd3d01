package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxValidate(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name string
		box  BoundingBox
		ok   bool
	}{
		{"seoul", BoundingBox{South: 37.4, North: 37.7, West: 126.8, East: 127.2}, true},
		{"degenerate point", BoundingBox{South: 37.5, North: 37.5, West: 127, East: 127}, true},
		{"inverted latitude", BoundingBox{South: 38, North: 37, West: 126, East: 127}, false},
		{"inverted longitude", BoundingBox{South: 37, North: 38, West: 127, East: 126}, false},
		{"latitude out of range", BoundingBox{South: -91, North: 38, West: 126, East: 127}, false},
		{"longitude out of range", BoundingBox{South: 37, North: 38, West: 126, East: 181}, false},
		{"nan", BoundingBox{South: nan, North: nan, West: nan, East: nan}, false},
		{"one nan", BoundingBox{South: 37, North: nan, West: 126, East: 127}, false},
		{"infinite", BoundingBox{South: -inf, North: 38, West: 126, East: 127}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBoundingBoxContainsEdges(t *testing.T) {
	box := BoundingBox{South: 37, North: 38, West: 126, East: 127}
	assert.True(t, box.Contains(37, 126))
	assert.True(t, box.Contains(38, 127))
	assert.False(t, box.Contains(38.0001, 126.5))
}
