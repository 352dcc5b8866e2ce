package strata

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStaticAtlasRepacksOnGrowth(t *testing.T) {
	s := BuildStaticAtlas([]AtlasItem[string]{
		{Key: "a", Bitmap: solid(30, 30, red)},
		{Key: "b", Bitmap: solid(30, 30, green)},
		{Key: "c", Bitmap: solid(30, 30, blue)},
	})

	assert.Equal(t, image.Pt(64, 64), s.Size())
	assert.Equal(t, 3, s.Len())

	want := map[string]image.Rectangle{
		"a": image.Rect(0, 0, 30, 30),
		"b": image.Rect(30, 0, 60, 30),
		"c": image.Rect(0, 30, 30, 60),
	}
	for k, r := range want {
		got, ok := s.Lookup(k)
		require.True(t, ok, k)
		assert.Equal(t, r, got, k)
	}
	assertFilled(t, s.Image, want["a"], red)
	assertFilled(t, s.Image, want["b"], green)
	assertFilled(t, s.Image, want["c"], blue)
}

func TestBuildStaticAtlasEmpty(t *testing.T) {
	s := BuildStaticAtlas[int](nil)
	assert.Zero(t, s.Len())
	assert.Equal(t, image.Point{}, s.Size())

	a, err := NewDynamicAtlasFrom(&ImageDevice{}, s, AtlasConfig{})
	require.NoError(t, err)
	assert.Equal(t, image.Point{}, a.Size())
}

func TestBuildStaticAtlasDuplicateKeepsFirst(t *testing.T) {
	s := BuildStaticAtlas([]AtlasItem[string]{
		{Key: "a", Bitmap: solid(8, 8, red)},
		{Key: "a", Bitmap: solid(8, 8, blue)},
	})
	assert.Equal(t, 1, s.Len())
	r, _ := s.Lookup("a")
	assertFilled(t, s.Image, r, red)
}

func TestStaticAtlasSubImage(t *testing.T) {
	s := BuildStaticAtlas([]AtlasItem[int]{
		{Key: 1, Bitmap: solid(4, 4, red)},
		{Key: 2, Bitmap: solid(4, 4, green)},
	})
	sub, ok := s.SubImage(2)
	require.True(t, ok)
	assert.Equal(t, image.Rect(4, 0, 8, 4), sub.Bounds())
	assert.Equal(t, color.RGBAModel.Convert(green), sub.At(5, 1))

	_, ok = s.SubImage(3)
	assert.False(t, ok)
}

// --- TexturePacker sheets ---

const sheetJSON = `{
  "frames": {
    "hero.png": {
      "frame": {"x": 0, "y": 0, "w": 64, "h": 64},
      "rotated": false,
      "trimmed": false,
      "spriteSourceSize": {"x": 0, "y": 0, "w": 64, "h": 64},
      "sourceSize": {"w": 64, "h": 64}
    },
    "enemy.png": {
      "frame": {"x": 64, "y": 0, "w": 32, "h": 48},
      "rotated": false,
      "trimmed": false,
      "spriteSourceSize": {"x": 0, "y": 0, "w": 32, "h": 48},
      "sourceSize": {"w": 32, "h": 48}
    }
  },
  "meta": {"size": {"w": 128, "h": 64}}
}`

func TestLoadTexturePackerAtlas(t *testing.T) {
	page := solid(128, 64, red)
	s, err := LoadTexturePackerAtlas([]byte(sheetJSON), page)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, image.Pt(128, 64), s.Size())
	r, ok := s.Lookup("enemy.png")
	require.True(t, ok)
	assert.Equal(t, image.Rect(64, 0, 96, 48), r)
	assertFilled(t, s.Image, r, red)

	a, err := NewDynamicAtlasFrom(&ImageDevice{}, s, AtlasConfig{})
	require.NoError(t, err)
	nr, err := a.Add("coin", solid(16, 16, blue))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 64), nr.Min, "new entries pack below the sheet")
}

func TestLoadTexturePackerAtlasErrors(t *testing.T) {
	page := solid(64, 64, red)
	tests := []struct {
		name string
		json string
		want string
	}{
		{"invalid json", `{`, "failed to parse atlas JSON"},
		{"no frames", `{"meta": {}}`, "no \"frames\" object"},
		{"rotated", `{"frames": {"r.png": {"frame": {"x":0,"y":0,"w":8,"h":8}, "rotated": true}}}`, "rotated"},
		{"out of bounds", `{"frames": {"big.png": {"frame": {"x":32,"y":0,"w":64,"h":8}}}}`, "outside the 64x64 page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTexturePackerAtlas([]byte(tt.json), page)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
