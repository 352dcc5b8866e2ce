package strata

import (
	"encoding/json"
	"fmt"
	"image"
	"sort"

	"golang.org/x/image/draw"
)

// AtlasItem is one keyed bitmap handed to BuildStaticAtlas.
type AtlasItem[K comparable] struct {
	Key    K
	Bitmap image.Image
}

// StaticAtlas is a pre-assembled atlas held in CPU memory: one RGBA image and
// the placement of every entry. It seeds a DynamicAtlas, which keeps packing
// after the static entries.
type StaticAtlas[K comparable] struct {
	Image  *image.RGBA
	packer *Packer[K]
	size   image.Point
}

// BuildStaticAtlas packs all items into one image. The initial size is the
// bit-ceiling of the first item's size+1; whenever anything fails to fit, the
// smaller dimension is doubled and everything is packed again from scratch.
// Since any finite entry fits a large enough square, this always terminates.
//
// Items are placed in slice order. Duplicate keys keep the first bitmap.
func BuildStaticAtlas[K comparable](items []AtlasItem[K]) *StaticAtlas[K] {
	if len(items) == 0 {
		return &StaticAtlas[K]{Image: image.NewRGBA(image.Rectangle{}), packer: NewPacker[K]()}
	}

	size := initialAtlasSize(items[0].Bitmap.Bounds().Size())
	var p *Packer[K]
	for {
		p = NewPacker[K]()
		if packAll(p, items, size) {
			break
		}
		size = growAtlasSize(size)
	}

	img := image.NewRGBA(image.Rectangle{Max: size})
	drawn := make(map[K]bool, len(items))
	for _, it := range items {
		if drawn[it.Key] {
			continue
		}
		drawn[it.Key] = true
		r, _ := p.Lookup(it.Key)
		draw.Copy(img, r.Min, it.Bitmap, it.Bitmap.Bounds(), draw.Src, nil)
	}

	Logger().Debug("strata: built static atlas",
		"entries", p.Len(), "width", size.X, "height", size.Y)
	return &StaticAtlas[K]{Image: img, packer: p, size: size}
}

func packAll[K comparable](p *Packer[K], items []AtlasItem[K], bounds image.Point) bool {
	for _, it := range items {
		if _, ok := p.Insert(it.Key, it.Bitmap.Bounds().Size(), bounds); !ok {
			return false
		}
	}
	return true
}

// Size returns the atlas image dimensions.
func (s *StaticAtlas[K]) Size() image.Point {
	return s.size
}

// Len returns the number of entries.
func (s *StaticAtlas[K]) Len() int {
	return s.packer.Len()
}

// Lookup returns the rectangle of key within Image.
func (s *StaticAtlas[K]) Lookup(key K) (image.Rectangle, bool) {
	return s.packer.Lookup(key)
}

// SubImage returns the entry's pixels as a sub-image of the atlas.
func (s *StaticAtlas[K]) SubImage(key K) (image.Image, bool) {
	r, ok := s.packer.Lookup(key)
	if !ok {
		return nil, false
	}
	return s.Image.SubImage(r), true
}

// --- TexturePacker sheets ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame   jsonRect `json:"frame"`
	Rotated bool     `json:"rotated"`
}

// LoadTexturePackerAtlas builds a StaticAtlas from a TexturePacker JSON sheet
// (hash format, a single "frames" object) and its page bitmap. Frames keep
// their sheet positions; a DynamicAtlas seeded from the result packs new
// entries below them. Rotated frames are rejected.
func LoadTexturePackerAtlas(jsonData []byte, page image.Image) (*StaticAtlas[string], error) {
	var sheet struct {
		Frames map[string]jsonFrame `json:"frames"`
	}
	if err := json.Unmarshal(jsonData, &sheet); err != nil {
		return nil, fmt.Errorf("strata: failed to parse atlas JSON: %w", err)
	}
	if sheet.Frames == nil {
		return nil, fmt.Errorf("strata: atlas JSON has no \"frames\" object")
	}

	pb := page.Bounds()
	names := make([]string, 0, len(sheet.Frames))
	for name := range sheet.Frames {
		names = append(names, name)
	}
	sort.Strings(names)

	p := NewPacker[string]()
	for _, name := range names {
		f := sheet.Frames[name]
		if f.Rotated {
			return nil, fmt.Errorf("strata: atlas frame %q is rotated; rotated frames are not supported", name)
		}
		r := image.Rect(f.Frame.X, f.Frame.Y, f.Frame.X+f.Frame.W, f.Frame.Y+f.Frame.H)
		if f.Frame.W < 0 || f.Frame.H < 0 || !r.In(image.Rectangle{Max: pb.Size()}) {
			return nil, fmt.Errorf("strata: atlas frame %q %v lies outside the %dx%d page", name, r, pb.Dx(), pb.Dy())
		}
		p.Place(name, r)
	}

	img := image.NewRGBA(image.Rectangle{Max: pb.Size()})
	draw.Copy(img, image.Point{}, page, pb, draw.Src, nil)
	return &StaticAtlas[string]{Image: img, packer: p, size: pb.Size()}, nil
}
