// Package mapview frames tracked phones on a Web Mercator map.
package mapview

import (
	"math"

	"phone-tracker/internal/models"
)

// Viewport modes.
const (
	ModeWorld    = "world"
	ModeSingle   = "single"
	ModeFit      = "fit"
	ModeSelected = "selected"
)

const (
	// WorldZoom is the zoom of the default view shown when there is nothing to frame.
	WorldZoom = 3
	// FocusZoom is used for a single phone and for the selected phone.
	FocusZoom = 13
	// FitPadding is the padding in pixels kept around the pins when fitting bounds.
	FitPadding = 50
	// MaxZoom is the deepest zoom the tile source serves.
	MaxZoom = 18

	tileSize       = 256.0
	maxMercatorLat = 85.0511287798
)

// DefaultCenter is the center of the world view.
var DefaultCenter = LatLng{Lat: 40.7128, Lng: -74.0060}

// DefaultCanvas is the map size assumed when the caller does not know it.
var DefaultCanvas = Canvas{Width: 800, Height: 500}

// LatLng is a geographic coordinate in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the coordinate lies inside b, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Canvas is the pixel size of the rendered map.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Viewport is what the map shows: a center and zoom, plus the fitted bounds in fit mode.
type Viewport struct {
	Mode    string  `json:"mode"`
	Center  LatLng  `json:"center"`
	Zoom    int     `json:"zoom"`
	Bounds  *Bounds `json:"bounds,omitempty"`
	Padding int     `json:"padding,omitempty"`
	Animate bool    `json:"animate"`
}

// WorldView is the viewport of an empty map.
func WorldView() Viewport {
	return Viewport{Mode: ModeWorld, Center: DefaultCenter, Zoom: WorldZoom}
}

// Frame computes the viewport for phones and the selected id.
// It returns false when selectedID is set but matches no phone; the caller keeps its current view.
func Frame(phones []models.TrackedPhone, selectedID string, canvas Canvas) (Viewport, bool) {
	if selectedID != "" {
		for _, p := range phones {
			if p.ID == selectedID {
				return Viewport{
					Mode:    ModeSelected,
					Center:  LatLng{Lat: p.Latitude, Lng: p.Longitude},
					Zoom:    FocusZoom,
					Animate: true,
				}, true
			}
		}
		return Viewport{}, false
	}

	switch len(phones) {
	case 0:
		return WorldView(), true
	case 1:
		return Viewport{
			Mode:   ModeSingle,
			Center: LatLng{Lat: phones[0].Latitude, Lng: phones[0].Longitude},
			Zoom:   FocusZoom,
		}, true
	}

	bounds := BoundsOf(phones)
	return Viewport{
		Mode:    ModeFit,
		Center:  boundsCenter(bounds),
		Zoom:    fitZoom(bounds, canvas, FitPadding),
		Bounds:  &bounds,
		Padding: FitPadding,
	}, true
}

// BoundsOf returns the smallest box containing every phone. phones must not be empty.
func BoundsOf(phones []models.TrackedPhone) Bounds {
	b := Bounds{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}
	for _, p := range phones {
		if p.Latitude < b.MinLat {
			b.MinLat = p.Latitude
		}
		if p.Latitude > b.MaxLat {
			b.MaxLat = p.Latitude
		}
		if p.Longitude < b.MinLon {
			b.MinLon = p.Longitude
		}
		if p.Longitude > b.MaxLon {
			b.MaxLon = p.Longitude
		}
	}
	return b
}

// project converts a coordinate to pixels at zoom 0.
func project(lat, lng float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	sin := math.Sin(lat * math.Pi / 180)
	x = (lng + 180) / 360 * tileSize
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * tileSize
	return x, y
}

func unproject(x, y float64) LatLng {
	lng := x/tileSize*360 - 180
	n := math.Pi * (1 - 2*y/tileSize)
	lat := math.Atan(math.Sinh(n)) * 180 / math.Pi
	return LatLng{Lat: lat, Lng: lng}
}

// boundsCenter is the pixel-space center of b, as a map fitting b would show it.
func boundsCenter(b Bounds) LatLng {
	x1, y1 := project(b.MaxLat, b.MinLon)
	x2, y2 := project(b.MinLat, b.MaxLon)
	return unproject((x1+x2)/2, (y1+y2)/2)
}

// fitZoom is the largest zoom at which b plus padding fits inside canvas.
func fitZoom(b Bounds, canvas Canvas, padding int) int {
	x1, y1 := project(b.MaxLat, b.MinLon)
	x2, y2 := project(b.MinLat, b.MaxLon)
	width, height := x2-x1, y2-y1

	availW := float64(canvas.Width - 2*padding)
	availH := float64(canvas.Height - 2*padding)
	if availW <= 0 || availH <= 0 {
		return 0
	}

	scale := math.Inf(1)
	if width > 0 {
		scale = availW / width
	}
	if height > 0 {
		scale = math.Min(scale, availH/height)
	}
	if math.IsInf(scale, 1) {
		return MaxZoom
	}

	zoom := int(math.Floor(math.Log2(scale)))
	if zoom < 0 {
		return 0
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// Map holds the current viewport across updates.
type Map struct {
	canvas   Canvas
	viewport Viewport
}

// NewMap creates a map showing the world view.
func NewMap(canvas Canvas) *Map {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = DefaultCanvas
	}
	return &Map{canvas: canvas, viewport: WorldView()}
}

// Update reframes the map. When the selection no longer resolves the viewport is left as is
// and Update returns false.
func (m *Map) Update(phones []models.TrackedPhone, selectedID string) bool {
	vp, ok := Frame(phones, selectedID, m.canvas)
	if ok {
		m.viewport = vp
	}
	return ok
}

// Viewport returns the current viewport.
func (m *Map) Viewport() Viewport {
	return m.viewport
}
