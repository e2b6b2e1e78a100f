// Package thumbnail draws route previews as PNG images.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/jengzang/activity-backend-go/internal/spatial"
	"github.com/jengzang/activity-backend-go/internal/track"
)

// ErrEmptyRoute is returned when there is nothing to draw
var ErrEmptyRoute = errors.New("empty route")

// Renderer projects a route with Web Mercator and strokes it onto a fixed canvas
type Renderer struct {
	Width      int
	Height     int
	Padding    int
	LineWidth  float64
	Color      color.RGBA
	Background color.RGBA
}

// NewRenderer returns a renderer with the default 400x225 layout
func NewRenderer() *Renderer {
	return &Renderer{
		Width:      400,
		Height:     225,
		Padding:    10,
		LineWidth:  4,
		Color:      color.RGBA{R: 0x33, G: 0x88, B: 0xFF, A: 0xFF},
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

// Render draws the route and returns PNG bytes
func (r *Renderer) Render(route []track.LonLat) ([]byte, error) {
	if len(route) == 0 {
		return nil, ErrEmptyRoute
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: r.Background}, image.Point{}, draw.Src)

	pts := r.project(route)
	pen := r.LineWidth / 2
	if len(pts) == 1 {
		r.stamp(img, pts[0][0], pts[0][1], pen)
	}
	for i := 1; i < len(pts); i++ {
		r.stroke(img, pts[i-1], pts[i], pen)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// project maps the route into pixel space, scaled uniformly and centered in the padded canvas
func (r *Renderer) project(route []track.LonLat) [][2]float64 {
	xs := make([][2]float64, len(route))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, ll := range route {
		x, y := spatial.Mercator(ll.Lat(), ll.Lon())
		xs[i] = [2]float64{x, y}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	innerW := float64(r.Width - 2*r.Padding)
	innerH := float64(r.Height - 2*r.Padding)
	dx, dy := maxX-minX, maxY-minY

	scale := 0.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(innerW/dx, innerH/dy)
	case dx > 0:
		scale = innerW / dx
	case dy > 0:
		scale = innerH / dy
	}

	offX := float64(r.Padding) + (innerW-dx*scale)/2
	offY := float64(r.Padding) + (innerH-dy*scale)/2
	for i := range xs {
		xs[i][0] = offX + (xs[i][0]-minX)*scale
		xs[i][1] = offY + (xs[i][1]-minY)*scale
	}
	return xs
}

// stroke stamps round pen marks every half pixel between a and b
func (r *Renderer) stroke(img *image.RGBA, a, b [2]float64, pen float64) {
	length := math.Hypot(b[0]-a[0], b[1]-a[1])
	steps := int(math.Ceil(length*2)) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		r.stamp(img, a[0]+(b[0]-a[0])*t, a[1]+(b[1]-a[1])*t, pen)
	}
}

func (r *Renderer) stamp(img *image.RGBA, cx, cy, radius float64) {
	x0, x1 := int(math.Floor(cx-radius)), int(math.Ceil(cx+radius))
	y0, y1 := int(math.Floor(cy-radius)), int(math.Ceil(cy+radius))
	bounds := img.Bounds()
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= radius {
				img.SetRGBA(x, y, r.Color)
			}
		}
	}
}
