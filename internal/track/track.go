// Package track holds the in-memory form of a parsed GPS recording.
package track

import (
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

// Point is a single recorded fix. Time is the zero value when the fix carries no timestamp
// and Elevation is nil when the fix has no elevation.
type Point struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Elevation *float64
}

// HasTime reports whether the point carries a timestamp
func (p Point) HasTime() bool {
	return !p.Time.IsZero()
}

// Segment is a contiguous run of points
type Segment struct {
	Index  int
	Points []Point
}

// First returns the first point of the segment
func (s Segment) First() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[0], true
}

// Last returns the last point of the segment
func (s Segment) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Timed returns a copy of the segment holding only the points that carry a timestamp
func (s Segment) Timed() Segment {
	timed := Segment{Index: s.Index, Points: make([]Point, 0, len(s.Points))}
	for _, p := range s.Points {
		if p.HasTime() {
			timed.Points = append(timed.Points, p)
		}
	}
	return timed
}

// GPX converts the segment back into the gpxgo representation so the library's
// motion statistics can be run over it.
func (s Segment) GPX() *gpx.GPXTrackSegment {
	seg := &gpx.GPXTrackSegment{
		Points: make([]gpx.GPXPoint, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		gp := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			},
			Timestamp: p.Time,
		}
		if p.Elevation != nil {
			gp.Elevation.SetValue(*p.Elevation)
		}
		seg.Points = append(seg.Points, gp)
	}
	return seg
}

// Track is the first track of a GPX document
type Track struct {
	Name     string
	Segments []Segment
}

// GPX converts the whole track into the gpxgo representation
func (t Track) GPX() *gpx.GPXTrack {
	trk := &gpx.GPXTrack{
		Name:     t.Name,
		Segments: make([]gpx.GPXTrackSegment, 0, len(t.Segments)),
	}
	for _, s := range t.Segments {
		trk.Segments = append(trk.Segments, *s.GPX())
	}
	return trk
}

// Timed returns a copy of the track whose segments hold only timestamped points
func (t Track) Timed() Track {
	timed := Track{Name: t.Name, Segments: make([]Segment, 0, len(t.Segments))}
	for _, s := range t.Segments {
		timed.Segments = append(timed.Segments, s.Timed())
	}
	return timed
}

// Points returns every point of every segment in order
func (t Track) Points() []Point {
	var n int
	for _, s := range t.Segments {
		n += len(s.Points)
	}
	points := make([]Point, 0, n)
	for _, s := range t.Segments {
		points = append(points, s.Points...)
	}
	return points
}

// LonLat is a route vertex in (longitude, latitude) order
type LonLat [2]float64

// Lon returns the longitude
func (ll LonLat) Lon() float64 { return ll[0] }

// Lat returns the latitude
func (ll LonLat) Lat() float64 { return ll[1] }
