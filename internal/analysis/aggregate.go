package analysis

import (
	"time"

	"github.com/jengzang/activity-backend-go/internal/spatial"
	"github.com/jengzang/activity-backend-go/internal/track"
)

// ActivityStats are the whole-track statistics of an activity
type ActivityStats struct {
	SegmentStats
	StartTime time.Time
	Bounds    *spatial.Bounds
	Route     []track.LonLat
}

// Aggregation is the result of walking every segment of a track
type Aggregation struct {
	Activity ActivityStats
	Segments []SegmentStats

	// Weather is sampled at the very first and very last point of the track only.
	WeatherStart *track.Point
	WeatherEnd   *track.Point
}

// Aggregate computes per-segment statistics and the whole-track statistics of t.
// The gap between two segments is stopped time of the later segment and of the activity.
func Aggregate(t track.Track) Aggregation {
	agg := Aggregation{
		Segments: make([]SegmentStats, 0, len(t.Segments)),
	}

	var fold gapFold
	for _, seg := range t.Segments {
		var leading time.Duration
		leading, fold = fold.step(seg)
		agg.Segments = append(agg.Segments, ComputeSegment(seg, leading))
	}

	timed := t.Timed().GPX()
	whole := motion(timed.MovingData(), timed.Duration(), t.GPX().Length3D(), fold.total)
	whole.Index = -1

	points := t.Points()
	elev := elevationOf(points)
	whole.MinElevation, whole.MaxElevation = elev.min, elev.max
	whole.Ascent, whole.Descent = sumClimb(agg.Segments)

	agg.Activity = ActivityStats{SegmentStats: whole}
	if len(points) == 0 {
		return agg
	}

	first, last := points[0], points[len(points)-1]
	agg.Activity.StartTime = first.Time
	agg.WeatherStart, agg.WeatherEnd = &first, &last

	corners := make([]spatial.Point, 0, len(points))
	agg.Activity.Route = make([]track.LonLat, 0, len(points))
	for _, p := range points {
		corners = append(corners, spatial.Point{Lat: p.Latitude, Lon: p.Longitude})
		agg.Activity.Route = append(agg.Activity.Route, track.LonLat{p.Longitude, p.Latitude})
	}
	if b, ok := spatial.BoundingBox(corners); ok {
		agg.Activity.Bounds = &b
	}
	return agg
}

// gapFold threads the inter-segment gap through the segment walk
type gapFold struct {
	prev  *track.Point
	total time.Duration
}

// step returns the leading gap of seg and the fold state after it. The gap runs between
// timestamped points; segments without any neither open nor close a gap.
func (f gapFold) step(seg track.Segment) (time.Duration, gapFold) {
	timed := seg.Timed()
	first, ok := timed.First()
	if !ok {
		return 0, f
	}
	var gap time.Duration
	if f.prev != nil {
		gap = elapsed(*f.prev, first)
	}
	last, _ := timed.Last()
	return gap, gapFold{prev: &last, total: f.total + gap}
}

// elapsed is b.Time - a.Time, or 0 when either point has no timestamp
func elapsed(a, b track.Point) time.Duration {
	if !a.HasTime() || !b.HasTime() {
		return 0
	}
	return b.Time.Sub(a.Time)
}

func sumClimb(segments []SegmentStats) (ascent, descent *float64) {
	for _, s := range segments {
		if s.Ascent == nil {
			continue
		}
		if ascent == nil {
			ascent, descent = float64Ptr(0), float64Ptr(0)
		}
		*ascent += *s.Ascent
		*descent += *s.Descent
	}
	return ascent, descent
}
