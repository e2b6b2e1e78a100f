// Package analysis derives motion statistics and chart series from parsed tracks.
//
// Moving and stopped time follow gpxgo's MovingData heuristic: an interval between two
// consecutive points counts as stopped when its speed is at or below 1 km/h.
package analysis

import (
	"math"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/jengzang/activity-backend-go/internal/track"
)

// SegmentStats holds the motion statistics of one segment or of a whole track.
// Distance is in kilometers, speeds in km/h.
type SegmentStats struct {
	Index        int
	Distance     float64
	Duration     time.Duration
	MovingTime   time.Duration
	StoppedTime  time.Duration
	MinElevation *float64
	MaxElevation *float64
	Ascent       *float64
	Descent      *float64
	MaxSpeed     float64
	AverageSpeed float64
}

// ComputeSegment computes the statistics of one segment. leading is the stopped time
// carried over from the gap before the segment; it is added to both duration and
// stopped time. Points without a timestamp count toward distance only.
func ComputeSegment(seg track.Segment, leading time.Duration) SegmentStats {
	timed := seg.Timed().GPX()
	stats := motion(timed.MovingData(), timed.Duration(), seg.GPX().Length3D(), leading)
	stats.Index = seg.Index

	elev := elevationOf(seg.Points)
	stats.MinElevation, stats.MaxElevation = elev.min, elev.max
	stats.Ascent, stats.Descent = elev.ascent, elev.descent
	return stats
}

// motion converts gpxgo's raw motion figures (meters, seconds, m/s) into SegmentStats.
// md and durationSeconds must come from timestamped points only.
func motion(md gpx.MovingData, durationSeconds, distanceMeters float64, leading time.Duration) SegmentStats {
	stats := SegmentStats{
		Distance:    distanceMeters / 1000,
		Duration:    seconds(durationSeconds) + leading,
		MovingTime:  seconds(md.MovingTime),
		StoppedTime: seconds(md.StoppedTime) + leading,
		MaxSpeed:    finite(md.MaxSpeed) * 3.6,
	}
	stats.AverageSpeed = averageSpeed(stats.Distance, stats.MovingTime)
	return stats
}

// averageSpeed returns km/h, or 0 when nothing moved
func averageSpeed(distanceKm float64, moving time.Duration) float64 {
	if moving <= 0 {
		return 0
	}
	return distanceKm / moving.Hours()
}

func seconds(s float64) time.Duration {
	return time.Duration(finite(s) * float64(time.Second))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

type elevation struct {
	min, max        *float64
	ascent, descent *float64
}

// elevationOf scans the points that carry an elevation. All fields stay nil when none does.
func elevationOf(points []track.Point) elevation {
	var (
		e    elevation
		prev *float64
		up   float64
		down float64
	)
	for _, p := range points {
		if p.Elevation == nil {
			continue
		}
		v := *p.Elevation
		if e.min == nil || v < *e.min {
			e.min = float64Ptr(v)
		}
		if e.max == nil || v > *e.max {
			e.max = float64Ptr(v)
		}
		if prev != nil {
			if d := v - *prev; d > 0 {
				up += d
			} else {
				down -= d
			}
		}
		prev = p.Elevation
	}
	if e.min != nil {
		e.ascent, e.descent = float64Ptr(up), float64Ptr(down)
	}
	return e
}

func float64Ptr(v float64) *float64 {
	return &v
}
