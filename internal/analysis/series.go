package analysis

import (
	"math"

	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/spatial"
	"github.com/jengzang/activity-backend-go/internal/track"
)

// Series builds one chart point per track point. Distance accumulates across segment
// boundaries and elapsed time is measured from the very first point.
func Series(t track.Track) []models.ChartPoint {
	var (
		out      []models.ChartPoint
		first    *track.Point
		prev     *track.Point
		distance float64
	)
	for _, seg := range t.Segments {
		g := seg.GPX()
		for i := range seg.Points {
			p := seg.Points[i]
			if first == nil {
				first = &p
			}
			if prev != nil {
				distance += spatial.Distance3D(
					prev.Latitude, prev.Longitude, prev.Elevation,
					p.Latitude, p.Longitude, p.Elevation,
				)
			}

			cp := models.ChartPoint{
				Duration:  int64(math.Abs(elapsed(*first, p).Seconds())),
				Distance:  round(distance/1000, 2),
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Speed:     round(finite(g.Speed(i))*3.6, 2),
				Time:      p.Time,
			}
			if p.Elevation != nil {
				cp.Elevation = round(*p.Elevation, 1)
			}
			out = append(out, cp)
			prev = &p
		}
	}
	return out
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
