package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

// ErrMalformed is returned when a document cannot be read as GPX
var ErrMalformed = errors.New("malformed gpx document")

// Parse reads a GPX document and returns its first track.
// ok is false when the document is valid but holds no track; this is not an error.
// Additional tracks are ignored.
func Parse(data []byte) (t Track, ok bool, err error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return Track{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(doc.Tracks) == 0 {
		return Track{}, false, nil
	}

	src := doc.Tracks[0]
	t = Track{
		Name:     src.Name,
		Segments: make([]Segment, 0, len(src.Segments)),
	}
	for i, seg := range src.Segments {
		s := Segment{
			Index:  i,
			Points: make([]Point, 0, len(seg.Points)),
		}
		for _, p := range seg.Points {
			pt := Point{
				Time:      p.Timestamp.UTC(),
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
			}
			if p.Timestamp.IsZero() {
				pt.Time = time.Time{}
			}
			if p.Elevation.NotNull() {
				ele := p.Elevation.Value()
				pt.Elevation = &ele
			}
			s.Points = append(s.Points, pt)
		}
		t.Segments = append(t.Segments, s)
	}
	return t, true, nil
}
