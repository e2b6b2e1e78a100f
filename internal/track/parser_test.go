package track

import (
	"errors"
	"testing"
	"time"
)

const twoTracks = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Morning Run</name>
    <trkseg>
      <trkpt lat="48.8566" lon="2.3522"><ele>35.5</ele><time>2023-05-01T08:00:00Z</time></trkpt>
      <trkpt lat="48.8570" lon="2.3530"><time>2023-05-01T08:00:10Z</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="48.8580" lon="2.3540"><ele>40</ele><time>2023-05-01T08:05:00Z</time></trkpt>
    </trkseg>
  </trk>
  <trk>
    <name>Ignored</name>
    <trkseg>
      <trkpt lat="1" lon="1"><time>2023-05-02T08:00:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseFirstTrack(t *testing.T) {
	tr, ok, err := Parse([]byte(twoTracks))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !ok {
		t.Fatal("expected a track")
	}
	if tr.Name != "Morning Run" {
		t.Errorf("Name = %q, want Morning Run", tr.Name)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tr.Segments))
	}
	if tr.Segments[1].Index != 1 {
		t.Errorf("second segment index = %d, want 1", tr.Segments[1].Index)
	}

	first := tr.Segments[0].Points[0]
	if first.Elevation == nil || *first.Elevation != 35.5 {
		t.Errorf("first elevation = %v, want 35.5", first.Elevation)
	}
	want := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	if !first.Time.Equal(want) || first.Time.Location() != time.UTC {
		t.Errorf("first time = %v, want %v in UTC", first.Time, want)
	}
	if tr.Segments[0].Points[1].Elevation != nil {
		t.Error("point without <ele> should have nil elevation")
	}
	if n := len(tr.Points()); n != 3 {
		t.Errorf("Points() = %d, want 3", n)
	}
}

func TestParseNoTracks(t *testing.T) {
	doc := `<?xml version="1.0"?><gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<wpt lat="1" lon="1"><name>only a waypoint</name></wpt></gpx>`
	_, ok, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ok {
		t.Fatal("expected no data")
	}
}

func TestParseMalformed(t *testing.T) {
	_, _, err := Parse([]byte("this is not xml"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestSegmentGPXRoundTrip(t *testing.T) {
	ele := 12.0
	seg := Segment{Points: []Point{
		{Latitude: 1, Longitude: 2, Elevation: &ele, Time: time.Unix(0, 0).UTC()},
		{Latitude: 1.1, Longitude: 2.1},
	}}
	g := seg.GPX()
	if len(g.Points) != 2 {
		t.Fatalf("points = %d", len(g.Points))
	}
	if !g.Points[0].Elevation.NotNull() || g.Points[0].Elevation.Value() != 12 {
		t.Error("elevation not carried over")
	}
	if g.Points[1].Elevation.NotNull() {
		t.Error("missing elevation should stay null")
	}
}

func TestParsePointWithoutTime(t *testing.T) {
	doc := `<?xml version="1.0"?><gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk><trkseg>
<trkpt lat="1" lon="1"><time>2023-05-01T08:00:00Z</time></trkpt>
<trkpt lat="1.001" lon="1"></trkpt>
<trkpt lat="1.002" lon="1"><time>2023-05-01T08:00:20Z</time></trkpt>
</trkseg></trk></gpx>`
	tr, ok, err := Parse([]byte(doc))
	if err != nil || !ok {
		t.Fatalf("Parse: ok=%v err=%v", ok, err)
	}

	seg := tr.Segments[0]
	if seg.Points[1].HasTime() {
		t.Errorf("point without <time> has time %v", seg.Points[1].Time)
	}
	timed := tr.Timed().Segments[0]
	if len(timed.Points) != 2 || timed.Index != seg.Index {
		t.Fatalf("timed segment = %+v", timed)
	}
	if !timed.Points[1].Time.Equal(seg.Points[2].Time) {
		t.Errorf("timed points = %+v", timed.Points)
	}
	if len(seg.Points) != 3 {
		t.Error("Timed must not modify the source segment")
	}
}
