package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestImportSingleFile(t *testing.T) {
	h := newHarness(t, 10, "")
	ctx := context.Background()

	res, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: 5, Notes: "easy"}, gpxUpload("run.gpx", gpxDoc("", shapes[0], 10)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Activities) != 1 || len(res.Failures) != 0 || res.Attempted != 1 {
		t.Fatalf("result = %+v", res)
	}

	a := res.Activities[0]
	if a.ID == 0 {
		t.Error("activity id not assigned")
	}
	if want := "Running - 2023-05-01 08:00:00"; a.Title != want {
		t.Errorf("Title = %q, want %q", a.Title, want)
	}
	if !a.ActivityDate.Equal(gpxStart) {
		t.Errorf("ActivityDate = %v, want %v", a.ActivityDate, gpxStart)
	}
	if a.DurationSeconds != 90 {
		t.Errorf("DurationSeconds = %d, want 90", a.DurationSeconds)
	}
	if a.Ascent == nil || *a.Ascent != 9 {
		t.Errorf("Ascent = %v, want 9", a.Ascent)
	}
	if len(a.MapID) != 64 {
		t.Errorf("MapID = %q, want a sha256 hex digest", a.MapID)
	}
	if a.WeatherStart == nil || a.WeatherEnd == nil || h.weather.calls != 2 {
		t.Errorf("weather = %v/%v after %d calls", a.WeatherStart, a.WeatherEnd, h.weather.calls)
	}
	for _, rel := range []string{a.GPXPath, a.MapPath} {
		if _, err := os.Stat(h.files.Abs(rel)); err != nil {
			t.Errorf("stored file %s: %v", rel, err)
		}
	}
	if !strings.HasPrefix(a.GPXPath, fmt.Sprintf("activities/%d/20230501_080000_5_", h.user.ID)) {
		t.Errorf("GPXPath = %q", a.GPXPath)
	}

	stored, err := h.service.Get(ctx, h.user.ID, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Notes != "easy" || stored.Distance != a.Distance || !stored.ActivityDate.Equal(a.ActivityDate) {
		t.Errorf("stored = %+v, want %+v", stored, a)
	}
	if len(stored.Segments) != 1 || stored.Segments[0].SegmentID != 0 {
		t.Errorf("stored segments = %+v", stored.Segments)
	}
	if stored.WeatherStart == nil || stored.WeatherStart.Summary != "Clear" {
		t.Errorf("stored weather = %+v", stored.WeatherStart)
	}
	if stored.Bounds == nil {
		t.Error("stored bounds missing")
	}

	left, err := os.ReadDir(h.files.Abs("tmp"))
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("working directories left behind: %d", len(left))
	}
}

func TestImportPointsWithoutTime(t *testing.T) {
	tests := []struct {
		name         string
		strip        string
		wantDuration int64
	}{
		{"trailing point", "<time>2023-05-01T08:01:30Z</time>", 80},
		{"mid-segment point", "<time>2023-05-01T08:00:40Z</time>", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 10, "")
			doc := strings.Replace(gpxDoc("", shapes[0], 10), tt.strip, "", 1)

			res, err := h.imports.Import(context.Background(), h.user.ID, ActivityInput{SportID: 5}, gpxUpload("run.gpx", doc))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if len(res.Activities) != 1 {
				t.Fatalf("result = %+v", res)
			}

			stored, err := h.service.Get(context.Background(), h.user.ID, res.Activities[0].ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.DurationSeconds != tt.wantDuration {
				t.Errorf("DurationSeconds = %d, want %d", stored.DurationSeconds, tt.wantDuration)
			}
			figures := [][3]int64{{stored.DurationSeconds, stored.MovingSeconds, stored.PausesSeconds}}
			for _, seg := range stored.Segments {
				figures = append(figures, [3]int64{seg.DurationSeconds, seg.MovingSeconds, seg.PausesSeconds})
			}
			for i, f := range figures {
				if f[1] < 0 || f[2] < 0 || f[1]+f[2] > f[0] {
					t.Errorf("figures %d: duration %d moving %d pauses %d", i, f[0], f[1], f[2])
				}
			}
			if stored.Distance <= 0 {
				t.Errorf("Distance = %v, want positive", stored.Distance)
			}
		})
	}
}

func TestImportTrackNameTitle(t *testing.T) {
	h := newHarness(t, 10, "")
	res, err := h.imports.Import(context.Background(), h.user.ID, ActivityInput{SportID: 3}, gpxUpload("hike.gpx", gpxDoc("Ridge Walk", shapes[1], 5)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := res.Activities[0].Title; got != "Ridge Walk" {
		t.Errorf("Title = %q, want Ridge Walk", got)
	}
}

func TestImportLocalizesStart(t *testing.T) {
	h := newHarness(t, 10, "Europe/Paris")
	ctx := context.Background()

	res, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: 5}, gpxUpload("run.gpx", gpxDoc("", shapes[0], 5)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	a := res.Activities[0]
	if want := "Running - 2023-05-01 10:00:00"; a.Title != want {
		t.Errorf("Title = %q, want %q", a.Title, want)
	}

	stored, err := h.service.Get(ctx, h.user.ID, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !stored.ActivityDate.Equal(gpxStart) {
		t.Errorf("ActivityDate = %v, want %v", stored.ActivityDate, gpxStart)
	}
	wantLocal := gpxStart.Add(2 * time.Hour)
	if stored.ActivityDateLocal == nil || !stored.ActivityDateLocal.Equal(wantLocal) {
		t.Errorf("ActivityDateLocal = %v, want %v", stored.ActivityDateLocal, wantLocal)
	}
}

func TestImportRejections(t *testing.T) {
	tests := []struct {
		name   string
		sport  int64
		upload Upload
		want   error
	}{
		{"extension", 5, gpxUpload("run.txt", "hello"), ErrUnsupportedFile},
		{"no name", 5, gpxUpload("", "hello"), ErrUnsupportedFile},
		{"unknown sport", 99, gpxUpload("run.gpx", gpxDoc("", shapes[0], 3)), ErrUnknownSport},
		{"malformed", 5, gpxUpload("run.gpx", malformedGPX), ErrMalformedInput},
		{"no tracks", 5, gpxUpload("run.gpx", waypointOnlyGPX), ErrNoTrackData},
		{"no time", 5, gpxUpload("run.gpx", noTimeGPX), ErrMalformedInput},
		{"bad archive", 5, gpxUpload("batch.zip", "not a zip"), ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 10, "")
			ctx := context.Background()

			_, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: tt.sport}, tt.upload)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ae *ActivityError
			if !errors.As(err, &ae) || ae.Status != StatusError {
				t.Errorf("error = %#v, want status %q", err, StatusError)
			}

			list, err := h.service.List(ctx, h.user.ID, 1, 20)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if list.Total != 0 {
				t.Errorf("stored activities = %d, want 0", list.Total)
			}
			if _, err := os.Stat(h.files.Abs("activities")); !os.IsNotExist(err) {
				t.Errorf("activities directory exists after a rejected import")
			}
		})
	}
}

func TestImportUnknownUser(t *testing.T) {
	h := newHarness(t, 10, "")
	_, err := h.imports.Import(context.Background(), h.user.ID+1, ActivityInput{SportID: 5}, gpxUpload("run.gpx", gpxDoc("", shapes[0], 3)))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestImportDuplicateIsIntegrityError(t *testing.T) {
	h := newHarness(t, 10, "")
	ctx := context.Background()
	doc := gpxDoc("", shapes[2], 8)

	if _, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: 5}, gpxUpload("run.gpx", doc)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	_, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: 5}, gpxUpload("run.gpx", doc))
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("err = %v, want ErrIntegrity", err)
	}
	var ae *ActivityError
	if !errors.As(err, &ae) || ae.Status != StatusFail {
		t.Errorf("status = %v, want %q", err, StatusFail)
	}

	list, err := h.service.List(ctx, h.user.ID, 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("stored activities = %d, want 1", list.Total)
	}
	files, err := os.ReadDir(h.files.Abs(fmt.Sprintf("activities/%d", h.user.ID)))
	if err != nil {
		t.Fatalf("read activities dir: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("stored files = %d, want 2 (the rejected import must not leave artifacts)", len(files))
	}
}

func TestImportArchivePartialFailure(t *testing.T) {
	h := newHarness(t, 10, "")
	ctx := context.Background()

	archive := zipArchive(t,
		zipEntry{"a.gpx", gpxDoc("", shapes[0], 6)},
		zipEntry{"b.gpx", malformedGPX},
		zipEntry{"c.gpx", gpxDoc("", shapes[1], 6)},
		zipEntry{"notes.txt", "not a track"},
		zipEntry{"nested.zip", "ignored"},
	)
	res, err := h.imports.Import(ctx, h.user.ID, ActivityInput{SportID: 6}, Upload{Filename: "batch.zip", Content: archive})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(res.Activities) != 2 {
		t.Errorf("activities = %d, want 2", len(res.Activities))
	}
	if res.Attempted != 3 || res.LimitReached {
		t.Errorf("attempted = %d, limit reached = %v", res.Attempted, res.LimitReached)
	}
	if len(res.Failures) != 1 || res.Failures[0].Filename != "b.gpx" {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if res.Failures[0].Reason != "error during gpx file parsing" {
		t.Errorf("reason = %q", res.Failures[0].Reason)
	}

	list, err := h.service.List(ctx, h.user.ID, 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 2 {
		t.Errorf("stored activities = %d, want 2", list.Total)
	}
}

func TestImportArchiveLimit(t *testing.T) {
	tests := []struct {
		name         string
		entries      int
		limit        int
		wantCreated  int
		limitReached bool
	}{
		{"above limit", 5, 3, 3, true},
		{"at limit", 3, 3, 3, false},
		{"below limit", 2, 3, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.limit, "")

			var entries []zipEntry
			for i := 0; i < tt.entries; i++ {
				entries = append(entries, zipEntry{fmt.Sprintf("track%d.gpx", i), gpxDoc("", shapes[i], 5)})
			}
			res, err := h.imports.Import(context.Background(), h.user.ID, ActivityInput{SportID: 1}, Upload{Filename: "batch.zip", Content: zipArchive(t, entries...)})
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if len(res.Activities) != tt.wantCreated || res.LimitReached != tt.limitReached {
				t.Errorf("created = %d, limit reached = %v; want %d, %v",
					len(res.Activities), res.LimitReached, tt.wantCreated, tt.limitReached)
			}
			if res.Attempted > tt.limit {
				t.Errorf("attempted = %d exceeds limit %d", res.Attempted, tt.limit)
			}
		})
	}
}

func TestImportSurvivesWeatherFailure(t *testing.T) {
	h := newHarness(t, 10, "")
	h.weather.fail = true

	res, err := h.imports.Import(context.Background(), h.user.ID, ActivityInput{SportID: 5}, gpxUpload("run.gpx", gpxDoc("", shapes[3], 5)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	a := res.Activities[0]
	if a.WeatherStart != nil || a.WeatherEnd != nil {
		t.Errorf("weather = %v/%v, want none", a.WeatherStart, a.WeatherEnd)
	}
}
