package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/jengzang/activity-backend-go/internal/database"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/repository"
	"github.com/jengzang/activity-backend-go/internal/storage"
	"github.com/jengzang/activity-backend-go/internal/thumbnail"
	"github.com/jengzang/activity-backend-go/internal/track"
)

type harness struct {
	user       *models.User
	users      *repository.UserRepository
	files      *storage.Storage
	activities *repository.ActivityRepository
	weather    *fakeWeather
	imports    *ImportService
	service    *ActivityService
}

func newHarness(t *testing.T, limit int, timezone string) *harness {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	user := &models.User{Username: "runner", Timezone: timezone}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	h := &harness{
		user:       user,
		users:      users,
		files:      storage.New(t.TempDir()),
		activities: repository.NewActivityRepository(db),
		weather:    &fakeWeather{},
	}
	sports := repository.NewSportRepository(db)
	cfg := ImportConfig{Limit: limit, AllowedExtensions: []string{"gpx", "zip"}}
	h.imports = NewImportService(cfg, h.activities, sports, users, h.files, h.weather, thumbnail.NewRenderer())
	h.service = NewActivityService(h.activities, sports, users, h.files)
	return h
}

type fakeWeather struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeWeather) Fetch(_ context.Context, p track.Point) (*models.WeatherSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("weather service unavailable")
	}
	return &models.WeatherSnapshot{Time: p.Time.Unix(), Summary: "Clear", Temperature: 15}, nil
}

var gpxStart = time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)

// shapes gives each fixture a distinct direction so that thumbnails differ
var shapes = [][2]float64{{1, 0}, {0, 1}, {1, 1}, {1, -1}, {1, 2}}

// gpxDoc builds a single-segment track of n points, 10 seconds apart, heading along shape
func gpxDoc(name string, shape [2]float64, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk>`)
	if name != "" {
		fmt.Fprintf(&b, "<name>%s</name>", name)
	}
	b.WriteString("<trkseg>")
	for i := 0; i < n; i++ {
		lat := 48.85 + float64(i)*0.0003*shape[0]
		lon := 2.35 + float64(i)*0.0003*shape[1]
		ts := gpxStart.Add(time.Duration(i) * 10 * time.Second).Format(time.RFC3339)
		fmt.Fprintf(&b, `<trkpt lat="%.6f" lon="%.6f"><ele>%d</ele><time>%s</time></trkpt>`, lat, lon, 100+i, ts)
	}
	b.WriteString("</trkseg></trk></gpx>")
	return b.String()
}

const malformedGPX = `<?xml version="1.0"?><gpx version="1.1"><trk><trkseg><trkpt lat="1"`

const noTimeGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk><trkseg>
<trkpt lat="48.85" lon="2.35"></trkpt>
<trkpt lat="48.86" lon="2.36"></trkpt>
</trkseg></trk></gpx>`

const waypointOnlyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<wpt lat="48.85" lon="2.35"><name>Start</name></wpt>
</gpx>`

type zipEntry struct {
	name, body string
}

func zipArchive(t *testing.T, entries ...zipEntry) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func gpxUpload(name, body string) Upload {
	return Upload{Filename: name, Content: strings.NewReader(body)}
}
