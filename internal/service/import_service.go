package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jengzang/activity-backend-go/internal/analysis"
	"github.com/jengzang/activity-backend-go/internal/logging"
	"github.com/jengzang/activity-backend-go/internal/metrics"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/repository"
	"github.com/jengzang/activity-backend-go/internal/storage"
	"github.com/jengzang/activity-backend-go/internal/track"
)

const archiveExt = "zip"

// ImportConfig holds the batch settings of the import pipeline
type ImportConfig struct {
	// Limit is the maximum number of eligible archive entries processed per import.
	Limit int
	// AllowedExtensions lists importable extensions without the dot.
	AllowedExtensions []string
}

// WeatherFetcher looks up the weather at a track point
type WeatherFetcher interface {
	Fetch(ctx context.Context, p track.Point) (*models.WeatherSnapshot, error)
}

// ThumbnailRenderer draws a route as image bytes
type ThumbnailRenderer interface {
	Render(route []track.LonLat) ([]byte, error)
}

// Upload is an uploaded file
type Upload struct {
	Filename string
	Content  io.Reader
}

// FileFailure reports one archive entry that could not be imported
type FileFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// ImportResult is the outcome of one import call
type ImportResult struct {
	Activities   []models.Activity `json:"activities"`
	Failures     []FileFailure     `json:"failures"`
	LimitReached bool              `json:"limit_reached"`
	Attempted    int               `json:"attempted"`
}

// ImportService turns uploaded GPX files and archives into activities
type ImportService struct {
	cfg        ImportConfig
	activities *repository.ActivityRepository
	sports     *repository.SportRepository
	users      *repository.UserRepository
	files      *storage.Storage
	weather    WeatherFetcher
	thumbnails ThumbnailRenderer
	log        zerolog.Logger
}

// NewImportService creates a new import service
func NewImportService(
	cfg ImportConfig,
	activities *repository.ActivityRepository,
	sports *repository.SportRepository,
	users *repository.UserRepository,
	files *storage.Storage,
	weather WeatherFetcher,
	thumbnails ThumbnailRenderer,
) *ImportService {
	return &ImportService{
		cfg:        cfg,
		activities: activities,
		sports:     sports,
		users:      users,
		files:      files,
		weather:    weather,
		thumbnails: thumbnails,
		log:        logging.With().Str("component", "import").Logger(),
	}
}

// importJob is the per-request state shared by every file of one import
type importJob struct {
	user  *models.User
	sport *models.Sport
	input ActivityInput
}

// Import stores the upload in a per-request working directory and imports it.
//
// A single GPX file either yields one activity or fails the whole call. An archive is
// extracted first, then its eligible entries are processed in name order up to the
// configured limit; a failing entry is recorded and the loop continues.
func (s *ImportService) Import(ctx context.Context, userID int64, input ActivityInput, up Upload) (*ImportResult, error) {
	started := time.Now()

	// Validate the upload before touching the disk
	name := storage.SecureFilename(up.Filename)
	ext := storage.Ext(name)
	if name == "" || !s.allowed(ext) {
		return nil, newActivityError(ErrUnsupportedFile, "file extension not allowed", nil)
	}

	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	sport, err := loadSport(ctx, s.sports, input.SportID)
	if err != nil {
		return nil, err
	}
	job := importJob{user: user, sport: sport, input: input}

	// Save the upload into a working directory removed on return
	workDir, err := s.files.TempDir()
	if err != nil {
		return nil, newActivityError(ErrStorage, "error during file upload", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.log.Warn().Err(err).Str("dir", workDir).Msg("Failed to remove import working directory")
		}
	}()

	saved, err := s.files.SaveUpload(workDir, name, up.Content)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error during file upload", err)
	}

	// Single file
	if ext != archiveExt {
		a, err := s.importFile(ctx, job, saved)
		if err != nil {
			metrics.ImportFiles.WithLabelValues("failure").Inc()
			metrics.ObserveImport("single", "error", started)
			return nil, err
		}
		metrics.ImportFiles.WithLabelValues("success").Inc()
		metrics.ObserveImport("single", "success", started)
		return &ImportResult{Activities: []models.Activity{*a}, Failures: []FileFailure{}, Attempted: 1}, nil
	}

	// Archive
	result, err := s.importArchive(ctx, job, saved, filepath.Join(workDir, "extract"))
	if err != nil {
		metrics.ObserveImport("archive", "error", started)
		return nil, err
	}
	outcome := "success"
	if len(result.Failures) > 0 {
		outcome = "partial"
	}
	metrics.ObserveImport("archive", outcome, started)
	return result, nil
}

func (s *ImportService) importArchive(ctx context.Context, job importJob, archive, dir string) (*ImportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newActivityError(ErrStorage, "error during archive extraction", err)
	}
	if err := storage.ExtractZip(archive, dir); err != nil {
		return nil, newActivityError(ErrMalformedInput, "error during archive extraction", err)
	}

	// os.ReadDir sorts by name, giving a deterministic processing order
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error during archive extraction", err)
	}

	result := &ImportResult{Activities: []models.Activity{}, Failures: []FileFailure{}}
	for _, entry := range entries {
		ext := storage.Ext(entry.Name())
		if entry.IsDir() || ext == archiveExt || !s.allowed(ext) {
			metrics.ImportFiles.WithLabelValues("skipped").Inc()
			continue
		}
		if result.Attempted >= s.limit() {
			result.LimitReached = true
			break
		}
		result.Attempted++

		a, err := s.importFile(ctx, job, filepath.Join(dir, entry.Name()))
		if err != nil {
			metrics.ImportFiles.WithLabelValues("failure").Inc()
			s.log.Warn().Err(err).Str("file", entry.Name()).Int64("user_id", job.user.ID).Msg("Archive entry not imported")
			result.Failures = append(result.Failures, FileFailure{Filename: entry.Name(), Reason: Reason(err)})
			continue
		}
		metrics.ImportFiles.WithLabelValues("success").Inc()
		result.Activities = append(result.Activities, *a)
	}

	s.log.Info().Int64("user_id", job.user.ID).Int("created", len(result.Activities)).
		Int("failed", len(result.Failures)).Bool("limit_reached", result.LimitReached).Msg("Archive imported")
	return result, nil
}

// importFile runs one GPX file through parsing, aggregation, rendering and persistence.
// Artifacts already moved into permanent storage are removed again when a later step fails.
func (s *ImportService) importFile(ctx context.Context, job importJob, path string) (*models.Activity, error) {
	// Read and parse the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error reading gpx file", err)
	}

	t, ok, err := track.Parse(data)
	if err != nil {
		return nil, newActivityError(ErrMalformedInput, "error during gpx file parsing", err)
	}
	if !ok || len(t.Points()) == 0 {
		return nil, newActivityError(ErrNoTrackData, "no tracks in gpx file", nil)
	}

	// Compute statistics
	agg := analysis.Aggregate(t)
	start := agg.Activity.StartTime
	if start.IsZero() {
		return nil, newActivityError(ErrMalformedInput, "gpx file has no time data", nil)
	}

	// Render the thumbnail and move both artifacts to their permanent place
	png, err := s.thumbnails.Render(agg.Activity.Route)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error during map generation", err)
	}

	gpxRel := s.files.ActivityPath(job.user.ID, job.sport.ID, start, "gpx")
	mapRel := s.files.ActivityPath(job.user.ID, job.sport.ID, start, "png")
	if err := s.files.Write(mapRel, png); err != nil {
		return nil, newActivityError(ErrStorage, "error during map generation", err)
	}
	if err := s.files.Relocate(path, gpxRel); err != nil {
		s.discard(mapRel)
		return nil, newActivityError(ErrStorage, "error storing gpx file", err)
	}

	// Build the activity
	src := GPXSource{
		TrackName:    t.Name,
		Aggregation:  agg,
		GPXPath:      gpxRel,
		MapPath:      mapRel,
		MapID:        storage.ContentHash(png),
		WeatherStart: s.fetchWeather(ctx, agg.WeatherStart),
		WeatherEnd:   s.fetchWeather(ctx, agg.WeatherEnd),
	}
	a, err := BuildFromGPX(job.user, job.sport, job.input, src)
	if err != nil {
		s.discard(gpxRel, mapRel)
		return nil, err
	}

	// Save the activity and its segments as one unit
	err = s.activities.WithinTx(ctx, func(tx *repository.ActivityTx) error {
		if err := tx.Create(a); err != nil {
			return err
		}
		for i := range a.Segments {
			a.Segments[i].ActivityID = a.ID
			if err := tx.CreateSegment(&a.Segments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discard(gpxRel, mapRel)
		return nil, persistError(err)
	}

	metrics.ActivitiesCreated.WithLabelValues("gpx").Inc()
	return a, nil
}

// fetchWeather never fails the import; lookup errors leave the snapshot empty
func (s *ImportService) fetchWeather(ctx context.Context, p *track.Point) *models.WeatherSnapshot {
	if s.weather == nil || p == nil {
		return nil
	}
	snap, err := s.weather.Fetch(ctx, *p)
	if err != nil {
		s.log.Warn().Err(err).Msg("Weather lookup failed")
		return nil
	}
	return snap
}

func (s *ImportService) discard(rels ...string) {
	if err := s.files.Remove(rels...); err != nil {
		s.log.Warn().Err(err).Strs("files", rels).Msg("Failed to remove activity files")
	}
}

func (s *ImportService) allowed(ext string) bool {
	for _, e := range s.cfg.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func (s *ImportService) limit() int {
	if s.cfg.Limit <= 0 {
		return 10
	}
	return s.cfg.Limit
}

// String describes the configuration, for startup logs
func (c ImportConfig) String() string {
	return fmt.Sprintf("limit=%d extensions=%v", c.Limit, c.AllowedExtensions)
}
