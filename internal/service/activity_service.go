package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
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

// ActivityService handles business logic for stored activities
type ActivityService struct {
	activities *repository.ActivityRepository
	sports     *repository.SportRepository
	users      *repository.UserRepository
	files      *storage.Storage
	log        zerolog.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(
	activities *repository.ActivityRepository,
	sports *repository.SportRepository,
	users *repository.UserRepository,
	files *storage.Storage,
) *ActivityService {
	return &ActivityService{
		activities: activities,
		sports:     sports,
		users:      users,
		files:      files,
		log:        logging.With().Str("component", "activities").Logger(),
	}
}

// ListSports returns every sport
func (s *ActivityService) ListSports(ctx context.Context) ([]models.Sport, error) {
	sports, err := s.sports.List(ctx)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error fetching sports", err)
	}
	return sports, nil
}

// CreateManual stores an activity entered without a GPX file
func (s *ActivityService) CreateManual(ctx context.Context, userID int64, input ManualInput) (*models.Activity, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	sport, err := loadSport(ctx, s.sports, input.SportID)
	if err != nil {
		return nil, err
	}

	a, err := BuildManual(user, sport, input)
	if err != nil {
		return nil, err
	}

	err = s.activities.WithinTx(ctx, func(tx *repository.ActivityTx) error {
		return tx.Create(a)
	})
	if err != nil {
		return nil, persistError(err)
	}

	metrics.ActivitiesCreated.WithLabelValues("manual").Inc()
	s.log.Info().Int64("activity_id", a.ID).Int64("user_id", userID).Msg("Created manual activity")
	return a, nil
}

// Get returns one of the user's activities
func (s *ActivityService) Get(ctx context.Context, userID, id int64) (*models.Activity, error) {
	a, err := s.activities.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && a.UserID != userID) {
		return nil, newActivityError(ErrActivityNotFound, "activity not found", nil)
	}
	if err != nil {
		return nil, newActivityError(ErrStorage, "error fetching activity", err)
	}
	return a, nil
}

// List returns one page of the user's activities, newest first
func (s *ActivityService) List(ctx context.Context, userID int64, page, pageSize int) (*models.ActivityList, error) {
	activities, total, err := s.activities.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, newActivityError(ErrStorage, "error fetching activities", err)
	}
	return &models.ActivityList{
		Activities: activities,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Edit applies a patch to an activity.
//
// Sport, title and notes change only when present and non-zero. GPX-backed activities
// ignore date, duration and distance; their figures change only through Refresh, which
// recomputes the statistics of the stored file and of each stored segment. Manual
// activities accept date, duration and distance and get their speeds recomputed; a zero
// duration or distance leaves the stored value in place.
func (s *ActivityService) Edit(ctx context.Context, userID, id int64, patch models.ActivityPatch) (*models.Activity, error) {
	// Load the activity, scoped to its owner
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// Apply the descriptive fields
	if patch.SportID != nil && *patch.SportID != 0 {
		sport, err := loadSport(ctx, s.sports, *patch.SportID)
		if err != nil {
			return nil, err
		}
		a.SportID = sport.ID
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		a.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Notes != nil && *patch.Notes != "" {
		a.Notes = *patch.Notes
	}

	// Recompute figures: from the stored file, or from the manual entry
	var refreshed []analysis.SegmentStats
	if a.WithGPX() {
		if patch.Refresh {
			refreshed, err = s.refresh(a)
			if err != nil {
				return nil, err
			}
		}
	} else if err := s.editManual(ctx, userID, a, patch); err != nil {
		return nil, err
	}

	// Persist the activity and its segments together
	err = s.activities.WithinTx(ctx, func(tx *repository.ActivityTx) error {
		if err := tx.Update(a); err != nil {
			return err
		}
		// segment count is assumed unchanged across a refresh
		for i := 0; i < len(refreshed) && i < len(a.Segments); i++ {
			applySegmentStats(&a.Segments[i], refreshed[i])
			if err := tx.UpdateSegment(&a.Segments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, persistError(err)
	}
	return a, nil
}

// refresh recomputes the statistics of a GPX-backed activity from its stored file
func (s *ActivityService) refresh(a *models.Activity) ([]analysis.SegmentStats, error) {
	t, err := s.loadTrack(a)
	if err != nil {
		return nil, err
	}
	agg := analysis.Aggregate(t)
	applyStats(a, agg.Activity.SegmentStats)
	return agg.Segments, nil
}

func (s *ActivityService) editManual(ctx context.Context, userID int64, a *models.Activity, patch models.ActivityPatch) error {
	if patch.ActivityDate != nil && strings.TrimSpace(*patch.ActivityDate) != "" {
		user, err := loadUser(ctx, s.users, userID)
		if err != nil {
			return err
		}
		wall, err := time.Parse(ActivityDateLayout, strings.TrimSpace(*patch.ActivityDate))
		if err != nil {
			return newActivityError(ErrInvalidInput, "invalid activity date, expected YYYY-MM-DD HH:MM", err)
		}
		local, start, err := Localize(user.Timezone, wall, false)
		if err != nil {
			return err
		}
		a.ActivityDate, a.ActivityDateLocal = start, local
	}

	duration, distance := a.DurationSeconds, a.Distance
	if patch.Duration != nil && *patch.Duration != 0 {
		duration = *patch.Duration
	}
	if patch.Distance != nil && *patch.Distance != 0 {
		distance = *patch.Distance
	}
	if duration < 0 || distance < 0 {
		return newActivityError(ErrInvalidInput, "duration and distance must not be negative", nil)
	}
	applyManual(a, duration, distance)
	return nil
}

// ChartData returns the chart series of a GPX-backed activity; manual activities have none
func (s *ActivityService) ChartData(ctx context.Context, userID, id int64) ([]models.ChartPoint, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !a.WithGPX() {
		return []models.ChartPoint{}, nil
	}
	t, err := s.loadTrack(a)
	if err != nil {
		return nil, err
	}
	series := analysis.Series(t)
	if series == nil {
		series = []models.ChartPoint{}
	}
	return series, nil
}

func (s *ActivityService) loadTrack(a *models.Activity) (track.Track, error) {
	data, err := os.ReadFile(s.files.Abs(a.GPXPath))
	if err != nil {
		return track.Track{}, newActivityError(ErrStorage, "error reading gpx file", err)
	}
	t, ok, err := track.Parse(data)
	if err != nil {
		return track.Track{}, newActivityError(ErrMalformedInput, "error during gpx file parsing", err)
	}
	if !ok {
		return track.Track{}, newActivityError(ErrNoTrackData, "no tracks in gpx file", nil)
	}
	return t, nil
}

// Delete removes an activity and its stored files
func (s *ActivityService) Delete(ctx context.Context, userID, id int64) error {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.activities.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newActivityError(ErrActivityNotFound, "activity not found", nil)
		}
		return newActivityError(ErrStorage, "error deleting activity", err)
	}
	if err := s.files.Remove(a.GPXPath, a.MapPath); err != nil {
		s.log.Warn().Err(err).Int64("activity_id", a.ID).Msg("Failed to remove activity files")
	}
	return nil
}

// MapPath resolves a thumbnail content hash to the absolute image path
func (s *ActivityService) MapPath(ctx context.Context, mapID string) (string, error) {
	a, err := s.activities.GetByMapID(ctx, mapID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && a.MapPath == "") {
		return "", newActivityError(ErrActivityNotFound, "map does not exist", nil)
	}
	if err != nil {
		return "", newActivityError(ErrStorage, "error fetching map", err)
	}
	return s.files.Abs(a.MapPath), nil
}

// GPXPath returns the absolute path of the activity's stored GPX file
func (s *ActivityService) GPXPath(ctx context.Context, userID, id int64) (string, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if !a.WithGPX() {
		return "", newActivityError(ErrActivityNotFound, "no gpx file for this activity", nil)
	}
	return s.files.Abs(a.GPXPath), nil
}

func loadUser(ctx context.Context, users *repository.UserRepository, id int64) (*models.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newActivityError(ErrInvalidInput, "user does not exist", nil)
	}
	if err != nil {
		return nil, newActivityError(ErrStorage, "error fetching user", err)
	}
	return u, nil
}

func loadSport(ctx context.Context, sports *repository.SportRepository, id int64) (*models.Sport, error) {
	sport, err := sports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newActivityError(ErrUnknownSport, fmt.Sprintf("sport id %d does not exist", id), nil)
	}
	if err != nil {
		return nil, newActivityError(ErrStorage, "error fetching sport", err)
	}
	return sport, nil
}

// persistError classifies a failed persistence unit
func persistError(err error) error {
	if errors.Is(err, repository.ErrConstraint) {
		return newActivityError(ErrIntegrity, "error storing activity", err)
	}
	return newActivityError(ErrStorage, "error storing activity", err)
}
