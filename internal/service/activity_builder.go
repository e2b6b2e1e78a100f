package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jengzang/activity-backend-go/internal/analysis"
	"github.com/jengzang/activity-backend-go/internal/models"
)

// ActivityDateLayout is the wall-clock format of manually entered activity dates
const ActivityDateLayout = "2006-01-02 15:04"

// titleTimeLayout formats the start time in generated titles
const titleTimeLayout = "2006-01-02 15:04:05"

// ActivityInput is the user metadata attached to uploaded GPX files
type ActivityInput struct {
	SportID int64  `json:"sport_id" binding:"required,gt=0"`
	Title   string `json:"title" binding:"max=255"`
	Notes   string `json:"notes" binding:"max=500"`
}

// ManualInput describes an activity entered without a GPX file.
// Duration is in seconds and distance in kilometers.
type ManualInput struct {
	SportID      int64   `json:"sport_id" binding:"required,gt=0"`
	ActivityDate string  `json:"activity_date" binding:"required"`
	Duration     int64   `json:"duration" binding:"gte=0"`
	Distance     float64 `json:"distance" binding:"gte=0"`
	Title        string  `json:"title" binding:"max=255"`
	Notes        string  `json:"notes" binding:"max=500"`
}

// GPXSource is everything derived from one GPX file that ends up on the activity
type GPXSource struct {
	TrackName    string
	Aggregation  analysis.Aggregation
	GPXPath      string
	MapPath      string
	MapID        string
	WeatherStart *models.WeatherSnapshot
	WeatherEnd   *models.WeatherSnapshot
}

// BuildFromGPX merges the aggregated statistics of a GPX file with user metadata
func BuildFromGPX(user *models.User, sport *models.Sport, input ActivityInput, src GPXSource) (*models.Activity, error) {
	stats := src.Aggregation.Activity
	local, start, err := Localize(user.Timezone, stats.StartTime, true)
	if err != nil {
		return nil, err
	}

	a := &models.Activity{
		UserID:            user.ID,
		SportID:           sport.ID,
		Title:             pickTitle(input.Title, src.TrackName, sport.Label, start, local),
		Notes:             input.Notes,
		ActivityDate:      start,
		ActivityDateLocal: local,
		Bounds:            stats.Bounds,
		GPXPath:           src.GPXPath,
		MapPath:           src.MapPath,
		MapID:             src.MapID,
		WeatherStart:      src.WeatherStart,
		WeatherEnd:        src.WeatherEnd,
	}
	applyStats(a, stats.SegmentStats)

	a.Segments = make([]models.ActivitySegment, 0, len(src.Aggregation.Segments))
	for _, s := range src.Aggregation.Segments {
		a.Segments = append(a.Segments, segmentModel(s))
	}
	return a, nil
}

// BuildManual creates an activity from manually entered distance and duration
func BuildManual(user *models.User, sport *models.Sport, input ManualInput) (*models.Activity, error) {
	wall, err := time.Parse(ActivityDateLayout, strings.TrimSpace(input.ActivityDate))
	if err != nil {
		return nil, newActivityError(ErrInvalidInput, "invalid activity date, expected YYYY-MM-DD HH:MM", err)
	}
	if input.Duration < 0 || input.Distance < 0 {
		return nil, newActivityError(ErrInvalidInput, "duration and distance must not be negative", nil)
	}

	local, start, err := Localize(user.Timezone, wall, false)
	if err != nil {
		return nil, err
	}

	a := &models.Activity{
		UserID:            user.ID,
		SportID:           sport.ID,
		Title:             pickTitle(input.Title, "", sport.Label, start, local),
		Notes:             input.Notes,
		ActivityDate:      start,
		ActivityDateLocal: local,
		Segments:          []models.ActivitySegment{},
	}
	applyManual(a, input.Duration, input.Distance)
	return a, nil
}

// applyManual sets the figures of a manual activity: no pauses, and a single speed
// serving as both average and maximum
func applyManual(a *models.Activity, durationSeconds int64, distance float64) {
	a.DurationSeconds = durationSeconds
	a.MovingSeconds = durationSeconds
	a.PausesSeconds = 0
	a.Distance = round(distance, 3)
	a.AveSpeed = manualSpeed(distance, durationSeconds)
	a.MaxSpeed = a.AveSpeed
}

// manualSpeed returns km/h, or 0 for a zero duration
func manualSpeed(distance float64, durationSeconds int64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return round(distance/(float64(durationSeconds)/3600), 2)
}

// applyStats copies the numeric fields of computed statistics onto the activity
func applyStats(a *models.Activity, s analysis.SegmentStats) {
	a.DurationSeconds = wholeSeconds(s.Duration)
	a.MovingSeconds = wholeSeconds(s.MovingTime)
	a.PausesSeconds = wholeSeconds(s.StoppedTime)
	a.Distance = round(s.Distance, 3)
	a.MinAlt = roundPtr(s.MinElevation, 2)
	a.MaxAlt = roundPtr(s.MaxElevation, 2)
	a.Ascent = roundPtr(s.Ascent, 2)
	a.Descent = roundPtr(s.Descent, 2)
	a.MaxSpeed = round(s.MaxSpeed, 2)
	a.AveSpeed = round(s.AverageSpeed, 2)
}

func segmentModel(s analysis.SegmentStats) models.ActivitySegment {
	seg := models.ActivitySegment{SegmentID: s.Index}
	applySegmentStats(&seg, s)
	return seg
}

func applySegmentStats(seg *models.ActivitySegment, s analysis.SegmentStats) {
	seg.DurationSeconds = wholeSeconds(s.Duration)
	seg.MovingSeconds = wholeSeconds(s.MovingTime)
	seg.PausesSeconds = wholeSeconds(s.StoppedTime)
	seg.Distance = round(s.Distance, 3)
	seg.MinAlt = roundPtr(s.MinElevation, 2)
	seg.MaxAlt = roundPtr(s.MaxElevation, 2)
	seg.Ascent = roundPtr(s.Ascent, 2)
	seg.Descent = roundPtr(s.Descent, 2)
	seg.MaxSpeed = round(s.MaxSpeed, 2)
	seg.AveSpeed = round(s.AverageSpeed, 2)
}

// pickTitle prefers the user's title, then the track name, then "{sport} - {start}"
// with the start shown on the user's wall clock when known
func pickTitle(title, trackName, sportLabel string, start time.Time, local *time.Time) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if n := strings.TrimSpace(trackName); n != "" {
		return n
	}
	shown := start
	if local != nil {
		shown = *local
	}
	return fmt.Sprintf("%s - %s", sportLabel, shown.Format(titleTimeLayout))
}

func wholeSeconds(d time.Duration) int64 {
	return int64(d.Round(time.Second) / time.Second)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}
