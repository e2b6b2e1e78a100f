package models

import (
	"time"

	"github.com/jengzang/activity-backend-go/internal/spatial"
)

// Activity represents a stored workout, either derived from a GPX file or entered by hand
type Activity struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	SportID           int64             `json:"sport_id"`
	Title             string            `json:"title"`
	Notes             string            `json:"notes"`
	ActivityDate      time.Time         `json:"activity_date"`
	ActivityDateLocal *time.Time        `json:"activity_date_local,omitempty"`
	DurationSeconds   int64             `json:"duration"`
	MovingSeconds     int64             `json:"moving"`
	PausesSeconds     int64             `json:"pauses"`
	Distance          float64           `json:"distance"`
	MinAlt            *float64          `json:"min_alt"`
	MaxAlt            *float64          `json:"max_alt"`
	Ascent            *float64          `json:"ascent"`
	Descent           *float64          `json:"descent"`
	MaxSpeed          float64           `json:"max_speed"`
	AveSpeed          float64           `json:"ave_speed"`
	Bounds            *spatial.Bounds   `json:"bounds,omitempty"`
	GPXPath           string            `json:"-"`
	MapPath           string            `json:"-"`
	MapID             string            `json:"map,omitempty"`
	WeatherStart      *WeatherSnapshot  `json:"weather_start"`
	WeatherEnd        *WeatherSnapshot  `json:"weather_end"`
	Segments          []ActivitySegment `json:"segments"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// WithGPX reports whether the activity is backed by a stored GPX file
func (a *Activity) WithGPX() bool {
	return a.GPXPath != ""
}

// ActivitySegment holds the statistics of one segment of a GPX-backed activity
type ActivitySegment struct {
	ID              int64    `json:"-"`
	ActivityID      int64    `json:"activity_id"`
	SegmentID       int      `json:"segment_id"`
	DurationSeconds int64    `json:"duration"`
	MovingSeconds   int64    `json:"moving"`
	PausesSeconds   int64    `json:"pauses"`
	Distance        float64  `json:"distance"`
	MinAlt          *float64 `json:"min_alt"`
	MaxAlt          *float64 `json:"max_alt"`
	Ascent          *float64 `json:"ascent"`
	Descent         *float64 `json:"descent"`
	MaxSpeed        float64  `json:"max_speed"`
	AveSpeed        float64  `json:"ave_speed"`
}

// ActivityPatch carries the editable fields of an activity.
// Nil, empty or zero fields are left unchanged.
type ActivityPatch struct {
	SportID      *int64   `json:"sport_id"`
	Title        *string  `json:"title"`
	Notes        *string  `json:"notes"`
	ActivityDate *string  `json:"activity_date"`
	Duration     *int64   `json:"duration"`
	Distance     *float64 `json:"distance"`
	Refresh      bool     `json:"refresh"`
}

// ActivityList is one page of activities
type ActivityList struct {
	Activities []Activity `json:"activities"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}
