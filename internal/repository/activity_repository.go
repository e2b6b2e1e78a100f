package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/activity-backend-go/internal/database"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/spatial"
)

const activityColumns = `id, user_id, sport_id, title, notes, activity_date, activity_date_local,
	duration_seconds, moving_seconds, pauses_seconds, distance,
	min_alt, max_alt, ascent, descent, max_speed, ave_speed,
	bounds_min_lat, bounds_min_lon, bounds_max_lat, bounds_max_lon,
	gpx_path, map_path, map_id, weather_start, weather_end, created_at, updated_at`

const segmentColumns = `id, activity_id, segment_id, duration_seconds, moving_seconds, pauses_seconds,
	distance, min_alt, max_alt, ascent, descent, max_speed, ave_speed`

// ActivityRepository handles database operations for activities and their segments
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		a      models.Activity
		local  sql.NullTime
		minLat sql.NullFloat64
		minLon sql.NullFloat64
		maxLat sql.NullFloat64
		maxLon sql.NullFloat64
		mapID  sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.UserID, &a.SportID, &a.Title, &a.Notes, &a.ActivityDate, &local,
		&a.DurationSeconds, &a.MovingSeconds, &a.PausesSeconds, &a.Distance,
		&a.MinAlt, &a.MaxAlt, &a.Ascent, &a.Descent, &a.MaxSpeed, &a.AveSpeed,
		&minLat, &minLon, &maxLat, &maxLon,
		&a.GPXPath, &a.MapPath, &mapID, &a.WeatherStart, &a.WeatherEnd, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ActivityDate = a.ActivityDate.UTC()
	if local.Valid {
		t := local.Time.UTC()
		a.ActivityDateLocal = &t
	}
	if minLat.Valid && minLon.Valid && maxLat.Valid && maxLon.Valid {
		a.Bounds = &spatial.Bounds{
			MinLat: minLat.Float64, MinLon: minLon.Float64,
			MaxLat: maxLat.Float64, MaxLon: maxLon.Float64,
		}
	}
	a.MapID = mapID.String
	return &a, nil
}

// GetByID retrieves an activity with its segments ordered by segment index
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	a.Segments, err = r.segments(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByMapID retrieves an activity by its thumbnail content hash
func (r *ActivityRepository) GetByMapID(ctx context.Context, mapID string) (*models.Activity, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE map_id = ?", mapID)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity by map: %w", err)
	}
	return a, nil
}

// ListByUser retrieves one page of a user's activities, newest first
func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]models.Activity, int64, error) {
	// Get total count
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities WHERE user_id = ?", userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	// Clamp pagination
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	// Get paginated activities, newest first
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE user_id = ? ORDER BY activity_date DESC, id DESC LIMIT ? OFFSET ?",
		userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate activities: %w", err)
	}
	rows.Close()

	// Load segments of each activity
	for i := range activities {
		activities[i].Segments, err = r.segments(ctx, activities[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return activities, total, nil
}

func (r *ActivityRepository) segments(ctx context.Context, activityID int64) ([]models.ActivitySegment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+segmentColumns+" FROM activity_segments WHERE activity_id = ? ORDER BY segment_id", activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	segments := []models.ActivitySegment{}
	for rows.Next() {
		var s models.ActivitySegment
		err := rows.Scan(
			&s.ID, &s.ActivityID, &s.SegmentID, &s.DurationSeconds, &s.MovingSeconds, &s.PausesSeconds,
			&s.Distance, &s.MinAlt, &s.MaxAlt, &s.Ascent, &s.Descent, &s.MaxSpeed, &s.AveSpeed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// Delete removes an activity; its segments are removed by cascade
func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// WithinTx runs fn as one atomic unit. The unit commits when fn returns nil and rolls
// back otherwise, so a parent activity is never stored without its segments.
func (r *ActivityRepository) WithinTx(ctx context.Context, fn func(tx *ActivityTx) error) error {
	return database.Transaction(ctx, r.db, func(sqlTx *sql.Tx) error {
		return fn(&ActivityTx{tx: sqlTx, ctx: ctx})
	})
}

// ActivityTx exposes the writes allowed inside WithinTx
type ActivityTx struct {
	tx  *sql.Tx
	ctx context.Context
}

// Create inserts the activity and assigns its generated ID, so children can reference it
// before the unit commits
func (t *ActivityTx) Create(a *models.Activity) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	args := append([]interface{}{a.UserID}, activityValues(a)...)
	args = append(args, a.CreatedAt)
	res, err := t.tx.ExecContext(t.ctx, `INSERT INTO activities (
		user_id, sport_id, title, notes, activity_date, activity_date_local,
		duration_seconds, moving_seconds, pauses_seconds, distance,
		min_alt, max_alt, ascent, descent, max_speed, ave_speed,
		bounds_min_lat, bounds_min_lon, bounds_max_lat, bounds_max_lon,
		gpx_path, map_path, map_id, weather_start, weather_end, updated_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", wrapConstraint(err))
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity id: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of the activity
func (t *ActivityTx) Update(a *models.Activity) error {
	a.UpdatedAt = time.Now().UTC()

	args := append(activityValues(a), a.ID)
	_, err := t.tx.ExecContext(t.ctx, `UPDATE activities SET
		sport_id = ?, title = ?, notes = ?, activity_date = ?, activity_date_local = ?,
		duration_seconds = ?, moving_seconds = ?, pauses_seconds = ?, distance = ?,
		min_alt = ?, max_alt = ?, ascent = ?, descent = ?, max_speed = ?, ave_speed = ?,
		bounds_min_lat = ?, bounds_min_lon = ?, bounds_max_lat = ?, bounds_max_lon = ?,
		gpx_path = ?, map_path = ?, map_id = ?, weather_start = ?, weather_end = ?, updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", wrapConstraint(err))
	}
	return nil
}

// CreateSegment inserts a segment of an activity created in the same unit
func (t *ActivityTx) CreateSegment(s *models.ActivitySegment) error {
	res, err := t.tx.ExecContext(t.ctx, `INSERT INTO activity_segments (
		activity_id, segment_id, duration_seconds, moving_seconds, pauses_seconds,
		distance, min_alt, max_alt, ascent, descent, max_speed, ave_speed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ActivityID, s.SegmentID, s.DurationSeconds, s.MovingSeconds, s.PausesSeconds,
		s.Distance, s.MinAlt, s.MaxAlt, s.Ascent, s.Descent, s.MaxSpeed, s.AveSpeed)
	if err != nil {
		return fmt.Errorf("failed to create segment: %w", wrapConstraint(err))
	}
	s.ID, err = res.LastInsertId()
	return err
}

// UpdateSegment overwrites the statistics of a stored segment
func (t *ActivityTx) UpdateSegment(s *models.ActivitySegment) error {
	_, err := t.tx.ExecContext(t.ctx, `UPDATE activity_segments SET
		duration_seconds = ?, moving_seconds = ?, pauses_seconds = ?, distance = ?,
		min_alt = ?, max_alt = ?, ascent = ?, descent = ?, max_speed = ?, ave_speed = ?
		WHERE activity_id = ? AND segment_id = ?`,
		s.DurationSeconds, s.MovingSeconds, s.PausesSeconds, s.Distance,
		s.MinAlt, s.MaxAlt, s.Ascent, s.Descent, s.MaxSpeed, s.AveSpeed,
		s.ActivityID, s.SegmentID)
	if err != nil {
		return fmt.Errorf("failed to update segment: %w", wrapConstraint(err))
	}
	return nil
}

// activityValues lists the mutable columns in insert/update order, ending with updated_at
func activityValues(a *models.Activity) []interface{} {
	var minLat, minLon, maxLat, maxLon sql.NullFloat64
	if a.Bounds != nil {
		minLat = sql.NullFloat64{Float64: a.Bounds.MinLat, Valid: true}
		minLon = sql.NullFloat64{Float64: a.Bounds.MinLon, Valid: true}
		maxLat = sql.NullFloat64{Float64: a.Bounds.MaxLat, Valid: true}
		maxLon = sql.NullFloat64{Float64: a.Bounds.MaxLon, Valid: true}
	}
	var local sql.NullTime
	if a.ActivityDateLocal != nil {
		local = sql.NullTime{Time: a.ActivityDateLocal.UTC(), Valid: true}
	}
	return []interface{}{
		a.SportID, a.Title, a.Notes, a.ActivityDate.UTC(), local,
		a.DurationSeconds, a.MovingSeconds, a.PausesSeconds, a.Distance,
		a.MinAlt, a.MaxAlt, a.Ascent, a.Descent, a.MaxSpeed, a.AveSpeed,
		minLat, minLon, maxLat, maxLon,
		a.GPXPath, a.MapPath, sql.NullString{String: a.MapID, Valid: a.MapID != ""},
		a.WeatherStart, a.WeatherEnd, a.UpdatedAt,
	}
}
