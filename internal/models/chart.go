package models

import "time"

// ChartPoint is one sample of the distance/elevation/speed series of an activity
type ChartPoint struct {
	Duration  int64     `json:"duration"`
	Distance  float64   `json:"distance"`
	Elevation float64   `json:"elevation"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Time      time.Time `json:"time"`
}
