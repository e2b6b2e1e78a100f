package models

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// WeatherSnapshot is the weather observed at one point of an activity
type WeatherSnapshot struct {
	Time        int64   `json:"time"`
	Summary     string  `json:"summary"`
	Icon        string  `json:"icon"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind"`
	WindBearing float64 `json:"windBearing"`
}

// Value stores the snapshot as a JSON text column
func (w *WeatherSnapshot) Value() (driver.Value, error) {
	if w == nil {
		return nil, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the snapshot from a JSON text column
func (w *WeatherSnapshot) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(v), w)
	case []byte:
		return json.Unmarshal(v, w)
	default:
		return errors.New("unsupported weather column type")
	}
}
