// Package weather looks up historical conditions from a Dark Sky compatible API.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jengzang/activity-backend-go/internal/logging"
	"github.com/jengzang/activity-backend-go/internal/metrics"
	"github.com/jengzang/activity-backend-go/internal/models"
	"github.com/jengzang/activity-backend-go/internal/track"
)

// Config holds weather client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls. Zero means 1.
	RequestsPerSecond float64
}

// Client fetches weather snapshots. A client without an API key is disabled and
// returns no snapshot.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*models.WeatherSnapshot]
}

// NewClient creates a weather client with rate limiting and a circuit breaker
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cb := gobreaker.NewCircuitBreaker[*models.WeatherSnapshot](gobreaker.Settings{
		Name:        "weather-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Weather circuit breaker state transition")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cb:      cb,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

type forecast struct {
	Currently *models.WeatherSnapshot `json:"currently"`
}

// Fetch returns the conditions at the point's position and time.
// It returns nil without error when the client is disabled or the point has no time.
func (c *Client) Fetch(ctx context.Context, p track.Point) (*models.WeatherSnapshot, error) {
	if !c.Enabled() || !p.HasTime() {
		return nil, nil
	}

	// a cancelled wait says nothing about the upstream API, so it stays outside the breaker
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.WeatherRequests.WithLabelValues("failure").Inc()
		return nil, err
	}

	snap, err := c.cb.Execute(func() (*models.WeatherSnapshot, error) {
		return c.get(ctx, p)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.WeatherRequests.WithLabelValues("rejected").Inc()
		} else {
			metrics.WeatherRequests.WithLabelValues("failure").Inc()
		}
		return nil, err
	}
	metrics.WeatherRequests.WithLabelValues("success").Inc()
	return snap, nil
}

func (c *Client) get(ctx context.Context, p track.Point) (*models.WeatherSnapshot, error) {
	endpoint := fmt.Sprintf("%s/%s/%f,%f,%d?%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.APIKey), p.Latitude, p.Longitude, p.Time.Unix(),
		url.Values{"units": {"si"}, "exclude": {"minutely,hourly,daily,alerts"}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}

	var f forecast
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if f.Currently == nil {
		return nil, errors.New("weather response has no current conditions")
	}
	return f.Currently, nil
}
