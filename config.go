package globe

import (
	"log/slog"
	"net/http"
	"time"
)

// Config contains configuration options shared by the catalog loader and the
// scene composer.
type Config struct {
	Logger        *slog.Logger // Structured logger (default: slog.Default())
	Metrics       *Metrics     // Optional Prometheus collector; nil records nothing
	Calibration   Calibration  // Longitude offset shared by points and overlay
	HTTPClient    *http.Client // Client used for http(s) catalog sources
	CentersRadius float64      // Normalized distance for the axis-center highlight
}

// Option is a functional option for configuring the loader and composer.
type Option func(*Config)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithCalibration overrides the longitude offset.
func WithCalibration(cal Calibration) Option {
	return func(c *Config) {
		c.Calibration = cal
	}
}

// WithHTTPClient sets the client used to fetch remote catalogs.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithCentersRadius sets the angular radius of the axis-center highlight.
func WithCentersRadius(r float64) Option {
	return func(c *Config) {
		c.CentersRadius = r
	}
}

// httpClient is the default client for remote catalogs.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

func defaultConfig() *Config {
	return &Config{
		Logger:        slog.Default(),
		Calibration:   DefaultCalibration(),
		HTTPClient:    httpClient,
		CentersRadius: DefaultCentersRadius,
	}
}

func newConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
