package globe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Settings is the environment configuration shared by the globe commands.
type Settings struct {
	Cities           string     `env:"GLOBE_CITIES"`                            // path or http(s) URL; empty loads the bundled sample
	EarthTexture     string     `env:"GLOBE_EARTH_TEXTURE"`                     // JPEG or PNG
	PoliticalTexture string     `env:"GLOBE_POLITICAL_TEXTURE"`                 // JPEG or PNG
	Width            int        `env:"GLOBE_WIDTH" envDefault:"640"`            // framebuffer width in pixels
	Height           int        `env:"GLOBE_HEIGHT" envDefault:"480"`           // framebuffer height in pixels
	MetricsAddr      string     `env:"GLOBE_METRICS_ADDR"`                      // serve /metrics here when set
	LogLevel         slog.Level `env:"GLOBE_LOG_LEVEL" envDefault:"info"`       // debug, info, warn, error
	LogFormat        string     `env:"GLOBE_LOG_FORMAT" envDefault:"text"`      // text or json
	Offset           float64    `env:"GLOBE_LONGITUDE_OFFSET" envDefault:"300"` // degrees
}

// LoadSettings parses Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks values env tags cannot express.
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid framebuffer size %dx%d", s.Width, s.Height)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return errors.New("GLOBE_LOG_FORMAT must be text or json")
	}
	return nil
}

// NewLogger builds the slog logger described by the settings.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	var h slog.Handler
	if strings.EqualFold(s.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Options returns the library options for these settings.
func (s Settings) Options(logger *slog.Logger, metrics *Metrics) []Option {
	return []Option{
		WithLogger(logger),
		WithMetrics(metrics),
		WithCalibration(Calibration{OffsetDegrees: s.Offset}),
	}
}
