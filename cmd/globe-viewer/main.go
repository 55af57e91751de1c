// Command globe-viewer opens a window with the interactive globe.
//
// Keys 1-7 toggle the axis, earth, political map, axis centers, color box,
// cities and selected-city layers. Typing edits the city filter, Backspace
// deletes and Escape clears it. Arrow keys orbit the camera and a left click
// selects the nearest city.
//
// Configuration comes from GLOBE_* environment variables; see globe.Settings.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/andreiashu/globe"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	orbitStep       = 2 * math.Pi / 180 // radians per tick while an arrow is held
	cameraDistance  = 3
	backspaceRepeat = 4 // ticks between repeated deletes
)

type catalogResult struct {
	cat *globe.Catalog
	err error
}

type viewer struct {
	log     *slog.Logger
	comp    *globe.Composer
	toggles globe.Toggles
	loaded  <-chan catalogResult

	filter     []rune
	yaw, pitch float64

	fb     *globe.Framebuffer
	screen *ebiten.Image
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := globe.LoadSettings()
	if err != nil {
		return err
	}
	logger := settings.NewLogger(os.Stderr)

	var metrics *globe.Metrics
	if settings.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		if metrics, err = globe.NewMetrics(reg); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		srv := serveMetrics(settings.MetricsAddr, reg, logger)
		defer srv.Close()
	}

	opts := settings.Options(logger, metrics)
	comp := globe.NewComposer(opts...)
	comp.LoadTextures(settings.EarthTexture, settings.PoliticalTexture)

	// The composer is owned by the render loop; the load result is handed
	// over through a channel that Update polls.
	loaded := make(chan catalogResult, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		cat, err := globe.LoadCatalog(ctx, settings.Cities, opts...)
		loaded <- catalogResult{cat, err}
	}()

	v := &viewer{
		log:     logger,
		comp:    comp,
		toggles: globe.DefaultToggles(),
		loaded:  loaded,
		fb:      globe.NewFramebuffer(settings.Width, settings.Height),
	}

	ebiten.SetWindowTitle("Globe")
	ebiten.SetWindowSize(settings.Width, settings.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(30)
	return ebiten.RunGame(v)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func (v *viewer) Update() error {
	select {
	case res := <-v.loaded:
		v.comp.SetCatalog(res.cat, res.err)
	default:
	}

	v.updateToggles()
	v.updateFilter()
	v.updateCamera()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		w, h := v.fb.Size()
		if hit, ok := v.camera().Pick(x, y, w, h); ok && v.comp.SelectAt(hit) {
			v.toggles.ShowCity = true
		}
	}
	return nil
}

var toggleKeys = []struct {
	key ebiten.Key
	get func(*globe.Toggles) *bool
}{
	{ebiten.KeyDigit1, func(t *globe.Toggles) *bool { return &t.ShowAxis }},
	{ebiten.KeyDigit2, func(t *globe.Toggles) *bool { return &t.ShowEarth }},
	{ebiten.KeyDigit3, func(t *globe.Toggles) *bool { return &t.ShowPoliticalMap }},
	{ebiten.KeyDigit4, func(t *globe.Toggles) *bool { return &t.ShowCenters }},
	{ebiten.KeyDigit5, func(t *globe.Toggles) *bool { return &t.ShowColorBox }},
	{ebiten.KeyDigit6, func(t *globe.Toggles) *bool { return &t.ShowCities }},
	{ebiten.KeyDigit7, func(t *globe.Toggles) *bool { return &t.ShowCity }},
}

func (v *viewer) updateToggles() {
	for _, tk := range toggleKeys {
		if inpututil.IsKeyJustPressed(tk.key) {
			p := tk.get(&v.toggles)
			*p = !*p
		}
	}
}

func (v *viewer) updateFilter() {
	before := len(v.filter)
	changed := false

	// Digits drive the toggles, so they never reach the filter.
	for _, r := range ebiten.AppendInputChars(nil) {
		if unicode.IsDigit(r) || !unicode.IsPrint(r) {
			continue
		}
		v.filter = append(v.filter, r)
		changed = true
	}

	if d := inpututil.KeyPressDuration(ebiten.KeyBackspace); d == 1 || (d > 15 && d%backspaceRepeat == 0) {
		if len(v.filter) > 0 {
			v.filter = v.filter[:len(v.filter)-1]
			changed = true
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && before > 0 {
		v.filter = v.filter[:0]
		changed = true
	}

	if changed {
		v.comp.SetFilter(string(v.filter))
	}
}

func (v *viewer) updateCamera() {
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		v.yaw -= orbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		v.yaw += orbitStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		v.pitch = math.Min(v.pitch+orbitStep, math.Pi/2-0.01)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		v.pitch = math.Max(v.pitch-orbitStep, -math.Pi/2+0.01)
	}
}

func (v *viewer) camera() globe.Camera {
	return globe.OrbitCamera(cameraDistance, v.yaw, v.pitch)
}

func (v *viewer) Draw(screen *ebiten.Image) {
	globe.Render(v.comp.Compose(v.toggles), v.camera(), v.fb)

	w, h := v.fb.Size()
	if v.screen == nil {
		v.screen = ebiten.NewImage(w, h)
	}
	v.screen.WritePixels(v.fb.Image.Pix)
	screen.DrawImage(v.screen, nil)

	ebitenutil.DebugPrint(screen, v.status())
}

func (v *viewer) status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "filter: %s_\n", string(v.filter))

	switch v.comp.Status() {
	case globe.CatalogLoading:
		b.WriteString("loading cities...\n")
	case globe.CatalogLoadFailed:
		fmt.Fprintf(&b, "cities unavailable: %v\n", v.comp.LoadErr())
	default:
		fmt.Fprintf(&b, "%d of %d cities\n", len(v.comp.Filtered()), v.comp.Catalog().Len())
		if v.comp.NoMatches() {
			b.WriteString("no matches")
			if hints := v.comp.Catalog().Suggest(string(v.filter), 2); len(hints) > 0 {
				fmt.Fprintf(&b, ", did you mean %s?", hints[0].Name)
			}
			b.WriteString("\n")
		}
	}

	if id, ok := v.comp.Selection().ID(); ok {
		if city, found := v.comp.Catalog().Lookup(id); found {
			fmt.Fprintf(&b, "selected: %s, %s [%s]\n", city.Name, city.Country, city.Geohash())
		}
	}
	b.WriteString("1 axis  2 earth  3 political  4 centers  5 box  6 cities  7 city")
	return b.String()
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.fb.Size()
}
