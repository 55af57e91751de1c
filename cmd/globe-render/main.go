// Command globe-render draws one frame of the globe to a PNG file.
//
// Usage:
//
//	go run ./cmd/globe-render -out globe.png -filter new -select "New York"
//
// The catalog, textures and frame size come from GLOBE_* environment
// variables; flags pick the layers, the camera and the selected city.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/andreiashu/globe"
	"golang.org/x/text/cases"
)

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

	toggles := globe.DefaultToggles()
	var (
		out      = flag.String("out", "globe.png", "output PNG path")
		filter   = flag.String("filter", "", "city name filter")
		selected = flag.String("select", "", "name of the city to mark")
		yaw      = flag.Float64("yaw", 0, "camera yaw in degrees")
		pitch    = flag.Float64("pitch", 0, "camera pitch in degrees")
		distance = flag.Float64("distance", 3, "camera distance from the globe center")
	)
	flag.BoolVar(&toggles.ShowAxis, "axis", toggles.ShowAxis, "draw the axis indicator")
	flag.BoolVar(&toggles.ShowEarth, "earth", toggles.ShowEarth, "draw the globe")
	flag.BoolVar(&toggles.ShowPoliticalMap, "political", toggles.ShowPoliticalMap, "blend the political overlay")
	flag.BoolVar(&toggles.ShowCenters, "centers", toggles.ShowCenters, "highlight the axis centers")
	flag.BoolVar(&toggles.ShowColorBox, "colorbox", toggles.ShowColorBox, "blend the face colors")
	flag.BoolVar(&toggles.ShowCities, "cities", toggles.ShowCities, "draw the filtered cities")
	flag.BoolVar(&toggles.ShowCity, "city", toggles.ShowCity, "draw the selection marker")
	flag.Parse()

	logger := settings.NewLogger(os.Stderr)
	comp := globe.NewComposer(settings.Options(logger, nil)...)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := comp.LoadCatalog(ctx, settings.Cities); err != nil {
		if !globe.IsLoadFailure(err) {
			return err
		}
		// The frame is still drawn; the globe just has no cities.
		logger.Error("catalog unavailable", "source", settings.Cities, "error", err)
	}
	comp.LoadTextures(settings.EarthTexture, settings.PoliticalTexture)
	comp.SetFilter(*filter)

	cat := comp.Catalog()
	fmt.Printf("Catalog: %s, %d cities in %d countries, %d rows rejected\n",
		comp.Status(), cat.Len(), cat.Countries(), cat.Rejected)
	fmt.Printf("Filter %q: %d cities\n", comp.Filter(), len(comp.Filtered()))
	if comp.NoMatches() {
		printSuggestions(cat, *filter)
	}

	if *selected != "" {
		city, ok := findByName(cat, *selected)
		if !ok {
			fmt.Printf("No city named %q\n", *selected)
			printSuggestions(cat, *selected)
		} else {
			comp.OnCitySelect(city)
			toggles.ShowCity = true
			fmt.Printf("Selected: %s, %s (%.4f, %.4f) geohash %s\n",
				city.Name, city.Country, city.Latitude, city.Longitude, city.Geohash())
		}
	}

	fb := globe.NewFramebuffer(settings.Width, settings.Height)
	cam := globe.OrbitCamera(*distance, *yaw*math.Pi/180, *pitch*math.Pi/180)
	globe.Render(comp.Compose(toggles), cam, fb)

	fh, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	if err := png.Encode(fh, fb.Image); err != nil {
		fh.Close()
		return fmt.Errorf("encoding %s: %w", *out, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", *out, err)
	}
	fmt.Printf("Wrote %dx%d frame to %s\n", settings.Width, settings.Height, *out)
	return nil
}

// findByName returns the first city whose name equals name, ignoring case.
func findByName(cat *globe.Catalog, name string) (globe.CityRecord, bool) {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, city := range cat.Cities {
		if fold.String(city.Name) == want {
			return city, true
		}
	}
	return globe.CityRecord{}, false
}

func printSuggestions(cat *globe.Catalog, query string) {
	hints := cat.Suggest(query, 3)
	if len(hints) == 0 {
		return
	}
	names := make([]string, len(hints))
	for i, c := range hints {
		names[i] = c.Name
	}
	fmt.Printf("Did you mean: %s?\n", strings.Join(names, ", "))
}
