package globe

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

//go:embed data/world_cities.csv
var sampleData embed.FS

// samplePath is the embedded dataset used when no source is given.
const samplePath = "data/world_cities.csv"

// maxSourceBytes caps how much of a catalog source is read into memory.
const maxSourceBytes = 256 << 20

// ErrLoadFailed marks a whole-source catalog failure: the source could not be
// reached, read or decoded. It is distinct from a catalog that loaded fine but
// matches nothing.
var ErrLoadFailed = errors.New("catalog load failed")

// LoadCatalog fetches and parses a cities dataset. source is a filesystem
// path, an http(s) URL, or "" for the embedded sample. Sources ending in .gz,
// .bz2 or .zip are decompressed transparently.
//
// On failure the returned catalog is empty (never nil) and the error wraps
// ErrLoadFailed. Individual bad rows are never an error; they are counted as
// rejected and keep their row index.
func LoadCatalog(ctx context.Context, source string, opts ...Option) (*Catalog, error) {
	cfg := newConfig(opts)

	cat, err := loadCatalog(ctx, cfg, source)
	if err != nil {
		cfg.Metrics.IncLoadFailures()
		cfg.Logger.Warn("catalog load failed", "source", sourceName(source), "error", err)
		return NewCatalog(nil), fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	cfg.Metrics.ObserveCatalog(cat)
	cfg.Logger.Info("catalog loaded",
		"source", sourceName(source),
		"accepted", len(cat.Cities),
		"rejected", cat.Rejected,
	)
	return cat, nil
}

func loadCatalog(ctx context.Context, cfg *Config, source string) (*Catalog, error) {
	data, err := readSource(ctx, cfg.HTTPClient, source)
	if err != nil {
		return nil, err
	}
	r, err := decompress(sourceName(source), data)
	if err != nil {
		return nil, err
	}
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return NewCatalog(rows), nil
}

// ReadRows reads CSV rows with a variable number of fields per row. Row i of
// the result is the i-th row of the input: a blank line yields a single empty
// field and a record that cannot be parsed yields a nil row, so both still
// take their index. Only read failures fail the whole input.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	lastLine := 0 // last input line consumed by the previous row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rows = appendBlankLines(rows, perr.StartLine-lastLine-1)
			rows = append(rows, nil)
			lastLine = perr.Line
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}

		start, _ := cr.FieldPos(0)
		rows = appendBlankLines(rows, start-lastLine-1)
		rows = append(rows, rec)

		// Quoted fields may span lines.
		last := len(rec) - 1
		end, _ := cr.FieldPos(last)
		lastLine = end + strings.Count(rec[last], "\n")
	}
}

// appendBlankLines adds n rows for lines the csv reader skipped.
func appendBlankLines(rows [][]string, n int) [][]string {
	for ; n > 0; n-- {
		rows = append(rows, []string{""})
	}
	return rows
}

func sourceName(source string) string {
	if source == "" {
		return samplePath
	}
	return source
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func readSource(ctx context.Context, hc *http.Client, source string) ([]byte, error) {
	switch {
	case source == "":
		data, err := sampleData.ReadFile(samplePath)
		if err != nil {
			return nil, fmt.Errorf("reading embedded sample: %w", err)
		}
		return data, nil
	case isRemote(source):
		return fetch(ctx, hc, source)
	default:
		fh, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", source, err)
		}
		defer fh.Close()
		data, err := io.ReadAll(io.LimitReader(fh, maxSourceBytes))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return data, nil
	}
}

func fetch(ctx context.Context, hc *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP GET %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}
	return data, nil
}

// decompress picks a decoder from the source name's extension.
func decompress(name string, data []byte) (io.Reader, error) {
	if isRemote(name) {
		if u, err := url.Parse(name); err == nil {
			name = u.Path
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return zr, nil
	case ".bz2":
		return bzip2.NewReader(bytes.NewReader(data)), nil
	case ".zip":
		return firstZipEntry(data)
	default:
		return bytes.NewReader(data), nil
	}
}

// firstZipEntry returns the contents of the first regular file in a zip
// archive. Entries are only read into memory, never extracted to disk.
func firstZipEntry(data []byte) (io.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		return readZipEntry(f)
	}
	return nil, errors.New("zip archive has no files")
}

// readZipEntry is split out so the deferred Close runs per entry.
func readZipEntry(f *zip.File) (io.Reader, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s in zip: %w", f.Name, err)
	}
	return bytes.NewReader(data), nil
}
