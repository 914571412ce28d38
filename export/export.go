// Package export renders a generated schedule as CSV files.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/schedule"
)

//go:embed routes.csv.tmpl
var routesCsvTmpl string

//go:embed trips.csv.tmpl
var tripsCsvTmpl string

//go:embed stops.csv.tmpl
var stopsCsvTmpl string

//go:embed trip_stops.csv.tmpl
var tripStopsCsvTmpl string

//go:embed service_dates.csv.tmpl
var serviceDatesCsvTmpl string

var funcMap = template.FuncMap{
	// Field quotes a free text value if it contains a separator, a quote or a line break.
	"Field": func(s string) string {
		if !strings.ContainsAny(s, ",\"\r\n") {
			return s
		}
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	},
	"FormatCoordinate": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
	"FormatDate": func(t time.Time) string {
		return t.Format("20060102")
	},
	"FormatWheelchairBoarding": func(w gtfs.WheelchairBoarding) string {
		return strconv.Itoa(int(w))
	},
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcMap).Parse(text))
}

var (
	routesCsv       = mustParse("routes.csv.tmpl", routesCsvTmpl)
	tripsCsv        = mustParse("trips.csv.tmpl", tripsCsvTmpl)
	stopsCsv        = mustParse("stops.csv.tmpl", stopsCsvTmpl)
	tripStopsCsv    = mustParse("trip_stops.csv.tmpl", tripStopsCsvTmpl)
	serviceDatesCsv = mustParse("service_dates.csv.tmpl", serviceDatesCsvTmpl)
)

// CsvExport contains CSV exports of a schedule
type CsvExport struct {
	RoutesCsv       []byte
	TripsCsv        []byte
	StopsCsv        []byte
	TripStopsCsv    []byte
	ServiceDatesCsv []byte
}

func ExportToCsv(s *schedule.Schedule) (*CsvExport, error) {
	result := &CsvExport{}
	for _, file := range []struct {
		tmpl *template.Template
		dest *[]byte
	}{
		{routesCsv, &result.RoutesCsv},
		{tripsCsv, &result.TripsCsv},
		{stopsCsv, &result.StopsCsv},
		{tripStopsCsv, &result.TripStopsCsv},
		{serviceDatesCsv, &result.ServiceDatesCsv},
	} {
		var b bytes.Buffer
		if err := file.tmpl.Execute(&b, s); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", file.tmpl.Name(), err)
		}
		*file.dest = b.Bytes()
	}
	return result, nil
}

// Files returns the export keyed by file name. Every file name starts with the prefix.
func (e *CsvExport) Files(prefix string) map[string][]byte {
	return map[string][]byte{
		prefix + "routes.csv":        e.RoutesCsv,
		prefix + "trips.csv":         e.TripsCsv,
		prefix + "stops.csv":         e.StopsCsv,
		prefix + "trip_stops.csv":    e.TripStopsCsv,
		prefix + "service_dates.csv": e.ServiceDatesCsv,
	}
}

var writeFile = os.WriteFile

// WriteDir writes the export into dir, creating it if needed, and returns the paths written.
//
// The files are first written to a staging directory inside dir and only moved into place
// once all of them were written, so a failed write leaves the previous export untouched.
func (e *CsvExport) WriteDir(dir, prefix string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	staging, err := os.MkdirTemp(dir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	files := e.Files(prefix)
	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeFile(filepath.Join(staging, name), files[name], 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.Rename(filepath.Join(staging, name), path); err != nil {
			return nil, fmt.Errorf("failed to move %s into place: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
