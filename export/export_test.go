package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/schedule"
)

var s = &schedule.Schedule{
	Agency: schedule.Agency{ID: "CT", Name: "Calgary Transit", Color: "B83A3F", RouteType: gtfs.RouteType_Rail},
	Routes: []schedule.Route{
		{ID: 202, ShortName: "202", LongName: "69 St Sta / Saddletowne", Color: "0F4076"},
	},
	Trips: []schedule.Trip{
		{ID: 20200, RouteID: 202, DirectionID: 0, Headsign: "Saddletowne"},
		{ID: 20201, RouteID: 202, DirectionID: 1, Headsign: "69 St"},
	},
	Stops: []schedule.Stop{
		{ID: "3627", Code: "3627", Name: "69 Street", Latitude: 51.0404, Longitude: -114.2171, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
		{ID: "9000", Name: `Centre Street, "North"`},
	},
	TripStops: []schedule.TripStop{
		{TripID: 20200, StopID: "9000", Sequence: 1},
		{TripID: 20200, StopID: "3627", Sequence: 2},
	},
	ServiceDates: []schedule.ServiceDate{
		{ServiceID: "WKDY", Date: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
	},
}

const expectedRoutesCsv = `route_id,route_short_name,route_long_name,route_color
202,202,69 St Sta / Saddletowne,0F4076
`

const expectedTripsCsv = `trip_id,route_id,direction_id,trip_headsign
20200,202,0,Saddletowne
20201,202,1,69 St
`

const expectedStopsCsv = `stop_id,stop_code,stop_name,stop_lat,stop_lon,wheelchair_boarding
3627,3627,69 Street,51.0404,-114.2171,1
9000,,"Centre Street, ""North""",0,0,0
`

const expectedTripStopsCsv = `trip_id,stop_id,stop_sequence
20200,9000,1
20200,3627,2
`

const expectedServiceDatesCsv = `service_id,date
WKDY,20261015
`

func TestCsvExport(t *testing.T) {
	result, err := ExportToCsv(s)
	if err != nil {
		t.Fatalf("ExportToCsv function failed: %s", err)
	}

	for _, tc := range []struct {
		name string
		got  []byte
		want string
	}{
		{"routes", result.RoutesCsv, expectedRoutesCsv},
		{"trips", result.TripsCsv, expectedTripsCsv},
		{"stops", result.StopsCsv, expectedStopsCsv},
		{"trip stops", result.TripStopsCsv, expectedTripStopsCsv},
		{"service dates", result.ServiceDatesCsv, expectedServiceDatesCsv},
	} {
		if got := string(tc.got); got != tc.want {
			t.Errorf("%s file actual:\n%s\n!= expected:\n%s\n", tc.name, got, tc.want)
		}
	}
}

func TestCsvExport_Empty(t *testing.T) {
	result, err := ExportToCsv(&schedule.Schedule{})
	if err != nil {
		t.Fatalf("ExportToCsv function failed: %s", err)
	}
	if got, want := string(result.TripsCsv), "trip_id,route_id,direction_id,trip_headsign\n"; got != want {
		t.Errorf("Trips file actual:\n%s\n!= expected:\n%s\n", got, want)
	}
}

func TestWriteDir(t *testing.T) {
	result, err := ExportToCsv(s)
	if err != nil {
		t.Fatalf("ExportToCsv function failed: %s", err)
	}
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := result.WriteDir(dir, "ctrain_")
	if err != nil {
		t.Fatalf("WriteDir failed: %s", err)
	}

	wantPaths := []string{
		filepath.Join(dir, "ctrain_routes.csv"),
		filepath.Join(dir, "ctrain_service_dates.csv"),
		filepath.Join(dir, "ctrain_stops.csv"),
		filepath.Join(dir, "ctrain_trip_stops.csv"),
		filepath.Join(dir, "ctrain_trips.csv"),
	}
	if diff := cmp.Diff(paths, wantPaths); diff != "" {
		t.Errorf("WriteDir paths diff = %s", diff)
	}
	content, err := os.ReadFile(filepath.Join(dir, "ctrain_routes.csv"))
	if err != nil {
		t.Fatalf("failed to read routes file: %s", err)
	}
	if got := string(content); got != expectedRoutesCsv {
		t.Errorf("routes file actual:\n%s\n!= expected:\n%s\n", got, expectedRoutesCsv)
	}
}

func TestWriteDir_FailedWriteKeepsPreviousExport(t *testing.T) {
	result, err := ExportToCsv(s)
	if err != nil {
		t.Fatalf("ExportToCsv function failed: %s", err)
	}
	dir := t.TempDir()
	previous := filepath.Join(dir, "ctrain_routes.csv")
	if err := os.WriteFile(previous, []byte("previous"), 0o644); err != nil {
		t.Fatalf("failed to write previous export: %s", err)
	}
	writeFile = func(name string, data []byte, perm os.FileMode) error {
		if strings.HasSuffix(name, "trips.csv") {
			return errors.New("disk full")
		}
		return os.WriteFile(name, data, perm)
	}
	t.Cleanup(func() { writeFile = os.WriteFile })

	if _, err := result.WriteDir(dir, "ctrain_"); err == nil {
		t.Fatalf("WriteDir succeeded, want an error")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list output directory: %s", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if diff := cmp.Diff(names, []string{"ctrain_routes.csv"}); diff != "" {
		t.Errorf("output directory diff = %s", diff)
	}
	content, err := os.ReadFile(previous)
	if err != nil {
		t.Fatalf("failed to read previous export: %s", err)
	}
	if string(content) != "previous" {
		t.Errorf("previous export was overwritten with:\n%s", content)
	}
}
