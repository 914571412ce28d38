package generator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/extensions"
	"github.com/yyctransit/gtfs/extensions/calgarytrain"
	"github.com/yyctransit/gtfs/generator"
	"github.com/yyctransit/gtfs/internal/testutil"
	"github.com/yyctransit/gtfs/schedule"
)

var edmonton = mustLoadLocation("America/Edmonton")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, -6*60*60)
	}
	return loc
}

// Thursday
var now = time.Date(2026, 10, 15, 9, 30, 0, 0, edmonton)

func date(month time.Month, day int) time.Time {
	return time.Date(2026, month, day, 0, 0, 0, 0, time.UTC)
}

func parse(t *testing.T, b *testutil.ZipBuilder) *gtfs.Static {
	t.Helper()
	static, err := gtfs.ParseStatic(b.Build())
	if err != nil {
		t.Fatalf("ParseStatic() failed: %s", err)
	}
	return static
}

func TestGenerate_CTrain(t *testing.T) {
	static := parse(t, testutil.NewCTrainZipBuilder())

	got, err := generator.Generate(static, calgarytrain.Extension(), generator.Options{Now: now, UsefulDays: 7})
	if err != nil {
		t.Fatalf("Generate() failed: %s", err)
	}

	want := &schedule.Schedule{
		Agency: schedule.Agency{
			ID:        "CT",
			Name:      "Calgary Transit",
			Color:     "B83A3F",
			RouteType: gtfs.RouteType_Rail,
			Timezone:  "America/Edmonton",
		},
		Routes: []schedule.Route{
			{ID: 201, ShortName: "201", LongName: "Tuscany / Somerset-Bridlewood", Color: "EE2622"},
			{ID: 202, ShortName: "202", LongName: "69 St Sta / Saddletowne", Color: "0F4076"},
		},
		Trips: []schedule.Trip{
			{ID: 20100, RouteID: 201, DirectionID: 0, Headsign: "Tuscany"},
			{ID: 20101, RouteID: 201, DirectionID: 1, Headsign: "Somerset-Bridlewood"},
			{ID: 20200, RouteID: 202, DirectionID: 0, Headsign: "Saddletowne"},
			{ID: 20201, RouteID: 202, DirectionID: 1, Headsign: "69 St"},
		},
		Stops: []schedule.Stop{
			{ID: "3627", Code: "3627", Name: "69 Street", Latitude: 51.0404, Longitude: -114.2171, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
			{ID: "5741", Code: "5741", Name: "Sunalta", Latitude: 51.0477, Longitude: -114.1004, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
			{ID: "6810", Code: "6810", Name: "Tuscany", Latitude: 51.1349, Longitude: -114.2455, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
			{ID: "6811", Code: "6811", Name: "Somerset-Bridlewood", Latitude: 50.8986, Longitude: -114.0700, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
			{ID: "9781", Code: "9781", Name: "Saddletowne", Latitude: 51.1253, Longitude: -113.9488, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
		},
		TripStops: []schedule.TripStop{
			{TripID: 20100, StopID: "6811", Sequence: 1},
			{TripID: 20100, StopID: "6810", Sequence: 2},
			{TripID: 20101, StopID: "6810", Sequence: 1},
			{TripID: 20101, StopID: "6811", Sequence: 2},
			// 69 St is moved to the end of the Saddletowne trip
			{TripID: 20200, StopID: "5741", Sequence: 1},
			{TripID: 20200, StopID: "9781", Sequence: 2},
			{TripID: 20200, StopID: "3627", Sequence: 3},
			// and Saddletowne to the end of the 69 St trip
			{TripID: 20201, StopID: "5741", Sequence: 1},
			{TripID: 20201, StopID: "3627", Sequence: 2},
			{TripID: 20201, StopID: "9781", Sequence: 3},
		},
		ServiceDates: []schedule.ServiceDate{
			{ServiceID: "WKDY", Date: date(time.October, 15)},
			{ServiceID: "WKDY", Date: date(time.October, 16)},
			{ServiceID: "WKDY", Date: date(time.October, 19)},
			{ServiceID: "WKDY", Date: date(time.October, 20)},
			{ServiceID: "WKDY", Date: date(time.October, 21)},
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Generate() got = %+v, want = %+v, diff = %s", got, want, diff)
	}
}

func TestGenerate_IsDeterministic(t *testing.T) {
	opts := generator.Options{Now: now, UsefulDays: 30}
	first, err := generator.Generate(parse(t, testutil.NewCTrainZipBuilder()), calgarytrain.Extension(), opts)
	if err != nil {
		t.Fatalf("Generate() failed: %s", err)
	}
	for i := 0; i < 5; i++ {
		again, err := generator.Generate(parse(t, testutil.NewCTrainZipBuilder()), calgarytrain.Extension(), opts)
		if err != nil {
			t.Fatalf("Generate() failed: %s", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Generate() is not deterministic, diff = %s", diff)
		}
	}
}

func TestGenerate_MergesTripsAndRouteVersions(t *testing.T) {
	b := testutil.NewCTrainZipBuilder().Add(
		"routes.txt",
		"route_id,agency_id,route_short_name,route_long_name,route_type,route_color",
		"201-20666,CT,201,,0,",
		"201-20667,CT,201,Ignored,0,",
	).Add(
		"trips.txt",
		"route_id,service_id,trip_id,trip_headsign,direction_id",
		"201-20666,WKDY,short,TUSCANY,0",
		"201-20667,WKDY,long,TUSCANY,0",
	).Add(
		"stop_times.txt",
		"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
		"short,05:00:00,05:00:00,5741,1",
		"short,05:10:00,05:10:00,6810,2",
		"long,05:00:00,05:00:00,6811,1",
		"long,05:10:00,05:10:00,5741,2",
		"long,05:20:00,05:20:00,6810,3",
	)

	got, err := generator.Generate(parse(t, b), calgarytrain.Extension(), generator.Options{Now: now, UsefulDays: 7})
	if err != nil {
		t.Fatalf("Generate() failed: %s", err)
	}

	wantRoutes := []schedule.Route{
		{ID: 201, ShortName: "201", LongName: "Tuscany / Somerset-Bridlewood", Color: "EE2622"},
	}
	if diff := cmp.Diff(got.Routes, wantRoutes); diff != "" {
		t.Errorf("routes diff = %s", diff)
	}
	wantTripStops := []schedule.TripStop{
		// 5741 and 6811 are both first somewhere; ties are broken by stop ID
		{TripID: 20100, StopID: "5741", Sequence: 1},
		{TripID: 20100, StopID: "6811", Sequence: 2},
		{TripID: 20100, StopID: "6810", Sequence: 3},
	}
	if diff := cmp.Diff(got.TripStops, wantTripStops); diff != "" {
		t.Errorf("trip stops diff = %s", diff)
	}
}

func TestGenerate_Errors(t *testing.T) {
	for _, tc := range []struct {
		name        string
		builder     *testutil.ZipBuilder
		expectedErr error
	}{
		{
			name: "unknown line",
			builder: testutil.NewCTrainZipBuilder().Add(
				"routes.txt",
				"route_id,agency_id,route_short_name,route_long_name,route_type,route_color",
				"203-20666,CT,203,,0,",
			),
			expectedErr: calgarytrain.ErrUnknownLine,
		},
		{
			name: "non numeric route",
			builder: testutil.NewCTrainZipBuilder().Add(
				"routes.txt",
				"route_id,agency_id,route_short_name,route_long_name,route_type,route_color",
				"BLUE,CT,Blue,,0,",
			),
			expectedErr: calgarytrain.ErrInvalidRouteCode,
		},
		{
			name: "missing direction",
			builder: testutil.NewCTrainZipBuilder().Add(
				"trips.txt",
				"route_id,service_id,trip_id,trip_headsign",
				"202-20666,WKDY,b0a,SADDLETOWNE",
			),
			expectedErr: calgarytrain.ErrUnknownDirection,
		},
		{
			name: "missing direction after a valid trip of the same route",
			builder: testutil.NewCTrainZipBuilder().Add(
				"trips.txt",
				"route_id,service_id,trip_id,trip_headsign,direction_id",
				"201-20666,WKDY,r0a,TUSCANY,0",
				"201-20666,WKDY,rX,MYSTERY,",
			),
			expectedErr: calgarytrain.ErrUnknownDirection,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := generator.Generate(parse(t, tc.builder), calgarytrain.Extension(), generator.Options{Now: now, UsefulDays: 7})
			if !errors.Is(err, tc.expectedErr) {
				t.Errorf("Generate() error = %v, want %v", err, tc.expectedErr)
			}
			if got != nil {
				t.Errorf("Generate() returned a partial schedule: %+v", got)
			}
		})
	}
}

func TestGenerate_NoExtension(t *testing.T) {
	b := testutil.NewZipBuilder().Add(
		"agency.txt",
		"agency_id,agency_name,agency_url,agency_timezone",
		"A,Agency,https://example.com,America/Edmonton",
	).Add(
		"routes.txt",
		"route_id,route_short_name,route_long_name,route_type,route_color",
		"7,7,MAIN  ST ,3,00ff00",
	).Add(
		"stops.txt",
		"stop_id,stop_name",
		"s1, First stop",
	).Add(
		"trips.txt",
		"route_id,service_id,trip_id,trip_headsign,direction_id",
		"7,S,t1, downtown ,1",
	).Add(
		"calendar_dates.txt",
		"service_id,date,exception_type",
		"S,20261016,1",
	).Add(
		"stop_times.txt",
		"trip_id,stop_id,stop_sequence",
		"t1,s1,1",
	)

	got, err := generator.Generate(parse(t, b), extensions.NoExtension(), generator.Options{})
	if err != nil {
		t.Fatalf("Generate() failed: %s", err)
	}

	want := &schedule.Schedule{
		Agency: schedule.Agency{
			ID:        "A",
			Name:      "Agency",
			RouteType: gtfs.RouteType_Bus,
			Timezone:  "America/Edmonton",
		},
		Routes:       []schedule.Route{{ID: 7, ShortName: "7", LongName: "MAIN ST", Color: "00FF00"}},
		Trips:        []schedule.Trip{{ID: 701, RouteID: 7, DirectionID: 1, Headsign: "Downtown"}},
		Stops:        []schedule.Stop{{ID: "s1", Name: "First Stop"}},
		TripStops:    []schedule.TripStop{{TripID: 701, StopID: "s1", Sequence: 1}},
		ServiceDates: []schedule.ServiceDate{{ServiceID: "S", Date: date(time.October, 16)}},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Generate() diff = %s", diff)
	}
}

func TestUsefulServiceIDs(t *testing.T) {
	static := parse(t, testutil.NewCTrainZipBuilder().Add(
		"calendar.txt",
		"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
		"WKDY,1,1,1,1,1,0,0,20260101,20261231",
		"WKND,0,0,0,0,0,1,1,20260101,20261231",
		"OLD,1,1,1,1,1,1,1,20200101,20201231",
		"LATER,1,1,1,1,1,1,1,20261201,20261231",
	).Add(
		"calendar_dates.txt",
		"service_id,date,exception_type",
		"EXTRA,20261016,1",
	))

	for _, tc := range []struct {
		name     string
		days     int
		expected map[string]bool
	}{
		{
			name:     "thursday only",
			days:     1,
			expected: map[string]bool{"WKDY": true},
		},
		{
			name:     "two days",
			days:     2,
			expected: map[string]bool{"WKDY": true, "EXTRA": true},
		},
		{
			name:     "one week",
			days:     7,
			expected: map[string]bool{"WKDY": true, "WKND": true, "EXTRA": true},
		},
		{
			name:     "no limit",
			days:     0,
			expected: map[string]bool{"WKDY": true, "WKND": true, "OLD": true, "LATER": true, "EXTRA": true},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := generator.UsefulServiceIDs(static.Services, now, tc.days)
			if diff := cmp.Diff(got, tc.expected); diff != "" {
				t.Errorf("UsefulServiceIDs() diff = %s", diff)
			}
		})
	}
}

func TestServiceDates(t *testing.T) {
	service := &gtfs.Service{
		Id:           "S",
		Monday:       true,
		Saturday:     true,
		StartDate:    date(time.October, 1),
		EndDate:      date(time.October, 31),
		AddedDates:   []time.Time{date(time.October, 14)},
		RemovedDates: []time.Time{date(time.October, 12)},
	}
	got := generator.ServiceDates(service, date(time.October, 10), date(time.October, 20))
	want := []time.Time{
		date(time.October, 10),
		date(time.October, 14),
		date(time.October, 17),
		date(time.October, 19),
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ServiceDates() diff = %s", diff)
	}
}
