package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/schedule"
)

var s = &schedule.Schedule{
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
		{ID: 20200, RouteID: 202, DirectionID: 0, Headsign: "Saddletowne"},
		{ID: 20201, RouteID: 202, DirectionID: 1, Headsign: "69 St"},
	},
	Stops: []schedule.Stop{
		{ID: "3627", Code: "3627", Name: "69 Street", Latitude: 51.0404, Longitude: -114.2171, WheelchairBoarding: gtfs.WheelchairBoarding_Possible},
		{ID: "5741", Code: "5741", Name: "Sunalta", Latitude: 51.0477, Longitude: -114.1004},
	},
	TripStops: []schedule.TripStop{
		{TripID: 20200, StopID: "5741", Sequence: 1},
		{TripID: 20200, StopID: "3627", Sequence: 2},
		{TripID: 20201, StopID: "3627", Sequence: 1},
		{TripID: 20201, StopID: "5741", Sequence: 2},
	},
	ServiceDates: []schedule.ServiceDate{
		{ServiceID: "WKDY", Date: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)},
		{ServiceID: "WKND", Date: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
	},
}

func newDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "ctrain.db"))
	if err != nil {
		t.Fatalf("Connect() failed: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() failed: %s", err)
	}
	return db
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	generation, err := db.SaveGeneration(ctx, s, "abc")
	if err != nil {
		t.Fatalf("SaveGeneration() failed: %s", err)
	}
	got, err := db.LoadSchedule(ctx, generation.ID)
	if err != nil {
		t.Fatalf("LoadSchedule() failed: %s", err)
	}
	if diff := cmp.Diff(got, s); diff != "" {
		t.Errorf("LoadSchedule() diff = %s", diff)
	}
}

func TestEnsureSchema_IsIdempotent(t *testing.T) {
	db := newDB(t)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Errorf("second EnsureSchema() failed: %s", err)
	}
}

func TestLatestGeneration(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	if _, err := db.LatestGeneration(ctx); !errors.Is(err, ErrNoGeneration) {
		t.Fatalf("LatestGeneration() on empty database error = %v, want %v", err, ErrNoGeneration)
	}

	clock := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return clock }
	first, err := db.SaveGeneration(ctx, s, "first")
	if err != nil {
		t.Fatalf("SaveGeneration() failed: %s", err)
	}
	clock = clock.Add(time.Hour)
	second, err := db.SaveGeneration(ctx, s, "second")
	if err != nil {
		t.Fatalf("SaveGeneration() failed: %s", err)
	}

	latest, err := db.LatestGeneration(ctx)
	if err != nil {
		t.Fatalf("LatestGeneration() failed: %s", err)
	}
	if diff := cmp.Diff(latest, second); diff != "" {
		t.Errorf("LatestGeneration() diff = %s", diff)
	}

	byHash, err := db.GenerationByHash(ctx, "first")
	if err != nil {
		t.Fatalf("GenerationByHash() failed: %s", err)
	}
	if diff := cmp.Diff(byHash, first); diff != "" {
		t.Errorf("GenerationByHash() diff = %s", diff)
	}
	if _, err := db.GenerationByHash(ctx, "unknown"); !errors.Is(err, ErrNoGeneration) {
		t.Errorf("GenerationByHash() error = %v, want %v", err, ErrNoGeneration)
	}
}

func TestSaveGeneration_IsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	duplicateStops := *s
	duplicateStops.Stops = append([]schedule.Stop{}, s.Stops...)
	duplicateStops.Stops = append(duplicateStops.Stops, s.Stops[0])
	if _, err := db.SaveGeneration(ctx, &duplicateStops, "broken"); err == nil {
		t.Fatalf("SaveGeneration() with duplicate stops succeeded")
	}

	if _, err := db.LatestGeneration(ctx); !errors.Is(err, ErrNoGeneration) {
		t.Errorf("LatestGeneration() after failed save error = %v, want %v", err, ErrNoGeneration)
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM routes").Scan(&n); err != nil {
		t.Fatalf("failed to count routes: %s", err)
	}
	if n != 0 {
		t.Errorf("%d routes left after failed save", n)
	}
}

func TestLoadSchedule_UnknownGeneration(t *testing.T) {
	db := newDB(t)
	if _, err := db.LoadSchedule(context.Background(), uuid.New()); !errors.Is(err, ErrNoGeneration) {
		t.Errorf("LoadSchedule() error = %v, want %v", err, ErrNoGeneration)
	}
}
