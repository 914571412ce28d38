// Package store persists generated schedules in a SQLite database.
//
// Every run of the generator that is saved becomes a generation, identified by a random UUID.
// All rows of a schedule are keyed by the ID of the generation they belong to.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/schedule"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoGeneration is returned when the database contains no matching generation.
var ErrNoGeneration = errors.New("no generation found")

const dateLayout = "20060102"

// DB wraps a SQLite database connection with write serialization
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex
	now     func() time.Time
}

// Generation describes one saved run of the generator.
type Generation struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Hash      string
}

// Connect opens the SQLite database at the given path, creating it if needed.
func Connect(dbPath string) (*DB, error) {
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer at a time
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("Connected to SQLite database: %s", dbPath)
	return &DB{conn: conn, now: time.Now}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates the tables if they don't exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()
	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveGeneration stores the schedule as a new generation. Either the whole schedule is
// stored or nothing is.
func (db *DB) SaveGeneration(ctx context.Context, s *schedule.Schedule, hash string) (*Generation, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	generation := &Generation{
		ID:        uuid.New(),
		CreatedAt: db.now().UTC(),
		Hash:      hash,
	}
	id := generation.ID.String()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO generations (id, created_at, hash, agency_id, agency_name, agency_color, agency_route_type, agency_timezone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, generation.CreatedAt.Format(time.RFC3339Nano), hash,
		s.Agency.ID, s.Agency.Name, s.Agency.Color, int32(s.Agency.RouteType), s.Agency.Timezone,
	); err != nil {
		return nil, fmt.Errorf("failed to insert generation: %w", err)
	}

	for _, table := range []struct {
		name  string
		query string
		n     int
		args  func(i int) []any
	}{
		{
			name:  "routes",
			query: `INSERT INTO routes (generation_id, route_id, short_name, long_name, color) VALUES (?, ?, ?, ?, ?)`,
			n:     len(s.Routes),
			args: func(i int) []any {
				r := &s.Routes[i]
				return []any{id, r.ID, r.ShortName, r.LongName, r.Color}
			},
		},
		{
			name:  "trips",
			query: `INSERT INTO trips (generation_id, trip_id, route_id, direction_id, headsign) VALUES (?, ?, ?, ?, ?)`,
			n:     len(s.Trips),
			args: func(i int) []any {
				t := &s.Trips[i]
				return []any{id, t.ID, t.RouteID, t.DirectionID, t.Headsign}
			},
		},
		{
			name: "stops",
			query: `INSERT INTO stops (generation_id, stop_id, code, name, latitude, longitude, wheelchair_boarding)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n: len(s.Stops),
			args: func(i int) []any {
				st := &s.Stops[i]
				return []any{id, st.ID, st.Code, st.Name, st.Latitude, st.Longitude, int32(st.WheelchairBoarding)}
			},
		},
		{
			name:  "trip_stops",
			query: `INSERT INTO trip_stops (generation_id, trip_id, stop_id, sequence) VALUES (?, ?, ?, ?)`,
			n:     len(s.TripStops),
			args: func(i int) []any {
				ts := &s.TripStops[i]
				return []any{id, ts.TripID, ts.StopID, ts.Sequence}
			},
		},
		{
			name:  "service_dates",
			query: `INSERT INTO service_dates (generation_id, service_id, date) VALUES (?, ?, ?)`,
			n:     len(s.ServiceDates),
			args: func(i int) []any {
				sd := &s.ServiceDates[i]
				return []any{id, sd.ServiceID, sd.Date.Format(dateLayout)}
			},
		},
	} {
		if err := insertAll(ctx, tx, table.query, table.n, table.args); err != nil {
			return nil, fmt.Errorf("failed to insert %s: %w", table.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit generation: %w", err)
	}
	log.Printf("Saved generation %s with %d routes, %d trips and %d stops",
		id, len(s.Routes), len(s.Trips), len(s.Stops))
	return generation, nil
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// LatestGeneration returns the most recently saved generation.
func (db *DB) LatestGeneration(ctx context.Context) (*Generation, error) {
	return db.queryGeneration(ctx, `
		SELECT id, created_at, hash FROM generations ORDER BY created_at DESC, rowid DESC LIMIT 1
	`)
}

// GenerationByHash returns the most recent generation with the given schedule hash.
func (db *DB) GenerationByHash(ctx context.Context, hash string) (*Generation, error) {
	return db.queryGeneration(ctx, `
		SELECT id, created_at, hash FROM generations WHERE hash = ? ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, hash)
}

func (db *DB) queryGeneration(ctx context.Context, query string, args ...any) (*Generation, error) {
	var id, createdAt, hash string
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&id, &createdAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoGeneration
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query generation: %w", err)
	}
	return parseGeneration(id, createdAt, hash)
}

func parseGeneration(id, createdAt, hash string) (*Generation, error) {
	generationID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid generation ID %q: %w", id, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid creation time %q for generation %s: %w", createdAt, id, err)
	}
	return &Generation{ID: generationID, CreatedAt: t, Hash: hash}, nil
}

// LoadSchedule reads back the schedule of a generation, in the same order the generator
// produces it.
func (db *DB) LoadSchedule(ctx context.Context, generationID uuid.UUID) (*schedule.Schedule, error) {
	id := generationID.String()
	s := &schedule.Schedule{}

	var routeType int32
	err := db.conn.QueryRowContext(ctx, `
		SELECT agency_id, agency_name, agency_color, agency_route_type, agency_timezone
		FROM generations WHERE id = ?
	`, id).Scan(&s.Agency.ID, &s.Agency.Name, &s.Agency.Color, &routeType, &s.Agency.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoGeneration, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query generation %s: %w", id, err)
	}
	s.Agency.RouteType = gtfs.RouteType(routeType)

	if err := queryRows(ctx, db.conn, `
		SELECT route_id, short_name, long_name, color FROM routes WHERE generation_id = ? ORDER BY route_id
	`, id, func(rows *sql.Rows) error {
		var r schedule.Route
		if err := rows.Scan(&r.ID, &r.ShortName, &r.LongName, &r.Color); err != nil {
			return err
		}
		s.Routes = append(s.Routes, r)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	if err := queryRows(ctx, db.conn, `
		SELECT trip_id, route_id, direction_id, headsign FROM trips WHERE generation_id = ? ORDER BY trip_id
	`, id, func(rows *sql.Rows) error {
		var t schedule.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.DirectionID, &t.Headsign); err != nil {
			return err
		}
		s.Trips = append(s.Trips, t)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	if err := queryRows(ctx, db.conn, `
		SELECT stop_id, code, name, latitude, longitude, wheelchair_boarding
		FROM stops WHERE generation_id = ? ORDER BY stop_id
	`, id, func(rows *sql.Rows) error {
		var st schedule.Stop
		var wheelchairBoarding int32
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.Latitude, &st.Longitude, &wheelchairBoarding); err != nil {
			return err
		}
		st.WheelchairBoarding = gtfs.WheelchairBoarding(wheelchairBoarding)
		s.Stops = append(s.Stops, st)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load stops: %w", err)
	}

	if err := queryRows(ctx, db.conn, `
		SELECT trip_id, stop_id, sequence FROM trip_stops WHERE generation_id = ? ORDER BY trip_id, sequence
	`, id, func(rows *sql.Rows) error {
		var ts schedule.TripStop
		if err := rows.Scan(&ts.TripID, &ts.StopID, &ts.Sequence); err != nil {
			return err
		}
		s.TripStops = append(s.TripStops, ts)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load trip stops: %w", err)
	}

	if err := queryRows(ctx, db.conn, `
		SELECT service_id, date FROM service_dates WHERE generation_id = ? ORDER BY date, service_id
	`, id, func(rows *sql.Rows) error {
		var sd schedule.ServiceDate
		var date string
		if err := rows.Scan(&sd.ServiceID, &date); err != nil {
			return err
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return fmt.Errorf("invalid service date %q: %w", date, err)
		}
		sd.Date = t
		s.ServiceDates = append(s.ServiceDates, sd)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load service dates: %w", err)
	}
	return s, nil
}

func queryRows(ctx context.Context, conn *sql.DB, query string, id string, scan func(rows *sql.Rows) error) error {
	rows, err := conn.QueryContext(ctx, query, id)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
