// Package schedule contains the display-ready schedule produced by the generator.
package schedule

import (
	"time"

	"github.com/yyctransit/gtfs"
)

// Schedule is the complete output of one generation run.
type Schedule struct {
	Agency       Agency
	Routes       []Route
	Trips        []Trip
	Stops        []Stop
	TripStops    []TripStop
	ServiceDates []ServiceDate
}

type Agency struct {
	ID        string
	Name      string
	Color     string
	RouteType gtfs.RouteType
	Timezone  string
}

type Route struct {
	ID        int64
	ShortName string
	LongName  string
	Color     string
}

// Trip is one direction of a route. All GTFS trips of the route running in that direction are
// merged into it.
type Trip struct {
	ID          int64
	RouteID     int64
	DirectionID int
	Headsign    string
}

// TripID returns the ID of the generated trip for a route and direction.
func TripID(routeID int64, directionID int) int64 {
	return routeID*100 + int64(directionID)
}

type Stop struct {
	ID                 string
	Code               string
	Name               string
	Latitude           float64
	Longitude          float64
	WheelchairBoarding gtfs.WheelchairBoarding
}

// TripStop places a stop on a generated trip. Sequence starts at 1.
type TripStop struct {
	TripID   int64
	StopID   string
	Sequence int
}

type ServiceDate struct {
	ServiceID string
	Date      time.Time
}
