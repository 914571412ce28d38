// Package extensions defines the hooks an agency rule set plugs into the schedule generator.
package extensions

import (
	"fmt"
	"strconv"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/cleanup"
	"github.com/yyctransit/gtfs/schedule"
)

type Extension interface {
	// AgencyRouteType is the route type the agency is displayed as.
	AgencyRouteType() gtfs.RouteType

	AgencyColor() string

	// ExcludeRoute returns true if the route and all of its trips should be dropped.
	ExcludeRoute(route *gtfs.Route) bool

	RouteID(route *gtfs.Route) (int64, error)

	RouteLongName(route *gtfs.Route) (string, error)

	CleanRouteLongName(routeLongName string) string

	RouteColor(route *gtfs.Route, agency *gtfs.Agency) (string, error)

	// SetTripHeadsign sets the headsign of a generated trip from one of the GTFS trips grouped
	// into it. It is called for every GTFS trip and the headsign set for the first one is kept.
	SetTripHeadsign(route *schedule.Route, trip *schedule.Trip, gTrip *gtfs.ScheduledTrip) error

	CleanTripHeadsign(tripHeadsign string) string

	CleanStopName(stopName string) string

	// CompareTripStops may override the default relative order of two stops of a generated trip.
	CompareTripStops(tripID int64, a, b *gtfs.Stop) Order
}

// Order is the result of comparing two stops of the same trip.
type Order int

const (
	// OrderUnchanged defers to the default ordering.
	OrderUnchanged Order = 0
	// OrderBefore places the first stop before the second.
	OrderBefore Order = -1
	// OrderAfter places the first stop after the second.
	OrderAfter Order = 1
)

func (o Order) String() string {
	switch o {
	case OrderBefore:
		return "BEFORE"
	case OrderAfter:
		return "AFTER"
	default:
		return "UNCHANGED"
	}
}

func NoExtension() Extension {
	return NoExtensionImpl{}
}

// NoExtensionImpl provides the default behavior for every hook. Agency rule sets embed it and
// override what they need.
type NoExtensionImpl struct {
}

func (n NoExtensionImpl) AgencyRouteType() gtfs.RouteType {
	return gtfs.RouteType_Bus
}

func (n NoExtensionImpl) AgencyColor() string {
	return ""
}

func (n NoExtensionImpl) ExcludeRoute(route *gtfs.Route) bool {
	return false
}

func (n NoExtensionImpl) RouteID(route *gtfs.Route) (int64, error) {
	id, err := strconv.ParseInt(route.Id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("route ID %q is not numeric: %w", route.Id, err)
	}
	return id, nil
}

func (n NoExtensionImpl) RouteLongName(route *gtfs.Route) (string, error) {
	return n.CleanRouteLongName(route.LongName), nil
}

func (n NoExtensionImpl) CleanRouteLongName(routeLongName string) string {
	return cleanup.Label(routeLongName)
}

func (n NoExtensionImpl) RouteColor(route *gtfs.Route, agency *gtfs.Agency) (string, error) {
	return route.Color, nil
}

func (n NoExtensionImpl) SetTripHeadsign(route *schedule.Route, trip *schedule.Trip, gTrip *gtfs.ScheduledTrip) error {
	trip.Headsign = n.CleanTripHeadsign(gTrip.Headsign)
	return nil
}

func (n NoExtensionImpl) CleanTripHeadsign(tripHeadsign string) string {
	return cleanup.Label(tripHeadsign)
}

func (n NoExtensionImpl) CleanStopName(stopName string) string {
	return cleanup.Label(stopName)
}

func (n NoExtensionImpl) CompareTripStops(tripID int64, a, b *gtfs.Stop) Order {
	return OrderUnchanged
}
