// Package calgarytrain contains the Calgary Transit CTrain rules for the schedule generator.
//
// The feed declares the two CTrain lines as light rail; they are displayed as trains. The
// network is closed: any route code or direction outside the known two lines fails the run
// rather than producing a guessed label.
package calgarytrain

import (
	"fmt"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/cleanup"
	"github.com/yyctransit/gtfs/extensions"
	"github.com/yyctransit/gtfs/schedule"
)

// Extension returns the CTrain rule set.
func Extension() extensions.Extension {
	return extension{}
}

type extension struct {
	extensions.NoExtensionImpl
}

func (e extension) AgencyRouteType() gtfs.RouteType {
	return gtfs.RouteType_Rail
}

func (e extension) AgencyColor() string {
	return AgencyColor
}

func (e extension) ExcludeRoute(route *gtfs.Route) bool {
	return route.Type != gtfs.RouteType_LightRail
}

// RouteID uses the route short name as the route ID.
func (e extension) RouteID(route *gtfs.Route) (int64, error) {
	code, err := ParseRouteCode(route.ShortName)
	if err != nil {
		return 0, fmt.Errorf("unexpected route ID for %s: %w", describeRoute(route), err)
	}
	return code, nil
}

func (e extension) RouteLongName(route *gtfs.Route) (string, error) {
	if route.LongName != "" {
		return e.CleanRouteLongName(route.LongName), nil
	}
	line, err := ParseLine(route.ShortName)
	if err != nil {
		return "", fmt.Errorf("unexpected route long name for %s: %w", describeRoute(route), err)
	}
	return line.LongName(), nil
}

func (e extension) CleanRouteLongName(routeLongName string) string {
	return cleanup.Chain(routeLongName, RouteLongNameRules...)
}

func (e extension) RouteColor(route *gtfs.Route, agency *gtfs.Agency) (string, error) {
	if route.Color != "" {
		return route.Color, nil
	}
	line, err := ParseLine(route.ShortName)
	if err != nil {
		return "", fmt.Errorf("unexpected route color for %s: %w", describeRoute(route), err)
	}
	return line.Color(), nil
}

func (e extension) SetTripHeadsign(route *schedule.Route, trip *schedule.Trip, gTrip *gtfs.ScheduledTrip) error {
	line, err := LineFromCode(route.ID)
	if err != nil {
		return fmt.Errorf("unexpected trip %s: %w", describeTrip(gTrip), err)
	}
	headsign, err := line.Headsign(gTrip.DirectionId.Int())
	if err != nil {
		return fmt.Errorf("unexpected trip %s: %w", describeTrip(gTrip), err)
	}
	trip.Headsign = headsign
	return nil
}

func (e extension) CleanTripHeadsign(tripHeadsign string) string {
	return cleanup.Chain(tripHeadsign, TripHeadsignRules...)
}

func (e extension) CleanStopName(stopName string) string {
	return cleanup.Chain(stopName, StopNameRules...)
}

// In the feed, the first station of each blue line trip is listed in the wrong position
// relative to the other terminal. These two stops are forced after every other stop of
// their trip. Nothing else is reordered.
const (
	tripIDBlueSaddletowne = int64(BlueLine)*100 + 0
	stopCode69St          = "3627"

	tripIDBlue69St      = int64(BlueLine)*100 + 1
	stopCodeSaddletowne = "9781"
)

func (e extension) CompareTripStops(tripID int64, a, b *gtfs.Stop) extensions.Order {
	var stopCode string
	switch tripID {
	case tripIDBlueSaddletowne:
		stopCode = stopCode69St
	case tripIDBlue69St:
		stopCode = stopCodeSaddletowne
	default:
		return extensions.OrderUnchanged
	}
	switch {
	case a.Code == stopCode && b.Code == stopCode:
		return extensions.OrderUnchanged
	case a.Code == stopCode:
		return extensions.OrderAfter
	case b.Code == stopCode:
		return extensions.OrderBefore
	}
	return extensions.OrderUnchanged
}

func describeRoute(route *gtfs.Route) string {
	return fmt.Sprintf("route{id=%q short_name=%q long_name=%q type=%s color=%q}",
		route.Id, route.ShortName, route.LongName, route.Type, route.Color)
}

func describeTrip(trip *gtfs.ScheduledTrip) string {
	var routeID string
	if trip.Route != nil {
		routeID = trip.Route.Id
	}
	return fmt.Sprintf("trip{id=%q route_id=%q direction_id=%s headsign=%q}",
		trip.ID, routeID, trip.DirectionId, trip.Headsign)
}
