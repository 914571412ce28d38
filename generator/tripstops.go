package generator

import (
	"sort"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/extensions"
)

type tripStop struct {
	stop *gtfs.Stop
	// smallest index of the stop across all of the GTFS trips merged into the trip
	position int
}

// OrderTripStops merges the stop lists of the GTFS trips that make up a generated trip into
// a single ordered list.
//
// Stops are ordered by their earliest position in any of the trips, then by stop ID. The
// extension can override the order of any pair of stops.
func OrderTripStops(tripID int64, gTrips []*gtfs.ScheduledTrip, ext extensions.Extension) []*gtfs.Stop {
	var tripStops []*tripStop
	stopIDToTripStop := map[string]*tripStop{}
	for _, gTrip := range gTrips {
		for i, stopTime := range gTrip.StopTimes {
			ts, ok := stopIDToTripStop[stopTime.Stop.Id]
			if !ok {
				ts = &tripStop{stop: stopTime.Stop, position: i}
				stopIDToTripStop[stopTime.Stop.Id] = ts
				tripStops = append(tripStops, ts)
				continue
			}
			if i < ts.position {
				ts.position = i
			}
		}
	}
	sort.SliceStable(tripStops, func(i, j int) bool {
		a, b := tripStops[i], tripStops[j]
		switch ext.CompareTripStops(tripID, a.stop, b.stop) {
		case extensions.OrderBefore:
			return true
		case extensions.OrderAfter:
			return false
		}
		if a.position != b.position {
			return a.position < b.position
		}
		return a.stop.Id < b.stop.Id
	})
	var stops []*gtfs.Stop
	for _, ts := range tripStops {
		stops = append(stops, ts.stop)
	}
	return stops
}
