// Package generator turns a parsed GTFS static feed into a display-ready schedule by running
// it through an agency's extension hooks.
package generator

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/yyctransit/gtfs"
	"github.com/yyctransit/gtfs/extensions"
	"github.com/yyctransit/gtfs/schedule"
)

// ErrNoAgency is returned for a feed without any agency.
var ErrNoAgency = errors.New("GTFS static feed has no agency")

type Options struct {
	// Now is the first day of the generated service window.
	Now time.Time
	// UsefulDays is the length of the service window in days. Zero or less keeps every service.
	UsefulDays int
}

// Generate builds the schedule. It either returns the complete schedule or an error; any
// error from an extension hook aborts the run.
func Generate(static *gtfs.Static, ext extensions.Extension, opts Options) (*schedule.Schedule, error) {
	serviceIDs := UsefulServiceIDs(static.Services, opts.Now, opts.UsefulDays)
	log.Printf("Found %d useful service IDs out of %d", len(serviceIDs), len(static.Services))

	g := generation{
		static:         static,
		ext:            ext,
		serviceIDs:     serviceIDs,
		routeIDToIndex: map[string]int{},
		tripIDToIndex:  map[int64]int{},
		tripIDToGTrips: map[int64][]*gtfs.ScheduledTrip{},
		usedStopIDs:    map[string]*gtfs.Stop{},
		opts:           opts,
		schedule:       &schedule.Schedule{},
	}
	for _, step := range []func() error{
		g.routes,
		g.trips,
		g.agency,
		g.stops,
		g.tripStops,
		g.serviceDates,
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	s := g.schedule
	log.Printf("Generated %d routes, %d trips, %d stops, %d trip stops and %d service dates",
		len(s.Routes), len(s.Trips), len(s.Stops), len(s.TripStops), len(s.ServiceDates))
	return s, nil
}

type generation struct {
	static     *gtfs.Static
	ext        extensions.Extension
	opts       Options
	serviceIDs map[string]bool

	// GTFS route ID to index in schedule.Routes
	routeIDToIndex map[string]int
	// generated trip ID to index in schedule.Trips
	tripIDToIndex  map[int64]int
	tripIDToGTrips map[int64][]*gtfs.ScheduledTrip
	usedStopIDs    map[string]*gtfs.Stop

	agencyCandidate *gtfs.Agency
	schedule        *schedule.Schedule
}

func (g *generation) routes() error {
	generatedIDToIndex := map[int64]int{}
	for i := range g.static.Routes {
		route := &g.static.Routes[i]
		if g.ext.ExcludeRoute(route) {
			continue
		}
		id, err := g.ext.RouteID(route)
		if err != nil {
			return err
		}
		if j, ok := generatedIDToIndex[id]; ok {
			// Several GTFS routes, usually from successive schedule versions, share one generated route.
			g.routeIDToIndex[route.Id] = j
			continue
		}
		longName, err := g.ext.RouteLongName(route)
		if err != nil {
			return err
		}
		color, err := g.ext.RouteColor(route, route.Agency)
		if err != nil {
			return err
		}
		if g.agencyCandidate == nil {
			g.agencyCandidate = route.Agency
		}
		generatedIDToIndex[id] = len(g.schedule.Routes)
		g.routeIDToIndex[route.Id] = len(g.schedule.Routes)
		g.schedule.Routes = append(g.schedule.Routes, schedule.Route{
			ID:        id,
			ShortName: route.ShortName,
			LongName:  longName,
			Color:     color,
		})
	}
	return nil
}

func (g *generation) trips() error {
	for i := range g.static.Trips {
		gTrip := &g.static.Trips[i]
		if gTrip.Service == nil || !g.serviceIDs[gTrip.Service.Id] {
			continue
		}
		routeIndex, ok := g.routeIDToIndex[gTrip.Route.Id]
		if !ok {
			continue
		}
		route := &g.schedule.Routes[routeIndex]
		directionID := gTrip.DirectionId.Int()
		if directionID < 0 {
			directionID = 0
		}
		tripID := schedule.TripID(route.ID, directionID)
		trip := schedule.Trip{
			ID:          tripID,
			RouteID:     route.ID,
			DirectionID: directionID,
		}
		// Every GTFS trip goes through the hook, so a trip the rule set rejects fails the run
		// wherever it is in the feed. Only the first trip's headsign is kept.
		if err := g.ext.SetTripHeadsign(route, &trip, gTrip); err != nil {
			return err
		}
		if _, ok := g.tripIDToIndex[tripID]; !ok {
			g.tripIDToIndex[tripID] = len(g.schedule.Trips)
			g.schedule.Trips = append(g.schedule.Trips, trip)
		}
		g.tripIDToGTrips[tripID] = append(g.tripIDToGTrips[tripID], gTrip)
		for _, stopTime := range gTrip.StopTimes {
			g.usedStopIDs[stopTime.Stop.Id] = stopTime.Stop
		}
	}
	sort.Slice(g.schedule.Trips, func(i, j int) bool {
		return g.schedule.Trips[i].ID < g.schedule.Trips[j].ID
	})
	sort.Slice(g.schedule.Routes, func(i, j int) bool {
		return g.schedule.Routes[i].ID < g.schedule.Routes[j].ID
	})
	return nil
}

func (g *generation) agency() error {
	agency := g.agencyCandidate
	if agency == nil {
		if len(g.static.Agencies) == 0 {
			return ErrNoAgency
		}
		agency = &g.static.Agencies[0]
	}
	g.schedule.Agency = schedule.Agency{
		ID:        agency.Id,
		Name:      agency.Name,
		Color:     g.ext.AgencyColor(),
		RouteType: g.ext.AgencyRouteType(),
		Timezone:  agency.Timezone,
	}
	return nil
}

func (g *generation) stops() error {
	for _, stop := range g.usedStopIDs {
		g.schedule.Stops = append(g.schedule.Stops, schedule.Stop{
			ID:                 stop.Id,
			Code:               stop.Code,
			Name:               g.ext.CleanStopName(stop.Name),
			Latitude:           unPtr(stop.Latitude),
			Longitude:          unPtr(stop.Longitude),
			WheelchairBoarding: stop.WheelchairBoarding,
		})
	}
	sort.Slice(g.schedule.Stops, func(i, j int) bool {
		return g.schedule.Stops[i].ID < g.schedule.Stops[j].ID
	})
	return nil
}

func unPtr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func (g *generation) tripStops() error {
	for _, trip := range g.schedule.Trips {
		stops := OrderTripStops(trip.ID, g.tripIDToGTrips[trip.ID], g.ext)
		for i, stop := range stops {
			g.schedule.TripStops = append(g.schedule.TripStops, schedule.TripStop{
				TripID:   trip.ID,
				StopID:   stop.Id,
				Sequence: i + 1,
			})
		}
	}
	return nil
}

func (g *generation) serviceDates() error {
	for i := range g.static.Services {
		service := &g.static.Services[i]
		if !g.serviceIDs[service.Id] {
			continue
		}
		from, to := window(service, g.opts)
		for _, date := range ServiceDates(service, from, to) {
			g.schedule.ServiceDates = append(g.schedule.ServiceDates, schedule.ServiceDate{
				ServiceID: service.Id,
				Date:      date,
			})
		}
	}
	sort.SliceStable(g.schedule.ServiceDates, func(i, j int) bool {
		a, b := g.schedule.ServiceDates[i], g.schedule.ServiceDates[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ServiceID < b.ServiceID
	})
	return nil
}
