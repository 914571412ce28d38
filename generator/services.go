package generator

import (
	"time"

	"github.com/yyctransit/gtfs"
)

// UsefulServiceIDs returns the IDs of the services that run on at least one day in
// [now, now+days). When days is not positive every service is useful.
//
// The returned set is the only input the generator uses to decide whether a trip or a
// service date is kept.
func UsefulServiceIDs(services []gtfs.Service, now time.Time, days int) map[string]bool {
	ids := map[string]bool{}
	for i := range services {
		service := &services[i]
		if days <= 0 {
			ids[service.Id] = true
			continue
		}
		from, to := window(service, Options{Now: now, UsefulDays: days})
		if len(ServiceDates(service, from, to)) > 0 {
			ids[service.Id] = true
		}
	}
	return ids
}

// ServiceDates returns the days in [from, to) on which the service runs, in order.
func ServiceDates(service *gtfs.Service, from, to time.Time) []time.Time {
	var dates []time.Time
	for d := day(from); d.Before(to); d = d.AddDate(0, 0, 1) {
		if service.RunsOn(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// window returns the range of days considered for the service. Without a useful-days
// limit it is the service's own range, extended to cover its added dates.
func window(service *gtfs.Service, opts Options) (time.Time, time.Time) {
	if opts.UsefulDays > 0 {
		from := day(opts.Now)
		return from, from.AddDate(0, 0, opts.UsefulDays)
	}
	from, to := service.StartDate, service.EndDate
	for _, d := range service.AddedDates {
		if from.IsZero() || d.Before(from) {
			from = d
		}
		if d.After(to) {
			to = d
		}
	}
	if from.IsZero() {
		return from, from
	}
	return day(from), day(to).AddDate(0, 0, 1)
}

// day returns the calendar day of t, in t's location, as a UTC midnight like the parsed feed
// dates.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
