package constants

type StaticFile string

const (
	AgencyFile        StaticFile = "agency.txt"
	RoutesFile        StaticFile = "routes.txt"
	StopsFile         StaticFile = "stops.txt"
	TripsFile         StaticFile = "trips.txt"
	StopTimesFile     StaticFile = "stop_times.txt"
	CalendarFile      StaticFile = "calendar.txt"
	CalendarDatesFile StaticFile = "calendar_dates.txt"
)

type ScheduleEnity string

const (
	Agency       ScheduleEnity = "agency"
	Route        ScheduleEnity = "route"
	Stop         ScheduleEnity = "stop"
	Trip         ScheduleEnity = "trip"
	StopTime     ScheduleEnity = "stop_time"
	Service      ScheduleEnity = "service"
	CalendarDate ScheduleEnity = "calendar_date"
)
