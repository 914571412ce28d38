// Package gtfs contains a parser for the parts of a GTFS static feed that the CTrain schedule
// generator consumes.
package gtfs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yyctransit/gtfs/constants"
	"github.com/yyctransit/gtfs/csv"
	"github.com/yyctransit/gtfs/warnings"
)

// Static contains the parsed content for a single GTFS static message.
type Static struct {
	Agencies []Agency
	Routes   []Route
	Stops    []Stop
	Services []Service
	Trips    []ScheduledTrip

	Warnings []warnings.StaticWarning
}

// Agency corresponds to a single row in the agency.txt file.
type Agency struct {
	Id       string
	Name     string
	Url      string
	Timezone string
	Language string
	Phone    string
}

// Route corresponds to a single row in the routes.txt file.
//
// Color and TextColor are empty when the feed does not set them.
type Route struct {
	Id          string
	Agency      *Agency
	Color       string
	TextColor   string
	ShortName   string
	LongName    string
	Description string
	Type        RouteType
	Url         string
	SortOrder   *int32
}

// Stop corresponds to a single row in the stops.txt file.
type Stop struct {
	Id                 string
	Code               string
	Name               string
	Description        string
	Longitude          *float64
	Latitude           *float64
	Type               StopType
	Parent             *Stop
	WheelchairBoarding WheelchairBoarding
	PlatformCode       string
}

func (stop *Stop) Root() *Stop {
	for {
		if stop.Parent == nil {
			return stop
		}
		stop = stop.Parent
	}
}

// Service is a row of calendar.txt merged with the matching rows of calendar_dates.txt.
type Service struct {
	Id           string
	Monday       bool
	Tuesday      bool
	Wednesday    bool
	Thursday     bool
	Friday       bool
	Saturday     bool
	Sunday       bool
	StartDate    time.Time
	EndDate      time.Time
	AddedDates   []time.Time
	RemovedDates []time.Time
}

// RunsOn reports whether the service operates on the given date.
func (s *Service) RunsOn(date time.Time) bool {
	date = truncateToDay(date)
	for _, d := range s.RemovedDates {
		if d.Equal(date) {
			return false
		}
	}
	for _, d := range s.AddedDates {
		if d.Equal(date) {
			return true
		}
	}
	if s.StartDate.IsZero() || date.Before(s.StartDate) || date.After(s.EndDate) {
		return false
	}
	switch date.Weekday() {
	case time.Monday:
		return s.Monday
	case time.Tuesday:
		return s.Tuesday
	case time.Wednesday:
		return s.Wednesday
	case time.Thursday:
		return s.Thursday
	case time.Friday:
		return s.Friday
	case time.Saturday:
		return s.Saturday
	default:
		return s.Sunday
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ScheduledTrip corresponds to a single row in the trips.txt file, with its stop times attached.
type ScheduledTrip struct {
	ID          string
	Route       *Route
	Service     *Service
	Headsign    string
	ShortName   string
	DirectionId DirectionID
	BlockID     string
	StopTimes   []ScheduledStopTime
}

// ScheduledStopTime corresponds to a single row in the stop_times.txt file.
type ScheduledStopTime struct {
	Stop          *Stop
	StopSequence  int
	ArrivalTime   time.Duration
	DepartureTime time.Duration
	Headsign      string
}

// ParseStatic parses the content as a GTFS static feed.
func ParseStatic(content []byte) (*Static, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	result := &Static{}
	fileNameToFile := map[string]*zip.File{}
	for _, file := range reader.File {
		fileNameToFile[file.Name] = file
	}
	for _, table := range []struct {
		fileName constants.StaticFile
		optional bool
		action   func(file *csv.File)
	}{
		{
			fileName: constants.AgencyFile,
			action: func(file *csv.File) {
				result.Agencies = parseAgencies(file, result)
			},
		},
		{
			fileName: constants.RoutesFile,
			action: func(file *csv.File) {
				result.Routes = parseRoutes(file, result)
			},
		},
		{
			fileName: constants.StopsFile,
			action: func(file *csv.File) {
				result.Stops = parseStops(file, result)
			},
		},
		{
			fileName: constants.CalendarFile,
			optional: true,
			action: func(file *csv.File) {
				result.Services = parseCalendar(file, result)
			},
		},
		{
			fileName: constants.CalendarDatesFile,
			optional: true,
			action: func(file *csv.File) {
				result.Services = parseCalendarDates(file, result)
			},
		},
		{
			fileName: constants.TripsFile,
			action: func(file *csv.File) {
				result.Trips = parseTrips(file, result)
			},
		},
		{
			fileName: constants.StopTimesFile,
			action: func(file *csv.File) {
				parseStopTimes(file, result)
			},
		},
	} {
		zipFile := fileNameToFile[string(table.fileName)]
		if zipFile == nil {
			if table.optional {
				continue
			}
			return nil, fmt.Errorf("no %q file in GTFS static feed", table.fileName)
		}
		if err := readCsvFile(zipFile, table.fileName, table.action); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func readCsvFile(zipFile *zip.File, fileName constants.StaticFile, action func(file *csv.File)) error {
	content, err := zipFile.Open()
	if err != nil {
		return err
	}
	f, err := csv.New(fileName, content)
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", fileName, err)
	}
	action(f)
	if missing := f.MissingRequiredColumns(); len(missing) > 0 {
		f.Close()
		return fmt.Errorf("%q is missing required columns %s", fileName, missing)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to read %q: %w", fileName, err)
	}
	return nil
}

func (s *Static) warn(w warnings.StaticWarning) {
	log.Printf("%s: %s", w.File(), w.Error())
	s.Warnings = append(s.Warnings, w)
}

func (s *Static) warnMissingKeys(file *csv.File, entity constants.ScheduleEnity) bool {
	missingKeys := file.MissingRowKeys()
	if len(missingKeys) == 0 {
		return false
	}
	s.warn(warnings.MissingColumns{
		FileName:    file.Name(),
		Entity:      entity,
		RowNumber:   file.RowNumber(),
		MissingKeys: missingKeys,
	})
	return true
}

func parseAgencies(file *csv.File, s *Static) []Agency {
	idColumn := file.OptionalColumn("agency_id")
	nameColumn := file.RequiredColumn("agency_name")
	urlColumn := file.RequiredColumn("agency_url")
	timezoneColumn := file.RequiredColumn("agency_timezone")
	languageColumn := file.OptionalColumn("agency_lang")
	phoneColumn := file.OptionalColumn("agency_phone")

	var agencies []Agency
	for file.NextRow() {
		agency := Agency{
			Name:     nameColumn.Read(),
			Url:      urlColumn.Read(),
			Timezone: timezoneColumn.Read(),
			Language: languageColumn.Read(),
			Phone:    phoneColumn.Read(),
		}
		agency.Id = idColumn.ReadOr(fmt.Sprintf("%s_id", agency.Name))
		if s.warnMissingKeys(file, constants.Agency) {
			continue
		}
		agencies = append(agencies, agency)
	}
	return agencies
}

func parseRoutes(file *csv.File, s *Static) []Route {
	idColumn := file.RequiredColumn("route_id")
	agencyIdColumn := file.OptionalColumn("agency_id")
	colorColumn := file.OptionalColumn("route_color")
	textColorColumn := file.OptionalColumn("route_text_color")
	shortNameColumn := file.OptionalColumn("route_short_name")
	longNameColumn := file.OptionalColumn("route_long_name")
	descriptionColumn := file.OptionalColumn("route_desc")
	typeColumn := file.RequiredColumn("route_type")
	urlColumn := file.OptionalColumn("route_url")
	sortOrderColumn := file.OptionalColumn("route_sort_order")

	var routes []Route
	for file.NextRow() {
		routeId := idColumn.Read()
		agencyId := agencyIdColumn.Read()
		var agency *Agency
		if agencyId != "" {
			for i := range s.Agencies {
				if s.Agencies[i].Id == agencyId {
					agency = &s.Agencies[i]
					break
				}
			}
			if agency == nil {
				s.warn(warnings.InvalidReference{
					FileName:  file.Name(),
					Entity:    constants.Route,
					RowNumber: file.RowNumber(),
					Key:       "agency_id",
					Value:     agencyId,
				})
				continue
			}
		} else if len(s.Agencies) == 1 {
			// In GTFS static if there is a single agency, a route's agency ID field can be omitted in
			// which case the route's agency is the unique agency in the feed.
			agency = &s.Agencies[0]
		} else {
			log.Printf("skipping route %s: no agency ID provided but no unique agency", routeId)
			continue
		}
		route := Route{
			Id:          routeId,
			Agency:      agency,
			Color:       strings.ToUpper(colorColumn.Read()),
			TextColor:   strings.ToUpper(textColorColumn.Read()),
			ShortName:   shortNameColumn.Read(),
			LongName:    longNameColumn.Read(),
			Description: descriptionColumn.Read(),
			Type:        parseRouteType(typeColumn.Read()),
			Url:         urlColumn.Read(),
			SortOrder:   parseInt32(sortOrderColumn.Read()),
		}
		if s.warnMissingKeys(file, constants.Route) {
			continue
		}
		routes = append(routes, route)
	}
	return routes
}

func parseStops(file *csv.File, s *Static) []Stop {
	idColumn := file.RequiredColumn("stop_id")
	codeColumn := file.OptionalColumn("stop_code")
	nameColumn := file.OptionalColumn("stop_name")
	descriptionColumn := file.OptionalColumn("stop_desc")
	lonColumn := file.OptionalColumn("stop_lon")
	latColumn := file.OptionalColumn("stop_lat")
	typeColumn := file.OptionalColumn("location_type")
	parentColumn := file.OptionalColumn("parent_station")
	wheelchairColumn := file.OptionalColumn("wheelchair_boarding")
	platformCodeColumn := file.OptionalColumn("platform_code")

	var stops []Stop
	stopIdToIndex := map[string]int{}
	stopIdToParent := map[string]string{}
	for file.NextRow() {
		parentStopId := parentColumn.Read()
		stop := Stop{
			Id:                 idColumn.Read(),
			Code:               codeColumn.Read(),
			Name:               nameColumn.Read(),
			Description:        descriptionColumn.Read(),
			Longitude:          parseFloat64(lonColumn.Read()),
			Latitude:           parseFloat64(latColumn.Read()),
			Type:               parseStopType(typeColumn.Read(), parentStopId != ""),
			WheelchairBoarding: parseWheelchairBoarding(wheelchairColumn.Read()),
			PlatformCode:       platformCodeColumn.Read(),
		}
		if s.warnMissingKeys(file, constants.Stop) {
			continue
		}
		stopIdToIndex[stop.Id] = len(stops)
		if parentStopId != "" {
			stopIdToParent[stop.Id] = parentStopId
		}
		stops = append(stops, stop)
	}
	for stopId, parentStopId := range stopIdToParent {
		parentStopIndex, ok := stopIdToIndex[parentStopId]
		if !ok {
			continue
		}
		stops[stopIdToIndex[stopId]].Parent = &stops[parentStopIndex]
	}
	return stops
}

func parseCalendar(file *csv.File, s *Static) []Service {
	idColumn := file.RequiredColumn("service_id")
	dayColumns := [7]csv.RequiredColumn{
		file.RequiredColumn("monday"),
		file.RequiredColumn("tuesday"),
		file.RequiredColumn("wednesday"),
		file.RequiredColumn("thursday"),
		file.RequiredColumn("friday"),
		file.RequiredColumn("saturday"),
		file.RequiredColumn("sunday"),
	}
	startDateColumn := file.RequiredColumn("start_date")
	endDateColumn := file.RequiredColumn("end_date")

	var services []Service
	for file.NextRow() {
		var days [7]bool
		for i, column := range dayColumns {
			days[i] = column.Read() == "1"
		}
		service := Service{
			Id:        idColumn.Read(),
			Monday:    days[0],
			Tuesday:   days[1],
			Wednesday: days[2],
			Thursday:  days[3],
			Friday:    days[4],
			Saturday:  days[5],
			Sunday:    days[6],
		}
		rawStartDate := startDateColumn.Read()
		rawEndDate := endDateColumn.Read()
		if s.warnMissingKeys(file, constants.Service) {
			continue
		}
		var err error
		if service.StartDate, err = parseDate(rawStartDate); err != nil {
			s.warnInvalidValue(file, constants.Service, "start_date", rawStartDate)
			continue
		}
		if service.EndDate, err = parseDate(rawEndDate); err != nil {
			s.warnInvalidValue(file, constants.Service, "end_date", rawEndDate)
			continue
		}
		services = append(services, service)
	}
	return services
}

func parseCalendarDates(file *csv.File, s *Static) []Service {
	services := s.Services
	idColumn := file.RequiredColumn("service_id")
	dateColumn := file.RequiredColumn("date")
	exceptionTypeColumn := file.RequiredColumn("exception_type")

	serviceIdToIndex := map[string]int{}
	for i := range services {
		serviceIdToIndex[services[i].Id] = i
	}
	for file.NextRow() {
		serviceId := idColumn.Read()
		rawDate := dateColumn.Read()
		exceptionType := parseExceptionType(exceptionTypeColumn.Read())
		if s.warnMissingKeys(file, constants.CalendarDate) {
			continue
		}
		date, err := parseDate(rawDate)
		if err != nil {
			s.warnInvalidValue(file, constants.CalendarDate, "date", rawDate)
			continue
		}
		i, ok := serviceIdToIndex[serviceId]
		if !ok {
			i = len(services)
			serviceIdToIndex[serviceId] = i
			services = append(services, Service{Id: serviceId})
		}
		switch exceptionType {
		case ExceptionType_Added:
			services[i].AddedDates = append(services[i].AddedDates, date)
		case ExceptionType_Removed:
			services[i].RemovedDates = append(services[i].RemovedDates, date)
		default:
			s.warnInvalidValue(file, constants.CalendarDate, "exception_type", exceptionType.String())
		}
	}
	return services
}

func parseTrips(file *csv.File, s *Static) []ScheduledTrip {
	routeIdColumn := file.RequiredColumn("route_id")
	serviceIdColumn := file.RequiredColumn("service_id")
	idColumn := file.RequiredColumn("trip_id")
	headsignColumn := file.OptionalColumn("trip_headsign")
	shortNameColumn := file.OptionalColumn("trip_short_name")
	directionIdColumn := file.OptionalColumn("direction_id")
	blockIdColumn := file.OptionalColumn("block_id")

	routeIdToRoute := map[string]*Route{}
	for i := range s.Routes {
		routeIdToRoute[s.Routes[i].Id] = &s.Routes[i]
	}
	serviceIdToService := map[string]*Service{}
	for i := range s.Services {
		serviceIdToService[s.Services[i].Id] = &s.Services[i]
	}

	var trips []ScheduledTrip
	for file.NextRow() {
		routeId := routeIdColumn.Read()
		serviceId := serviceIdColumn.Read()
		trip := ScheduledTrip{
			ID:          idColumn.Read(),
			Headsign:    headsignColumn.Read(),
			ShortName:   shortNameColumn.Read(),
			DirectionId: parseDirectionID(directionIdColumn.Read()),
			BlockID:     blockIdColumn.Read(),
		}
		if s.warnMissingKeys(file, constants.Trip) {
			continue
		}
		route, ok := routeIdToRoute[routeId]
		if !ok {
			s.warnInvalidReference(file, constants.Trip, "route_id", routeId)
			continue
		}
		service, ok := serviceIdToService[serviceId]
		if !ok {
			s.warnInvalidReference(file, constants.Trip, "service_id", serviceId)
			continue
		}
		trip.Route = route
		trip.Service = service
		trips = append(trips, trip)
	}
	return trips
}

func parseStopTimes(file *csv.File, s *Static) {
	tripIdColumn := file.RequiredColumn("trip_id")
	stopIdColumn := file.RequiredColumn("stop_id")
	stopSequenceColumn := file.RequiredColumn("stop_sequence")
	arrivalTimeColumn := file.OptionalColumn("arrival_time")
	departureTimeColumn := file.OptionalColumn("departure_time")
	headsignColumn := file.OptionalColumn("stop_headsign")

	tripIdToIndex := map[string]int{}
	for i := range s.Trips {
		tripIdToIndex[s.Trips[i].ID] = i
	}
	stopIdToStop := map[string]*Stop{}
	for i := range s.Stops {
		stopIdToStop[s.Stops[i].Id] = &s.Stops[i]
	}
	for file.NextRow() {
		tripId := tripIdColumn.Read()
		stopId := stopIdColumn.Read()
		rawStopSequence := stopSequenceColumn.Read()
		rawArrivalTime := arrivalTimeColumn.Read()
		rawDepartureTime := departureTimeColumn.ReadOr(rawArrivalTime)
		headsign := headsignColumn.Read()
		if s.warnMissingKeys(file, constants.StopTime) {
			continue
		}
		tripIndex, ok := tripIdToIndex[tripId]
		if !ok {
			// Trips referencing unknown routes or services were already reported.
			continue
		}
		stop, ok := stopIdToStop[stopId]
		if !ok {
			s.warnInvalidReference(file, constants.StopTime, "stop_id", stopId)
			continue
		}
		stopSequence, err := strconv.Atoi(rawStopSequence)
		if err != nil {
			s.warnInvalidValue(file, constants.StopTime, "stop_sequence", rawStopSequence)
			continue
		}
		if rawArrivalTime == "" {
			rawArrivalTime = rawDepartureTime
		}
		trip := &s.Trips[tripIndex]
		trip.StopTimes = append(trip.StopTimes, ScheduledStopTime{
			Stop:          stop,
			StopSequence:  stopSequence,
			ArrivalTime:   parseTime(rawArrivalTime),
			DepartureTime: parseTime(rawDepartureTime),
			Headsign:      headsign,
		})
	}
	for i := range s.Trips {
		stopTimes := s.Trips[i].StopTimes
		sort.SliceStable(stopTimes, func(a, b int) bool {
			return stopTimes[a].StopSequence < stopTimes[b].StopSequence
		})
	}
}

func (s *Static) warnInvalidReference(file *csv.File, entity constants.ScheduleEnity, key, value string) {
	s.warn(warnings.InvalidReference{
		FileName:  file.Name(),
		Entity:    entity,
		RowNumber: file.RowNumber(),
		Key:       key,
		Value:     value,
	})
}

func (s *Static) warnInvalidValue(file *csv.File, entity constants.ScheduleEnity, key, value string) {
	s.warn(warnings.InvalidValue{
		FileName:  file.Name(),
		Entity:    entity,
		RowNumber: file.RowNumber(),
		Key:       key,
		Value:     value,
	})
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("20060102", strings.TrimSpace(raw))
}

// parseTime parses a GTFS time of day, which may exceed 24:00:00 for trips running past midnight.
func parseTime(raw string) time.Duration {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return 0
	}
	var d time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0
		}
		d += time.Duration(n) * unit
	}
	return d
}

func parseInt32(raw string) *int32 {
	if raw == "" {
		return nil
	}
	i, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil
	}
	i32 := int32(i)
	return &i32
}

func parseFloat64(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
