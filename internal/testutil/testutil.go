package testutil

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// ZipBuilder assembles an in-memory GTFS static zip archive.
type ZipBuilder struct {
	m map[string]string
}

// NewZipBuilder returns a builder containing every file the parser requires, with headers only.
func NewZipBuilder() *ZipBuilder {
	return (&ZipBuilder{m: map[string]string{}}).Add(
		"agency.txt", "agency_id,agency_name,agency_url,agency_timezone",
	).Add(
		"routes.txt", "route_id,route_type",
	).Add(
		"stops.txt", "stop_id",
	).Add(
		"trips.txt", "route_id,service_id,trip_id",
	).Add(
		"stop_times.txt", "stop_id,trip_id,stop_sequence",
	)
}

// NewCTrainZipBuilder returns a small feed shaped like the Calgary Transit feed: one agency,
// the two CTrain lines plus a bus route, a weekday calendar and a handful of stops.
func NewCTrainZipBuilder() *ZipBuilder {
	return NewZipBuilder().Add(
		"agency.txt",
		"agency_id,agency_name,agency_url,agency_timezone",
		"CT,Calgary Transit,https://www.calgarytransit.com,America/Edmonton",
	).Add(
		"routes.txt",
		"route_id,agency_id,route_short_name,route_long_name,route_type,route_color",
		"201-20666,CT,201,,0,",
		"202-20666,CT,202,,0,",
		"3-20666,CT,3,Sandstone / Elbow Dr,3,",
	).Add(
		"stops.txt",
		"stop_id,stop_code,stop_name,stop_lat,stop_lon,wheelchair_boarding",
		"3627,3627,69 ST CTRAIN STATION,51.0404,-114.2171,1",
		"5741,5741,SUNALTA CTRAIN STATION,51.0477,-114.1004,1",
		"9781,9781,SADDLETOWNE CTRAIN STATION,51.1253,-113.9488,1",
		"6810,6810,TUSCANY CTRAIN STATION,51.1349,-114.2455,1",
		"6811,6811,SOMERSET-BRIDLEWOOD CTRAIN STATION,50.8986,-114.0700,1",
		"1001,1001,CENTRE ST @ 7 AVE SW,51.0459,-114.0630,0",
	).Add(
		"calendar.txt",
		"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
		"WKDY,1,1,1,1,1,0,0,20260101,20261231",
		"OLD,1,1,1,1,1,1,1,20200101,20201231",
	).Add(
		"trips.txt",
		"route_id,service_id,trip_id,trip_headsign,direction_id",
		"201-20666,WKDY,r0a,TUSCANY,0",
		"201-20666,WKDY,r1a,SOMERSET-BRIDLEWOOD,1",
		"202-20666,WKDY,b0a,SADDLETOWNE,0",
		"202-20666,WKDY,b1a,69 STREET,1",
		"202-20666,OLD,b0old,SADDLETOWNE,0",
		"3-20666,WKDY,bus,SANDSTONE,0",
	).Add(
		"stop_times.txt",
		"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
		"r0a,05:00:00,05:00:00,6811,1",
		"r0a,05:30:00,05:30:00,6810,2",
		"r1a,06:00:00,06:00:00,6810,1",
		"r1a,06:30:00,06:30:00,6811,2",
		"b0a,07:00:00,07:00:00,3627,1",
		"b0a,07:10:00,07:10:00,5741,2",
		"b0a,07:40:00,07:40:00,9781,3",
		"b1a,08:00:00,08:00:00,9781,1",
		"b1a,08:30:00,08:30:00,5741,2",
		"b1a,08:40:00,08:40:00,3627,3",
		"b0old,09:00:00,09:00:00,3627,1",
		"bus,10:00:00,10:00:00,1001,1",
	)
}

func (z *ZipBuilder) Add(fileName string, fileContent ...string) *ZipBuilder {
	z.m[fileName] = strings.Join(fileContent, "\n")
	return z
}

func (z *ZipBuilder) Remove(fileName string) *ZipBuilder {
	delete(z.m, fileName)
	return z
}

func (z *ZipBuilder) Build() []byte {
	var b bytes.Buffer
	zipWriter := zip.NewWriter(&b)
	for fileName, fileContent := range z.m {
		fileWriter, err := zipWriter.Create(fileName)
		if err != nil {
			panic(err)
		}
		if _, err := io.Copy(fileWriter, bytes.NewBufferString(fileContent)); err != nil {
			panic(err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		panic(err)
	}
	return b.Bytes()
}

func Ptr[T any](t T) *T {
	return &t
}
