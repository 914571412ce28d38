package schedule

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
)

// Hash calculates a hash of the schedule using the provided hash function.
//
// Two generations produce the same hash exactly when their output files would be identical.
func (s *Schedule) Hash(h hash.Hash) {
	w := hasher{h: h}
	w.schedule(s)
	w.flush()
}

type hasher struct {
	h hash.Hash
	b bytes.Buffer
}

func (h *hasher) flush() {
	h.h.Write(h.b.Bytes())
	h.b.Reset()
}

func (h *hasher) schedule(s *Schedule) {
	h.string(s.Agency.ID)
	h.string(s.Agency.Name)
	h.string(s.Agency.Color)
	h.number(int32(s.Agency.RouteType))
	h.string(s.Agency.Timezone)

	h.number(int64(len(s.Routes)))
	for i := range s.Routes {
		r := &s.Routes[i]
		h.number(r.ID)
		h.string(r.ShortName)
		h.string(r.LongName)
		h.string(r.Color)
	}
	h.number(int64(len(s.Trips)))
	for i := range s.Trips {
		t := &s.Trips[i]
		h.number(t.ID)
		h.number(t.RouteID)
		h.number(int64(t.DirectionID))
		h.string(t.Headsign)
	}
	h.number(int64(len(s.Stops)))
	for i := range s.Stops {
		stop := &s.Stops[i]
		h.string(stop.ID)
		h.string(stop.Code)
		h.string(stop.Name)
		h.number(stop.Latitude)
		h.number(stop.Longitude)
		h.number(int32(stop.WheelchairBoarding))
	}
	h.number(int64(len(s.TripStops)))
	for i := range s.TripStops {
		ts := &s.TripStops[i]
		h.number(ts.TripID)
		h.string(ts.StopID)
		h.number(int64(ts.Sequence))
	}
	h.number(int64(len(s.ServiceDates)))
	for i := range s.ServiceDates {
		sd := &s.ServiceDates[i]
		h.string(sd.ServiceID)
		h.number(sd.Date.Unix())
	}
}

func (h *hasher) string(s string) {
	h.number(uint64(len(s)))
	h.flush()
	h.h.Write([]byte(s))
}

func (h *hasher) number(a any) {
	err := binary.Write(&h.b, binary.LittleEndian, a)
	if err != nil {
		panic(fmt.Sprintf("failed to hash %T", a))
	}
}
