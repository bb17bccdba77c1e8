package timetable

import (
	"errors"
	"time"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

// Skip reasons for candidate journeys. Every one is an expected outcome of
// scanning the whole extract, not a fault.
var (
	ErrNoRoute         = errors.New("no matching route corridor")
	ErrCrossingListed  = errors.New("crossing in calling pattern, direct detection applies")
	ErrNotThrough      = errors.New("endpoints do not form a known through service")
	ErrBracketMissing  = errors.New("bracket station not in calling pattern")
	ErrBracketTimeless = errors.New("bracket station has no resolvable time")
	ErrOutsideHorizon  = errors.New("estimated pass time outside horizon")
)

// Inferencer estimates pass times for journeys that run over the crossing
// without calling there: classify the corridor, interpolate between the two
// bracket stations, then apply the fixed calibration offset for that route
// and direction.
type Inferencer struct {
	Tiploc      string
	Horizon     time.Duration
	Grace       time.Duration
	Calibration CalibrationTable
}

// Infer produces a passing Train for a candidate journey, or a skip reason.
func (i *Inferencer) Infer(journey *Journey, now time.Time) (*trains.Train, error) {
	key, ok := ClassifyRoute(journey)
	if !ok {
		return nil, ErrNoRoute
	}

	if journey.Location(i.Tiploc) != nil {
		return nil, ErrCrossingListed
	}

	if !IsThroughService(journey) {
		return nil, ErrNotThrough
	}

	before, after := BracketLocations(journey, key)
	if before == nil || after == nil {
		return nil, ErrBracketMissing
	}

	beforeValue := firstNonEmpty(before.PublicDeparture, before.PublicArrival, before.WorkingDeparture, before.WorkingArrival)
	afterValue := firstNonEmpty(after.PublicArrival, after.PublicDeparture, after.WorkingArrival, after.WorkingDeparture)
	if beforeValue == "" || afterValue == "" {
		return nil, ErrBracketTimeless
	}

	beforeTime, err := trains.ResolveInstant(now, beforeValue, i.Grace)
	if err != nil {
		return nil, ErrBracketTimeless
	}
	afterTime, err := trains.ResolveInstant(now, afterValue, i.Grace)
	if err != nil {
		return nil, ErrBracketTimeless
	}

	passTime := midpoint(beforeTime, afterTime)
	passTime = passTime.Add(time.Duration(i.Calibration[key]) * time.Minute)

	if passTime.Before(now) || passTime.After(now.Add(i.Horizon)) {
		return nil, ErrOutsideHorizon
	}

	origin, destination := journey.Endpoints()

	return &trains.Train{
		RID:           trains.InferredID(journey.RID),
		UID:           journey.UID,
		ServiceDate:   journey.SSD,
		TOC:           journey.TOC,
		Kind:          trains.KindPassing,
		ScheduledTime: passTime.Format("15:04"),
		ScheduledAt:   passTime,
		Origin:        origin,
		Destination:   destination,
	}, nil
}

// midpoint is order-independent: the earlier time plus half the absolute gap.
func midpoint(a time.Time, b time.Time) time.Time {
	if b.Before(a) {
		a, b = b, a
	}

	return a.Add(b.Sub(a) / 2)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
