package pushport

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

var (
	errNoRID          = errors.New("schedule has no rid")
	errNotAtCrossing  = errors.New("crossing tiploc not in calling pattern")
	errNoResolvedTime = errors.New("no usable time at crossing")
)

// Ingester turns decoded Push Port documents into cache entries for one
// crossing. Schedules create or overwrite entries; train statuses only amend
// ones that already exist.
type Ingester struct {
	Tiploc string
	Cache  *trains.Cache
	Grace  time.Duration

	SchedulesIngested atomic.Uint64
	SchedulesSkipped  atomic.Uint64
	StatusesApplied   atomic.Uint64
	StatusesSkipped   atomic.Uint64
}

// Process applies everything in a decoded frame, schedules first so that a
// status travelling in the same frame finds its entry already present.
func (i *Ingester) Process(data *PushPortData, now time.Time) {
	for index := range data.Schedules {
		err := i.IngestSchedule(&data.Schedules[index], now)

		if err != nil {
			i.SchedulesSkipped.Add(1)
			log.Debug().Err(err).Str("rid", data.Schedules[index].RID).Msg("Schedule skipped")
		} else {
			i.SchedulesIngested.Add(1)
		}
	}

	for index := range data.TrainStatuses {
		if i.ApplyStatus(&data.TrainStatuses[index]) {
			i.StatusesApplied.Add(1)
		} else {
			i.StatusesSkipped.Add(1)
		}
	}
}

// IngestSchedule resolves the schedule against the crossing and upserts a
// Train. Duplicate schedule messages for the same rid are idempotent.
func (i *Ingester) IngestSchedule(schedule *Schedule, now time.Time) error {
	if schedule.RID == "" {
		return errNoRID
	}

	var origin, destination string
	var crossingLocation *ScheduleLocation

	for index := range schedule.Locations {
		location := &schedule.Locations[index]
		if location.Tiploc == "" {
			continue
		}

		if origin == "" {
			origin = location.Tiploc
		}
		destination = location.Tiploc

		if location.Tiploc == i.Tiploc {
			crossingLocation = location
		}
	}

	if crossingLocation == nil {
		return errNotAtCrossing
	}

	kind, timeValue := trains.SelectCrossingTime(
		crossingLocation.PublicArrival, crossingLocation.PublicDeparture,
		crossingLocation.WorkingArrival, crossingLocation.WorkingDeparture,
		crossingLocation.WorkingPass,
	)
	if timeValue == "" {
		return errNoResolvedTime
	}

	scheduledAt, err := trains.ResolveInstant(now, timeValue, i.Grace)
	if err != nil {
		return err
	}

	i.Cache.Upsert(&trains.Train{
		RID:           schedule.RID,
		UID:           schedule.UID,
		ServiceDate:   schedule.SSD,
		TOC:           schedule.TOC,
		Kind:          kind,
		ScheduledTime: timeValue,
		ScheduledAt:   scheduledAt,
		Origin:        origin,
		Destination:   destination,
		Platform:      crossingLocation.Platform,
	})

	log.Info().
		Str("rid", schedule.RID).
		Str("uid", schedule.UID).
		Str("kind", string(kind)).
		Str("time", timeValue).
		Msg("Train at crossing")

	return nil
}

// ApplyStatus amends the estimate on an existing cache entry. Statuses for
// unknown rids are ignored; with no schedule there is nothing to place them
// against.
func (i *Ingester) ApplyStatus(status *TrainStatus) bool {
	if status.RID == "" {
		return false
	}

	var crossingLocation *TrainStatusLocation
	for index := range status.Locations {
		if status.Locations[index].Tiploc == i.Tiploc {
			crossingLocation = &status.Locations[index]
			break
		}
	}

	if crossingLocation == nil {
		return false
	}

	// An observed time anywhere at the location beats every estimate; within
	// each class pass is preferred, then departure, then arrival.
	timings := []*TrainStatusTiming{crossingLocation.Pass, crossingLocation.Departure, crossingLocation.Arrival}

	var timeValue string
	var actual bool
	for _, timing := range timings {
		if value, observed := timing.BestTime(); observed {
			timeValue, actual = value, true
			break
		}
	}
	if timeValue == "" {
		for _, timing := range timings {
			if value, _ := timing.BestTime(); value != "" {
				timeValue = value
				break
			}
		}
	}
	if timeValue == "" {
		return false
	}

	return i.Cache.Amend(status.RID, func(train *trains.Train) {
		if train.Estimate == nil {
			train.Estimate = &trains.Estimate{}
		}

		train.Estimate.Time = timeValue
		if actual {
			train.Estimate.Actual = true
		} else {
			train.Estimate.Delayed = timeValue != train.ScheduledTime
		}
	})
}
