package timetable

import (
	"compress/gzip"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

const (
	DefaultRefreshInterval = 30 * time.Minute

	fetchRetryDelay = time.Minute
	fetchRetries    = 3
)

// LoadStats counts what a single pass over the extract did, so skips are
// observable rather than silent.
type LoadStats struct {
	Journeys      int
	WrongDate     int
	Direct        int
	DirectSkipped int
	Inferred      int
	Deduplicated  int
	InferSkipped  map[string]int
}

// Loader streams the bulk extract into the cache: directly observed trains at
// the crossing immediately as they are parsed, inferred passing trains after
// a final dedupe pass. All I/O happens outside the cache lock.
type Loader struct {
	Source Source
	Cache  *trains.Cache
	Tiploc string

	Horizon         time.Duration
	Grace           time.Duration
	RefreshInterval time.Duration

	Inferencer *Inferencer
}

// Run performs an immediate load then reloads on a fixed interval until the
// process exits. A failed load leaves the cache as it was; the next tick
// tries again.
func (l *Loader) Run() {
	interval := l.RefreshInterval
	if interval == 0 {
		interval = DefaultRefreshInterval
	}

	for {
		stats, err := l.Load(time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Timetable load failed")
		} else {
			log.Info().
				Int("journeys", stats.Journeys).
				Int("direct", stats.Direct).
				Int("inferred", stats.Inferred).
				Int("deduplicated", stats.Deduplicated).
				Msg("Timetable load complete")
		}

		time.Sleep(interval)
	}
}

// Load fetches, decompresses and stream-parses the extract once.
func (l *Loader) Load(now time.Time) (LoadStats, error) {
	stats := LoadStats{InferSkipped: map[string]int{}}

	reader, err := l.fetchWithRetry()
	if err != nil {
		return stats, err
	}
	defer reader.Close()

	gzipDecoder, err := gzip.NewReader(reader)
	if err != nil {
		return stats, fmt.Errorf("timetable decompress failed: %w", err)
	}
	defer gzipDecoder.Close()

	today := now.Format("2006-01-02")

	// Inferred records are tiny compared to their source journeys, so holding
	// them for the dedupe pass keeps memory bounded by the result set, not
	// the document.
	var inferred []*trains.Train

	err = ParseJourneys(gzipDecoder, func(journey *Journey) error {
		stats.Journeys++

		if journey.SSD != today {
			stats.WrongDate++
			return nil
		}

		if train, ok := l.directTrain(journey, now); ok {
			l.Cache.Upsert(train)
			stats.Direct++
		} else if journey.Location(l.Tiploc) != nil {
			stats.DirectSkipped++
		}

		train, err := l.Inferencer.Infer(journey, now)
		if err != nil {
			stats.InferSkipped[err.Error()]++
			return nil
		}

		inferred = append(inferred, train)
		return nil
	})
	if err != nil {
		return stats, err
	}

	unique := DedupeTrains(inferred)
	stats.Inferred = len(unique)
	stats.Deduplicated = len(inferred) - len(unique)

	for _, train := range unique {
		l.Cache.Upsert(train)
	}

	l.Cache.MarkTimetableLoad(now)

	return stats, nil
}

// directTrain resolves a journey that explicitly lists the crossing, honouring
// the bounded look-ahead window for bulk data.
func (l *Loader) directTrain(journey *Journey, now time.Time) (*trains.Train, bool) {
	location := journey.Location(l.Tiploc)
	if location == nil {
		return nil, false
	}

	kind, timeValue := trains.SelectCrossingTime(
		location.PublicArrival, location.PublicDeparture,
		location.WorkingArrival, location.WorkingDeparture,
		location.WorkingPass,
	)
	if timeValue == "" {
		return nil, false
	}

	scheduledAt, err := trains.ResolveInstant(now, timeValue, l.Grace)
	if err != nil {
		return nil, false
	}

	if scheduledAt.Before(now) || scheduledAt.After(now.Add(l.Horizon)) {
		return nil, false
	}

	origin, destination := journey.Endpoints()

	return &trains.Train{
		RID:           journey.RID,
		UID:           journey.UID,
		ServiceDate:   journey.SSD,
		TOC:           journey.TOC,
		Kind:          kind,
		ScheduledTime: timeValue,
		ScheduledAt:   scheduledAt,
		Origin:        origin,
		Destination:   destination,
		Platform:      location.Platform,
	}, true
}

func (l *Loader) fetchWithRetry() (io.ReadCloser, error) {
	var reader io.ReadCloser

	retry := backoff.WithMaxRetries(backoff.NewConstantBackOff(fetchRetryDelay), fetchRetries)

	err := backoff.Retry(func() error {
		var err error
		reader, err = l.Source.Fetch()
		if err != nil {
			log.Warn().Err(err).Msg("Timetable fetch failed, retrying")
		}

		return err
	}, retry)
	if err != nil {
		return nil, fmt.Errorf("timetable fetch exhausted retries: %w", err)
	}

	return reader, nil
}
