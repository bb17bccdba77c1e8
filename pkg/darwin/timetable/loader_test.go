package timetable

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"
	"time"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

type memorySource struct {
	data []byte
}

func (s *memorySource) Fetch() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func gzippedSource(t *testing.T, document string) Source {
	t.Helper()

	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write([]byte(document)); err != nil {
		t.Fatalf("Failed to compress test document: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	return &memorySource{data: buffer.Bytes()}
}

func testLoader(source Source) *Loader {
	cache := trains.NewCache(5*time.Minute, 90*time.Minute)

	return &Loader{
		Source:  source,
		Cache:   cache,
		Tiploc:  "ROYDON",
		Horizon: 90 * time.Minute,
		Grace:   5 * time.Minute,
		Inferencer: &Inferencer{
			Tiploc:      "ROYDON",
			Horizon:     90 * time.Minute,
			Grace:       5 * time.Minute,
			Calibration: DefaultCalibration(),
		},
	}
}

const directJourney = `<Journey rid="D1" uid="WD1" ssd="2026-01-13" toc="LE">
  <OR tpl="LIVST" ptd="13:28"/>
  <PP tpl="ROYDON" wtp="14:05"/>
  <DT tpl="BSHPSFD" pta="14:20"/>
</Journey>`

const wrongDateJourney = `<Journey rid="D2" uid="WD2" ssd="2026-01-14" toc="LE">
  <OR tpl="LIVST" ptd="13:28"/>
  <PP tpl="ROYDON" wtp="14:05"/>
  <DT tpl="BSHPSFD" pta="14:20"/>
</Journey>`

const outsideWindowJourney = `<Journey rid="D3" uid="WD3" ssd="2026-01-13" toc="LE">
  <OR tpl="LIVST" ptd="17:28"/>
  <PP tpl="ROYDON" wtp="18:05"/>
  <DT tpl="BSHPSFD" pta="18:20"/>
</Journey>`

// Stansted express with no call at the crossing; brackets 13:50 and 14:10
// give a 14:00 midpoint, calibrated to 13:57.
const inferableJourney = `<Journey rid="I1" uid="WI1" ssd="2026-01-13" toc="LE">
  <OR tpl="LIVST" ptd="13:40"/>
  <IP tpl="CHESHNT" pta="13:49" ptd="13:50"/>
  <PP tpl="BROXBRN" wtp="13:53"/>
  <IP tpl="BSHPSFD" pta="14:10" ptd="14:11"/>
  <DT tpl="STANAIR" pta="14:25"/>
</Journey>`

// Same service announced a second time with a shifted time; dedupe must keep
// the first.
const inferableJourneyAmended = `<Journey rid="I1" uid="WI1" ssd="2026-01-13" toc="LE">
  <OR tpl="LIVST" ptd="13:45"/>
  <IP tpl="CHESHNT" pta="13:54" ptd="13:56"/>
  <PP tpl="BROXBRN" wtp="13:59"/>
  <IP tpl="BSHPSFD" pta="14:16" ptd="14:17"/>
  <DT tpl="STANAIR" pta="14:31"/>
</Journey>`

func TestLoad(t *testing.T) {
	now := time.Date(2026, 1, 13, 13, 30, 0, 0, time.UTC)

	source := gzippedSource(t, timetableDocument(
		directJourney,
		wrongDateJourney,
		outsideWindowJourney,
		inferableJourney,
		inferableJourneyAmended,
	))
	loader := testLoader(source)

	stats, err := loader.Load(now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Journeys != 5 {
		t.Errorf("Expected 5 journeys parsed, got %d", stats.Journeys)
	}
	if stats.WrongDate != 1 {
		t.Errorf("Expected 1 wrong-date journey, got %d", stats.WrongDate)
	}
	if stats.Direct != 1 {
		t.Errorf("Expected 1 direct train, got %d", stats.Direct)
	}
	if stats.DirectSkipped != 1 {
		t.Errorf("Expected 1 window-filtered direct train, got %d", stats.DirectSkipped)
	}
	if stats.Inferred != 1 || stats.Deduplicated != 1 {
		t.Errorf("Expected 1 inferred after 1 dedupe, got %d / %d", stats.Inferred, stats.Deduplicated)
	}

	upcoming := loader.Cache.List(now)
	if len(upcoming) != 2 {
		t.Fatalf("Expected 2 cached trains, got %d", len(upcoming))
	}

	// Sorted ascending: inferred 13:57 before direct 14:05.
	if upcoming[0].RID != "inferred:I1" || upcoming[0].ScheduledTime != "13:57" {
		t.Errorf("Expected inferred:I1 at 13:57 first, got %s at %s", upcoming[0].RID, upcoming[0].ScheduledTime)
	}
	if upcoming[0].Kind != trains.KindPassing {
		t.Errorf("Inferred train must be passing, got %s", upcoming[0].Kind)
	}

	if upcoming[1].RID != "D1" || upcoming[1].Kind != trains.KindPassing || upcoming[1].ScheduledTime != "14:05" {
		t.Errorf("Expected direct passing D1 at 14:05, got %+v", upcoming[1])
	}

	snapshot := loader.Cache.Snapshot(now)
	if !snapshot.LastTimetableLoad.Equal(now) {
		t.Error("Load completion not recorded")
	}
}

func TestLoadDirectStoppingTrain(t *testing.T) {
	now := time.Date(2026, 1, 13, 13, 30, 0, 0, time.UTC)

	document := timetableDocument(`<Journey rid="S1" uid="WS1" ssd="2026-01-13" toc="LE">
  <OR tpl="LIVST" ptd="13:28"/>
  <IP tpl="ROYDON" pta="14:04" ptd="14:05" plat="2"/>
  <DT tpl="BSHPSFD" pta="14:20"/>
</Journey>`)

	loader := testLoader(gzippedSource(t, document))
	if _, err := loader.Load(now); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	upcoming := loader.Cache.List(now)
	if len(upcoming) != 1 {
		t.Fatalf("Expected 1 train, got %d", len(upcoming))
	}
	train := upcoming[0]
	if train.Kind != trains.KindStopping || train.ScheduledTime != "14:05" {
		t.Errorf("Expected stopping at 14:05, got %s at %s", train.Kind, train.ScheduledTime)
	}
	if train.Platform != "2" {
		t.Errorf("Platform not carried: %q", train.Platform)
	}
}

func TestLoadBadDocument(t *testing.T) {
	now := time.Date(2026, 1, 13, 13, 30, 0, 0, time.UTC)

	t.Run("NotGzip", func(t *testing.T) {
		loader := testLoader(&memorySource{data: []byte("plain text")})
		if _, err := loader.Load(now); err == nil {
			t.Error("Expected error for uncompressed document")
		}
	})

	t.Run("TruncatedXML", func(t *testing.T) {
		loader := testLoader(gzippedSource(t, timetableHeader+`<Journey rid="1"`))
		if _, err := loader.Load(now); err == nil {
			t.Error("Expected error for truncated document")
		}
		if len(loader.Cache.List(now)) != 0 {
			t.Error("Nothing should be cached when the only journey failed to decode")
		}
	})
}
