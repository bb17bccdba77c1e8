package pushport

import (
	"bytes"
	"compress/gzip"
	"errors"
	"testing"
)

const pushPortDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Pport xmlns="http://www.thalesgroup.com/rtti/PushPort/v16"
       xmlns:sc3="http://www.thalesgroup.com/rtti/PushPort/Schedules/v3"
       xmlns:fc3="http://www.thalesgroup.com/rtti/PushPort/Forecasts/v3">
  <uR>
    <sc3:schedule rid="202601137101010" uid="W12345" ssd="2026-01-13" toc="LE">
      <sc3:OR tpl="LIVST" ptd="13:28" wtd="13:28"/>
      <sc3:PP tpl="ROYDON" wtp="14:05"/>
      <sc3:DT tpl="CAMBDGE" pta="14:45" wta="14:45"/>
    </sc3:schedule>
    <fc3:TS rid="202601137101010" uid="W12345" ssd="2026-01-13">
      <fc3:Location tpl="ROYDON">
        <fc3:pass et="14:12"/>
      </fc3:Location>
    </fc3:TS>
  </uR>
</Pport>`

// An element named schedule in a foreign namespace must not decode.
const foreignNamespaceDocument = `<?xml version="1.0" encoding="UTF-8"?>
<Pport xmlns="http://www.thalesgroup.com/rtti/PushPort/v16"
       xmlns:x="http://example.com/not-darwin">
  <uR>
    <x:schedule rid="999" uid="X" ssd="2026-01-13" toc="LE"/>
    <x:TS rid="999" uid="X" ssd="2026-01-13"/>
  </uR>
</Pport>`

func gzipFrame(t *testing.T, document string) []byte {
	t.Helper()

	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err := writer.Write([]byte(document)); err != nil {
		t.Fatalf("Failed to compress test document: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	return buffer.Bytes()
}

func TestDecodeFrame(t *testing.T) {
	t.Run("ScheduleAndStatus", func(t *testing.T) {
		data, err := DecodeFrame(gzipFrame(t, pushPortDocument))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if len(data.Schedules) != 1 {
			t.Fatalf("Expected 1 schedule, got %d", len(data.Schedules))
		}
		schedule := data.Schedules[0]
		if schedule.RID != "202601137101010" || schedule.TOC != "LE" {
			t.Errorf("Schedule attributes wrong: %+v", schedule)
		}
		if len(schedule.Locations) != 3 {
			t.Fatalf("Expected 3 locations, got %d", len(schedule.Locations))
		}
		if schedule.Locations[1].Tiploc != "ROYDON" || schedule.Locations[1].WorkingPass != "14:05" {
			t.Errorf("Passing point not decoded: %+v", schedule.Locations[1])
		}

		if len(data.TrainStatuses) != 1 {
			t.Fatalf("Expected 1 train status, got %d", len(data.TrainStatuses))
		}
		status := data.TrainStatuses[0]
		if len(status.Locations) != 1 || status.Locations[0].Pass == nil {
			t.Fatalf("Status location not decoded: %+v", status)
		}
		if status.Locations[0].Pass.ET != "14:12" {
			t.Errorf("Expected estimate 14:12, got %q", status.Locations[0].Pass.ET)
		}
	})

	t.Run("ForeignNamespaceIgnored", func(t *testing.T) {
		data, err := DecodeFrame(gzipFrame(t, foreignNamespaceDocument))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(data.Schedules) != 0 || len(data.TrainStatuses) != 0 {
			t.Errorf("Foreign namespace elements decoded: %+v", data)
		}
	})

	t.Run("EmptyFrame", func(t *testing.T) {
		if _, err := DecodeFrame(nil); !errors.Is(err, ErrEmptyFrame) {
			t.Errorf("Expected ErrEmptyFrame, got %v", err)
		}
	})

	t.Run("ReplacementCharacterFrame", func(t *testing.T) {
		if _, err := DecodeFrame([]byte("garbled � text")); !errors.Is(err, ErrTextFrame) {
			t.Errorf("Expected ErrTextFrame, got %v", err)
		}
	})

	t.Run("MarkerBytesInsideGzipFrame", func(t *testing.T) {
		// Compressed output can contain the replacement character's byte
		// sequence; such frames are binary, not garbled text, and must still
		// decode. Forced deterministically here by setting the FNAME flag and
		// carrying the sequence in the member name.
		frame := gzipFrame(t, pushPortDocument)

		marked := make([]byte, 0, len(frame)+4)
		marked = append(marked, frame[:10]...)
		marked[3] |= 0x08
		marked = append(marked, 0xef, 0xbf, 0xbd, 0x00)
		marked = append(marked, frame[10:]...)

		if !bytes.Contains(marked, []byte("�")) {
			t.Fatal("Frame should contain the marker byte sequence")
		}

		data, err := DecodeFrame(marked)
		if err != nil {
			t.Fatalf("Binary frame dropped as text: %v", err)
		}
		if len(data.Schedules) != 1 {
			t.Errorf("Expected 1 schedule, got %d", len(data.Schedules))
		}
	})

	t.Run("BadGzip", func(t *testing.T) {
		if _, err := DecodeFrame([]byte("<Pport/>")); err == nil {
			t.Error("Expected error for uncompressed body")
		}
	})

	t.Run("TruncatedDocument", func(t *testing.T) {
		if _, err := DecodeFrame(gzipFrame(t, pushPortDocument[:200])); err == nil {
			t.Error("Expected error for truncated document")
		}
	})

	t.Run("StatelessBetweenCalls", func(t *testing.T) {
		if _, err := DecodeFrame(gzipFrame(t, pushPortDocument[:200])); err == nil {
			t.Fatal("Expected error for truncated document")
		}

		data, err := DecodeFrame(gzipFrame(t, pushPortDocument))
		if err != nil {
			t.Fatalf("Good frame after bad frame should decode: %v", err)
		}
		if len(data.Schedules) != 1 {
			t.Errorf("Expected 1 schedule, got %d", len(data.Schedules))
		}
	})
}
