package pushport

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Darwin Push Port schema namespaces. Elements are dispatched on the fully
// qualified name so a stray local name in another schema can never match.
const (
	SchedulesNamespace = "http://www.thalesgroup.com/rtti/PushPort/Schedules/v3"
	ForecastsNamespace = "http://www.thalesgroup.com/rtti/PushPort/Forecasts/v3"
)

var (
	// ErrEmptyFrame means the STOMP message arrived with no body.
	ErrEmptyFrame = errors.New("frame has no body")

	// ErrTextFrame means the body was delivered as mangled text rather than
	// the expected gzip binary. These show up routinely on the feed and are
	// dropped, not surfaced.
	ErrTextFrame = errors.New("frame body contains replacement characters")
)

// PushPortData is one decoded Push Port document. A single frame can carry
// both schedules and train statuses.
type PushPortData struct {
	Schedules     []Schedule
	TrainStatuses []TrainStatus
}

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeFrame decompresses and parses one Push Port frame. It keeps no state
// between calls; a partial document is never carried across frames.
func DecodeFrame(body []byte) (*PushPortData, error) {
	if len(body) == 0 {
		return nil, ErrEmptyFrame
	}

	// The marker check only applies to bodies delivered as text. Valid
	// compressed data can legitimately contain the marker's byte sequence.
	if !bytes.HasPrefix(body, gzipMagic) && bytes.Contains(body, []byte("�")) {
		return nil, ErrTextFrame
	}

	gzipDecoder, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("frame decode failed: %w", err)
	}
	defer gzipDecoder.Close()

	pushPortData, err := ParsePushPort(gzipDecoder)
	if err != nil {
		return nil, fmt.Errorf("frame decode failed: %w", err)
	}

	return pushPortData, nil
}

// ParsePushPort walks a Push Port XML document token by token, decoding only
// the schedule and TS elements it recognises by qualified name.
func ParsePushPort(reader io.Reader) (*PushPortData, error) {
	pushPortData := PushPortData{}

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := d.Token()
		if tok == nil || err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			switch {
			case ty.Name.Local == "schedule" && ty.Name.Space == SchedulesNamespace:
				var schedule Schedule

				if err = d.DecodeElement(&schedule, &ty); err != nil {
					return nil, err
				}

				pushPortData.Schedules = append(pushPortData.Schedules, schedule)
			case ty.Name.Local == "TS" && ty.Name.Space == ForecastsNamespace:
				var trainStatus TrainStatus

				if err = d.DecodeElement(&trainStatus, &ty); err != nil {
					return nil, err
				}

				pushPortData.TrainStatuses = append(pushPortData.TrainStatuses, trainStatus)
			}
		}
	}

	return &pushPortData, nil
}
