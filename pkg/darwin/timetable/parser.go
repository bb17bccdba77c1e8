package timetable

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// ParseJourneys streams Journey elements out of a timetable document, handing
// each to handle as soon as it is decoded. Nothing is retained between
// journeys, so peak memory stays at one journey no matter how large the
// document is. A handler error or a document-level decode error aborts the
// whole parse.
func ParseJourneys(reader io.Reader, handle func(*Journey) error) error {
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := d.Token()
		if tok == nil || err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("timetable parse failed: %w", err)
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			if ty.Name.Local != "Journey" {
				continue
			}
			if ty.Name.Space != TimetableNamespace && ty.Name.Space != "" {
				continue
			}

			var journey Journey
			if err = d.DecodeElement(&journey, &ty); err != nil {
				return fmt.Errorf("timetable parse failed: %w", err)
			}

			if err = handle(&journey); err != nil {
				return err
			}
		}
	}

	return nil
}
