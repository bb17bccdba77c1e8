package timetable

import "encoding/xml"

// TimetableNamespace is the schema of the bulk Push Port timetable extract.
const TimetableNamespace = "http://www.thalesgroup.com/rtti/XmlTimetable/v8"

// Journey is one scheduled service from the bulk extract. Calling point
// elements (OR, OPOR, IP, OPIP, PP, DT, OPDT) are captured generically in
// document order; children without a tpl attribute are ignored downstream.
type Journey struct {
	RID string `xml:"rid,attr"`
	UID string `xml:"uid,attr"`
	SSD string `xml:"ssd,attr"`
	TOC string `xml:"toc,attr"`

	Locations []Location `xml:",any"`
}

type Location struct {
	XMLName xml.Name

	Tiploc string `xml:"tpl,attr"`

	PublicArrival   string `xml:"pta,attr"`
	PublicDeparture string `xml:"ptd,attr"`

	WorkingArrival   string `xml:"wta,attr"`
	WorkingDeparture string `xml:"wtd,attr"`
	WorkingPass      string `xml:"wtp,attr"`

	Platform string `xml:"plat,attr"`
}

// Endpoints returns the first and last location codes of the calling pattern.
func (j *Journey) Endpoints() (origin string, destination string) {
	for index := range j.Locations {
		tiploc := j.Locations[index].Tiploc
		if tiploc == "" {
			continue
		}

		if origin == "" {
			origin = tiploc
		}
		destination = tiploc
	}

	return origin, destination
}

// Location returns the first calling point for a tiploc, or nil.
func (j *Journey) Location(tiploc string) *Location {
	for index := range j.Locations {
		if j.Locations[index].Tiploc == tiploc {
			return &j.Locations[index]
		}
	}

	return nil
}
