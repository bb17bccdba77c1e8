package pushport

import "encoding/xml"

// Schedule is a Darwin Push Port schedule element. Location children come in
// several flavours (OR, OPOR, IP, OPIP, PP, DT, OPDT) so they are captured
// generically and kept in document order.
type Schedule struct {
	RID string `xml:"rid,attr"`
	UID string `xml:"uid,attr"`
	SSD string `xml:"ssd,attr"`
	TOC string `xml:"toc,attr"`

	Locations []ScheduleLocation `xml:",any"`
}

type ScheduleLocation struct {
	XMLName xml.Name

	Tiploc string `xml:"tpl,attr"`

	PublicArrival   string `xml:"pta,attr"`
	PublicDeparture string `xml:"ptd,attr"`

	WorkingArrival   string `xml:"wta,attr"`
	WorkingDeparture string `xml:"wtd,attr"`
	WorkingPass      string `xml:"wtp,attr"`

	Platform string `xml:"plat,attr"`

	Cancelled string `xml:"can,attr"`
}
