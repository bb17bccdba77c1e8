package pushport

type TrainStatus struct {
	RID string `xml:"rid,attr"`
	UID string `xml:"uid,attr"`
	SSD string `xml:"ssd,attr"`

	LateReason string `xml:"LateReason"`

	Locations []TrainStatusLocation `xml:"Location"`
}

type TrainStatusLocation struct {
	Tiploc string `xml:"tpl,attr"`

	Arrival   *TrainStatusTiming `xml:"arr"`
	Departure *TrainStatusTiming `xml:"dep"`
	Pass      *TrainStatusTiming `xml:"pass"`

	Platform *TrainStatusPlatform `xml:"plat"`
}

type TrainStatusTiming struct {
	ET string `xml:"et,attr"`
	AT string `xml:"at,attr"`

	Delayed string `xml:"delayed,attr"`
}

// BestTime returns the most authoritative time carried by the timing and
// whether it is an actual (observed) one. Actual times beat estimates.
func (t *TrainStatusTiming) BestTime() (value string, actual bool) {
	if t == nil {
		return "", false
	}

	if t.AT != "" {
		return t.AT, true
	}

	return t.ET, false
}

type TrainStatusPlatform struct {
	Suppressed    string `xml:"platsup,attr"`
	CISSuppressed string `xml:"cisPlatsup,attr"`

	Name string `xml:",chardata"`
}
