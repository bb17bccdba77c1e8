package trains

import (
	"fmt"
	"time"
)

type TrainKind string

const (
	KindStopping TrainKind = "stopping"
	KindPassing  TrainKind = "passing"
)

// InferredIDPrefix namespaces trains produced by route inference so they can
// never collide with a RID observed directly in the feed or timetable.
const InferredIDPrefix = "inferred:"

// Estimate is the latest realtime correction for a train. Actual means the
// time was observed rather than forecast.
type Estimate struct {
	Time    string `json:"time"`
	Actual  bool   `json:"actual"`
	Delayed bool   `json:"delayed"`
}

// Train is a single service expected at the crossing, either stopping at the
// station or passing through. Bulk-loaded and realtime trains share this shape
// so consumers never need to care where a record came from.
type Train struct {
	RID         string    `json:"rid"`
	UID         string    `json:"uid"`
	ServiceDate string    `json:"ssd"`
	TOC         string    `json:"toc"`
	Kind        TrainKind `json:"type"`

	ScheduledTime string    `json:"time"`
	ScheduledAt   time.Time `json:"parsed_time"`

	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Platform    string `json:"platform,omitempty"`

	Estimate *Estimate `json:"estimate,omitempty"`
}

func InferredID(rid string) string {
	return fmt.Sprintf("%s%s", InferredIDPrefix, rid)
}

// Clone returns a detached copy, Estimate included, so a caller holding it
// never observes later amendments to the source.
func (t *Train) Clone() *Train {
	clone := *t

	if t.Estimate != nil {
		estimate := *t.Estimate
		clone.Estimate = &estimate
	}

	return &clone
}
