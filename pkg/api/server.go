package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

// Server is the thin HTTP surface over the train cache. Everything it serves
// comes from one Snapshot call; it has no state of its own.
type Server struct {
	Cache *trains.Cache

	DarwinHost string
	BucketURL  string
}

func (s *Server) SetupServer() *fiber.App {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	webApp.Get("/api/trains/realtime", s.realtimeTrains)
	webApp.Get("/api/status", s.status)
	webApp.Get("/health", s.health)

	return webApp
}

func (s *Server) Run(listen string) error {
	return s.SetupServer().Listen(listen)
}

func (s *Server) realtimeTrains(c *fiber.Ctx) error {
	snapshot := s.Cache.Snapshot(time.Now())

	return c.JSON(fiber.Map{
		"trains":             trainViews(snapshot.Trains),
		"count":              len(snapshot.Trains),
		"timestamp":          snapshot.GeneratedAt.Format(time.RFC3339),
		"last_snapshot_load": formatLoadTime(snapshot.LastTimetableLoad),
		"darwin_connected":   snapshot.FeedConnected,
	})
}

func (s *Server) health(c *fiber.Ctx) error {
	snapshot := s.Cache.Snapshot(time.Now())

	return c.JSON(fiber.Map{
		"status":             "healthy",
		"trains_cached":      len(snapshot.Trains),
		"darwin_connected":   snapshot.FeedConnected,
		"last_snapshot_load": formatLoadTime(snapshot.LastTimetableLoad),
		"timestamp":          snapshot.GeneratedAt.Format(time.RFC3339),
	})
}

func (s *Server) status(c *fiber.Ctx) error {
	snapshot := s.Cache.Snapshot(time.Now())
	stopping, passing := s.Cache.Counts()

	return c.JSON(fiber.Map{
		"status": "running",
		"trains": fiber.Map{
			"total":    stopping + passing,
			"stopping": stopping,
			"passing":  passing,
		},
		"darwin": fiber.Map{
			"connected": snapshot.FeedConnected,
			"host":      s.DarwinHost,
		},
		"timetable": fiber.Map{
			"bucket":    s.BucketURL,
			"last_load": formatLoadTime(snapshot.LastTimetableLoad),
		},
		"timestamp": snapshot.GeneratedAt.Format(time.RFC3339),
	})
}

type trainView struct {
	RID         string `json:"rid"`
	UID         string `json:"uid"`
	SSD         string `json:"ssd"`
	TOC         string `json:"toc"`
	Type        string `json:"type"`
	Time        string `json:"time"`
	ParsedTime  string `json:"parsed_time"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Platform    string `json:"platform,omitempty"`
	ETA         string `json:"eta,omitempty"`
	Actual      bool   `json:"actual,omitempty"`
	Delayed     bool   `json:"delayed"`
}

func trainViews(upcoming []*trains.Train) []trainView {
	views := make([]trainView, 0, len(upcoming))

	for _, train := range upcoming {
		view := trainView{
			RID:         train.RID,
			UID:         train.UID,
			SSD:         train.ServiceDate,
			TOC:         train.TOC,
			Type:        string(train.Kind),
			Time:        train.ScheduledTime,
			ParsedTime:  train.ScheduledAt.Format(time.RFC3339),
			Origin:      train.Origin,
			Destination: train.Destination,
			Platform:    train.Platform,
		}

		if train.Estimate != nil {
			view.ETA = train.Estimate.Time
			view.Actual = train.Estimate.Actual
			view.Delayed = train.Estimate.Delayed
		}

		views = append(views, view)
	}

	return views
}

func formatLoadTime(loadedAt time.Time) any {
	if loadedAt.IsZero() {
		return nil
	}

	return loadedAt.Format(time.RFC3339)
}
