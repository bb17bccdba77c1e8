package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/cinsalaco/roydon-crossing/pkg/darwin/timetable"
	"github.com/cinsalaco/roydon-crossing/pkg/tracker"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("ROYDON_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("ROYDON_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "roydon-crossing",
		Description: "Level crossing train tracker - realtime feed, timetable bootstrap and API",

		Commands: []*cli.Command{
			tracker.RegisterCLI(),
			timetable.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
