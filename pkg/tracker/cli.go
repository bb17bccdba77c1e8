package tracker

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"

	"github.com/cinsalaco/roydon-crossing/pkg/api"
	"github.com/cinsalaco/roydon-crossing/pkg/darwin/pushport"
	"github.com/cinsalaco/roydon-crossing/pkg/darwin/timetable"
	"github.com/cinsalaco/roydon-crossing/pkg/trains"
	"github.com/cinsalaco/roydon-crossing/pkg/util"
)

const (
	defaultDarwinHost = "darwin-dist-44ae45.nationalrail.co.uk:61613"
	defaultTopic      = "/topic/darwin.pushport-v16"
	defaultBucketURL  = "https://darwin.xmltimetable.s3.eu-west-1.amazonaws.com"
	defaultPrefix     = "PPTimetable/"
	defaultTiploc     = "ROYDON"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Track trains over the crossing: realtime feed, timetable refresh and the API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Value:   ":5002",
				Usage:   "listen target for the web server",
				EnvVars: []string{"ROYDON_LISTEN"},
			},
		},
		Action: func(c *cli.Context) error {
			env := util.GetEnvironmentVariables()

			tiploc := util.GetEnvironmentVariable("ROYDON_TIPLOC", defaultTiploc)
			horizon, err := envMinutes("ROYDON_HORIZON_MINUTES", trains.DefaultHorizon)
			if err != nil {
				return err
			}
			grace, err := envMinutes("ROYDON_GRACE_MINUTES", trains.DefaultPastGrace)
			if err != nil {
				return err
			}

			cache := trains.NewCache(grace, horizon)

			calibration := timetable.DefaultCalibration()
			if path := env["ROYDON_CALIBRATION_FILE"]; path != "" {
				calibration, err = timetable.LoadCalibrationFile(path)
				if err != nil {
					return err
				}
				log.Info().Str("path", path).Msg("Loaded calibration overrides")
			}

			runGroup := pool.New()

			darwinHost := util.GetEnvironmentVariable("DARWIN_HOST", defaultDarwinHost)
			if env["DARWIN_USERNAME"] == "" || env["DARWIN_PASSWORD"] == "" {
				log.Warn().Msg("Darwin credentials not configured, realtime feed disabled")
			} else {
				stompClient := &pushport.StompClient{
					Address:  darwinHost,
					Username: env["DARWIN_USERNAME"],
					Password: env["DARWIN_PASSWORD"],
					Topic:    util.GetEnvironmentVariable("DARWIN_TOPIC", defaultTopic),
					ClientID: fmt.Sprintf("%s-roydon-crossing", env["DARWIN_USERNAME"]),
					Cache:    cache,
					Ingester: &pushport.Ingester{
						Tiploc: tiploc,
						Cache:  cache,
						Grace:  grace,
					},
				}

				runGroup.Go(stompClient.Run)
			}

			bucketURL := util.GetEnvironmentVariable("TIMETABLE_BUCKET_URL", defaultBucketURL)
			if env["ROYDON_TIMETABLE_DISABLED"] == "YES" {
				log.Warn().Msg("Timetable refresh disabled, running realtime-only")
			} else {
				loader := &timetable.Loader{
					Source: &timetable.BucketSource{
						BaseURL: bucketURL,
						Prefix:  util.GetEnvironmentVariable("TIMETABLE_PREFIX", defaultPrefix),
					},
					Cache:   cache,
					Tiploc:  tiploc,
					Horizon: horizon,
					Grace:   grace,
					Inferencer: &timetable.Inferencer{
						Tiploc:      tiploc,
						Horizon:     horizon,
						Grace:       grace,
						Calibration: calibration,
					},
				}

				runGroup.Go(loader.Run)
			}

			server := &api.Server{
				Cache:      cache,
				DarwinHost: darwinHost,
				BucketURL:  bucketURL,
			}

			log.Info().
				Str("tiploc", tiploc).
				Str("listen", c.String("listen")).
				Msg("Starting crossing tracker")

			runGroup.Go(func() {
				if err := server.Run(c.String("listen")); err != nil {
					log.Fatal().Err(err).Msg("Web server failed")
				}
			})

			runGroup.Wait()

			return nil
		},
	}
}

func envMinutes(name string, defaultValue time.Duration) (time.Duration, error) {
	value := util.GetEnvironmentVariable(name, "")
	if value == "" {
		return defaultValue, nil
	}

	minutes, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number of minutes: %w", name, err)
	}

	return time.Duration(minutes) * time.Minute, nil
}
