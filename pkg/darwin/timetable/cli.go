package timetable

import (
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
	"github.com/cinsalaco/roydon-crossing/pkg/util"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "timetable",
		Usage: "Bulk timetable extract tools",
		Subcommands: []*cli.Command{
			{
				Name:  "load",
				Usage: "run a single load pass and dump what it finds",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "load from a downloaded extract instead of the bucket",
					},
				},
				Action: func(c *cli.Context) error {
					var source Source
					if c.String("file") != "" {
						source = &FileSource{Path: c.String("file")}
					} else {
						source = &BucketSource{
							BaseURL: util.GetEnvironmentVariable("TIMETABLE_BUCKET_URL", "https://darwin.xmltimetable.s3.eu-west-1.amazonaws.com"),
							Prefix:  util.GetEnvironmentVariable("TIMETABLE_PREFIX", "PPTimetable/"),
						}
					}

					cache := trains.NewCache(trains.DefaultPastGrace, trains.DefaultHorizon)
					tiploc := util.GetEnvironmentVariable("ROYDON_TIPLOC", "ROYDON")

					loader := &Loader{
						Source:  source,
						Cache:   cache,
						Tiploc:  tiploc,
						Horizon: trains.DefaultHorizon,
						Grace:   trains.DefaultPastGrace,
						Inferencer: &Inferencer{
							Tiploc:      tiploc,
							Horizon:     trains.DefaultHorizon,
							Grace:       trains.DefaultPastGrace,
							Calibration: DefaultCalibration(),
						},
					}

					now := time.Now()
					stats, err := loader.Load(now)
					if err != nil {
						return err
					}

					pretty.Println(stats)

					for _, train := range cache.List(now) {
						log.Info().
							Str("time", train.ScheduledTime).
							Str("kind", string(train.Kind)).
							Str("origin", train.Origin).
							Str("destination", train.Destination).
							Str("toc", train.TOC).
							Msg(train.RID)
					}

					return nil
				},
			},
		},
	}
}
