package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"irrigation-status-backend/config"
	"irrigation-status-backend/internal/clock"
)

func main() {
	app := &cli.App{
		Name:  "irrigationd",
		Usage: "mirror an irrigation controller's schedule and live status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"CONFIG_PATH"},
				Value:   "./config/config.yaml",
				Usage:   "path of the YAML configuration file",
			},
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdTimeline(),
			cmdStatus(),
		},
		CommandNotFound: func(c *cli.Context, command string) {
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
			cli.ShowAppHelpAndExit(c, 1)
		},
		Action: func(c *cli.Context) error {
			return runServe(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	return cfg, nil
}

// deviceClock is the controller's clock as configured by the display bootstrap values.
func deviceClock(cfg config.DisplayConfig) (*clock.Device, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid display.timezone %q: %w", cfg.Timezone, err)
	}
	return clock.NewDevice(time.Duration(cfg.ClockOffsetSeconds)*time.Second, loc), nil
}
