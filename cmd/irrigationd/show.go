package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"irrigation-status-backend/internal/clock"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
	"irrigation-status-backend/internal/timeline"
	"irrigation-status-backend/internal/view"
)

func cmdTimeline() *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Print one day of the controller's schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "day to show as YYYY-MM-DD (defaults to the controller's today)",
			},
			&cli.IntFlag{
				Name:  "width",
				Value: 4,
				Usage: "characters per hour",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			clk, err := deviceClock(cfg.Display)
			if err != nil {
				return err
			}
			client, err := controller.NewClient(cfg.Controller, clk)
			if err != nil {
				return fmt.Errorf("failed to create controller client: %w", err)
			}

			now := clk.Now()
			viewed := clock.StartOfDay(now)
			if raw := c.String("date"); raw != "" {
				if viewed, err = time.ParseInLocation("2006-01-02", raw, now.Location()); err != nil {
					return fmt.Errorf("invalid --date %q: %w", raw, err)
				}
			}

			date := clock.XSDate(viewed)
			entries, err := client.FetchLog(c.Context, date)
			if err != nil {
				return err
			}
			engine := timeline.NewEngine(timeline.Options{
				VisibilityEpsilon: cfg.Schedule.VisibilityEpsilon,
				MinWidth:          cfg.Schedule.MinWidth,
			})

			var stations []int
			var stationOn func(int) bool
			if batch, err := client.FetchStatus(c.Context); err == nil {
				cells, _ := status.DeriveAll(batch)
				board := view.NewBoard()
				board.RenderStatus(status.Snapshot{Cells: cells})
				stations, stationOn = board.StationIDs(), board.IsOn
			}

			events := schedule.Normalize(entries, date, cfg.Display.TimeFormat)
			v := schedule.Build(engine, events, stations, viewed, now, stationOn)
			fmt.Print(view.NewTerminal(c.Int("width")).Schedule(v))
			return nil
		},
	}
}

func cmdStatus() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the live status of every station",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			clk, err := deviceClock(cfg.Display)
			if err != nil {
				return err
			}
			client, err := controller.NewClient(cfg.Controller, clk)
			if err != nil {
				return fmt.Errorf("failed to create controller client: %w", err)
			}

			batch, err := client.FetchStatus(c.Context)
			if err != nil {
				return err
			}
			cells, _ := status.DeriveAll(batch)
			fmt.Print(view.NewTerminal(2).Status(status.Snapshot{Cells: cells, UpdatedAt: clk.Now()}))
			return nil
		},
	}
}
