// Command pipesched builds, inspects and runs graph-based pipeline schedules.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pipesched:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "pipesched",
		Usage:                 "Build, inspect and run pipeline schedules",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Schedule store: a directory, file://, postgres://, sqlite:// or redis:// URL",
				Value:   "file://.",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka); empty disables events",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "job-command",
				Usage:   "Command template run for every job ({schedule}, {name}, {original_name}, {mode}, {started})",
				Sources: cli.EnvVars("JOB_COMMAND"),
			},
			&cli.StringFlag{
				Name:    "mail-command",
				Usage:   "Mail client used for completion notifications",
				Value:   "mail",
				Sources: cli.EnvVars("MAIL_COMMAND"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Commands: []*cli.Command{
			newScheduleCommand(),
			addCommand(),
			setCommand(),
			resetCommand(),
			validateCommand(),
			nextCommand(),
			runCommand(),
			showCommand(),
			importCommand(),
			serveCommand(),
		},
	}
}
