package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dukex/pipesched/pkg/definition"
	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/runner"
	"github.com/dukex/pipesched/pkg/schedule"
	"github.com/dukex/pipesched/pkg/web"
	cli "github.com/urfave/cli/v3"
)

var ErrUsage = errors.New("wrong number of arguments")

var ErrScheduleExists = errors.New("schedule already exists")

// args returns exactly n positional arguments.
func args(command *cli.Command, n int) ([]string, error) {
	if command.NArg() != n {
		return nil, fmt.Errorf("%w: %s expects %d, got %d (usage: %s %s)",
			ErrUsage, command.Name, n, command.NArg(), command.Name, command.ArgsUsage)
	}

	return command.Args().Slice(), nil
}

func newScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create an empty schedule",
		ArgsUsage: "SCHEDULE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Address notified when the schedule finishes"},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			if _, err := e.load(ctx, a[0]); err == nil {
				return fmt.Errorf("%w: %s", ErrScheduleExists, a[0])
			} else if !persistence.IsScheduleNotFound(err) {
				return err
			}

			s := schedule.New(a[0], e.scheduleOptions()...)
			s.SetEmailAddress(command.String("email"))

			return e.store.SaveSchedule(ctx, s)
		}),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add variables, nodes and edges to a schedule",
		Commands: []*cli.Command{
			{
				Name:      "float",
				Usage:     "Add a float variable",
				ArgsUsage: "SCHEDULE NAME VALUE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					v, err := strconv.ParseFloat(a[2], 64)
					if err != nil {
						return fmt.Errorf("float value %q: %w", a[2], err)
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddFloatVariable(a[1], v) })
				}),
			},
			{
				Name:      "bool",
				Usage:     "Add a boolean variable",
				ArgsUsage: "SCHEDULE NAME VALUE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					v, err := strconv.ParseBool(a[2])
					if err != nil {
						return fmt.Errorf("boolean value %q: %w", a[2], err)
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddBooleanVariable(a[1], v) })
				}),
			},
			{
				Name:      "string",
				Usage:     "Add a string variable",
				ArgsUsage: "SCHEDULE NAME VALUE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddStringVariable(a[1], a[2]) })
				}),
			},
			{
				Name:      "operator",
				Usage:     "Add an operator node; INPUT2 holds the constant for *_const kinds",
				ArgsUsage: "SCHEDULE KIND INPUT1 INPUT2 OUTPUT",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 5)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error {
						name, err := s.AddOperatorNode(a[1], a[2], a[3], a[4])
						if err == nil {
							fmt.Fprintln(e.out, name)
						}

						return err
					})
				}),
			},
			{
				Name:      "job",
				Usage:     "Add a job node for a job directory",
				ArgsUsage: "SCHEDULE DIR",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Usage: "Job mode (new, continue, overwrite)", Value: schedule.ModeContinue},
				},
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 2)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error {
						name, err := s.AddJobNode(a[1], command.String("mode"))
						if err == nil {
							fmt.Fprintln(e.out, name)
						}

						return err
					})
				}),
			},
			{
				Name:      "exit",
				Usage:     "Add an exit node",
				ArgsUsage: "SCHEDULE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 1)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error {
						name, err := s.AddExitNode()
						if err == nil {
							fmt.Fprintln(e.out, name)
						}

						return err
					})
				}),
			},
			{
				Name:      "timer",
				Usage:     "Add a timer wait node",
				ArgsUsage: "SCHEDULE NAME SECONDS",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					secs, err := strconv.ParseFloat(a[2], 64)
					if err != nil {
						return fmt.Errorf("wait seconds %q: %w", a[2], err)
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddTimerNode(a[1], secs) })
				}),
			},
			{
				Name:      "edge",
				Usage:     "Connect two nodes",
				ArgsUsage: "SCHEDULE FROM TO",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddEdge(a[1], a[2]) })
				}),
			},
			{
				Name:      "fork",
				Usage:     "Connect a node to one of two nodes depending on a boolean variable",
				ArgsUsage: "SCHEDULE FROM CONDITION IF_TRUE IF_FALSE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 5)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.AddFork(a[1], a[2], a[3], a[4]) })
				}),
			},
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Change the state of a schedule",
		Commands: []*cli.Command{
			{
				Name:      "current",
				Usage:     "Move the traversal position",
				ArgsUsage: "SCHEDULE NODE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 2)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.SetCurrentNode(a[1]) })
				}),
			},
			{
				Name:      "start",
				Usage:     "Set the node traversal starts from",
				ArgsUsage: "SCHEDULE NODE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 2)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return s.SetStartNode(a[1]) })
				}),
			},
			{
				Name:      "email",
				Usage:     "Set the notification address",
				ArgsUsage: "SCHEDULE ADDRESS",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 2)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error {
						s.SetEmailAddress(a[1])

						return nil
					})
				}),
			},
			{
				Name:      "variable",
				Usage:     "Set the current value of a variable",
				ArgsUsage: "SCHEDULE NAME VALUE",
				Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
					a, err := args(command, 3)
					if err != nil {
						return err
					}

					return e.edit(ctx, a[0], func(s *schedule.Schedule) error { return setVariable(s, a[1], a[2]) })
				}),
			},
		},
	}
}

func setVariable(s *schedule.Schedule, name, raw string) error {
	switch {
	case s.IsFloatVariable(name):
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("float value %q: %w", raw, err)
		}

		return s.SetFloatValue(name, v)
	case s.IsBooleanVariable(name):
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("boolean value %q: %w", raw, err)
		}

		return s.SetBooleanValue(name, v)
	default:
		return s.SetStringValue(name, raw)
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Restore variables, clear job progress and rewind traversal",
		ArgsUsage: "SCHEDULE",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			return e.runner().Reset(ctx, a[0])
		}),
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a schedule for structural problems",
		ArgsUsage: "SCHEDULE",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			s, err := e.load(ctx, a[0])
			if err != nil {
				return err
			}

			if err := s.Validate(); err != nil {
				return err
			}

			fmt.Fprintf(e.out, "%s is valid\n", s.Name())

			return nil
		}),
	}
}

func nextCommand() *cli.Command {
	return &cli.Command{
		Name:      "next",
		Usage:     "Advance to the next job and launch it",
		ArgsUsage: "SCHEDULE",
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			result, err := e.runner().Step(ctx, a[0])
			if err != nil {
				return err
			}

			if result.Done {
				fmt.Fprintln(e.out, "nothing left to run")

				return nil
			}

			return json.NewEncoder(e.out).Encode(result.Job)
		}),
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a schedule until it has nothing left to run",
		ArgsUsage: "SCHEDULE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Repeat the run on a cron expression until interrupted",
				Sources: cli.EnvVars("SCHEDULE_CRON"),
			},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			r := e.runner()

			if e.cfg.CronSpec == "" {
				launched, err := r.Run(ctx, a[0])
				for _, job := range launched {
					fmt.Fprintln(e.out, job.Name)
				}

				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := runner.NewCronRunner(r, e.logger)
			if err := c.Add(a[0], e.cfg.CronSpec); err != nil {
				return err
			}

			c.Start(ctx)
			<-ctx.Done()
			c.Stop()

			return nil
		}),
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a schedule as a record file or JSON",
		ArgsUsage: "SCHEDULE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of the record file"},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			s, err := e.load(ctx, a[0])
			if err != nil {
				return err
			}

			if command.Bool("json") {
				enc := json.NewEncoder(e.out)
				enc.SetIndent("", "  ")

				return enc.Encode(web.NewScheduleView(s))
			}

			return s.Write(e.out)
		}),
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create a schedule from a JSON definition",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Replace an existing schedule of the same name"},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			a, err := args(command, 1)
			if err != nil {
				return err
			}

			f, err := os.Open(a[0])
			if err != nil {
				return err
			}
			defer f.Close()

			def, err := definition.Read(f)
			if err != nil {
				return err
			}

			if !command.Bool("force") {
				if _, err := e.load(ctx, def.Name); err == nil {
					return fmt.Errorf("%w: %s", ErrScheduleExists, def.Name)
				}
			}

			s, names, err := def.Build(e.scheduleOptions()...)
			if err != nil {
				return err
			}

			if err := s.Validate(); err != nil {
				e.logger.WarnContext(ctx, "imported schedule has structural problems", "schedule", s.Name(), "error", err)
			}

			if err := e.store.SaveSchedule(ctx, s); err != nil {
				return err
			}

			for _, n := range def.Nodes {
				fmt.Fprintf(e.out, "%s\t%s\n", n.ID, names[n.ID])
			}

			return nil
		}),
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only status API and Prometheus metrics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Port to listen on",
				Value:   9091,
				Sources: cli.EnvVars("PORT"),
			},
		},
		Action: withEnv(func(ctx context.Context, command *cli.Command, e *env) error {
			app := web.NewApp(web.NewAPIHandlers(e.store, e.logger, e.scheduleOptions()...))

			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()

			e.logger.InfoContext(ctx, "serving status API", "port", e.cfg.Port)

			return app.Listen(":" + strconv.Itoa(e.cfg.Port))
		}),
	}
}
