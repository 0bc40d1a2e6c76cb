package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/park285/age-of-ai-chess/internal/adapter/textpresenter"
	"github.com/park285/age-of-ai-chess/internal/msgcat"
	"github.com/park285/age-of-ai-chess/internal/obslog"
	"github.com/park285/age-of-ai-chess/internal/uiclient"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

type app struct {
	client    *uiclient.Client
	presenter *textpresenter.Presenter
	liveURL   string
}

func main() {
	if err := command().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func command() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			Usage:   "agechess http address",
			Value:   "http://localhost:8080",
			Sources: cli.EnvVars("AGECHESS_URL"),
		},
		&cli.StringFlag{
			Name:    "live-url",
			Usage:   "agechess websocket address",
			Value:   "ws://localhost:8081",
			Sources: cli.EnvVars("AGECHESS_LIVE_URL"),
		},
		&cli.StringFlag{
			Name:    "session",
			Aliases: []string{"s"},
			Usage:   "session id to reuse",
			Sources: cli.EnvVars("AGECHESS_SESSION"),
		},
		&cli.BoolFlag{
			Name:  "ascii",
			Usage: "print piece letters instead of theme glyphs",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
			Value: 10 * time.Second,
		},
	}

	return &cli.Command{
		Name:  "agectl",
		Usage: "drive an agechess session from the terminal",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:  "state",
				Usage: "print the current board",
				Action: run(func(ctx context.Context, a *app, _ *cli.Command) error {
					return a.show(a.client.State(ctx))
				}),
			},
			{
				Name:      "click",
				Usage:     "click a square",
				ArgsUsage: "<square>",
				Action: run(func(ctx context.Context, a *app, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return errors.New("usage: agectl click <square>")
					}
					return a.show(a.client.Click(ctx, c.Args().Get(0)))
				}),
			},
			{
				Name:      "move",
				Usage:     "play a move for white",
				ArgsUsage: "<from> <to>",
				Action: run(func(ctx context.Context, a *app, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return errors.New("usage: agectl move <from> <to>")
					}
					return a.show(a.client.Move(ctx, c.Args().Get(0), c.Args().Get(1)))
				}),
			},
			{
				Name:  "reset",
				Usage: "start a new game in the same session",
				Action: run(func(ctx context.Context, a *app, _ *cli.Command) error {
					return a.show(a.client.Reset(ctx))
				}),
			},
			{
				Name:  "themes",
				Usage: "list themes",
				Action: run(func(ctx context.Context, a *app, _ *cli.Command) error {
					list, err := a.client.Themes(ctx)
					if err != nil {
						return err
					}
					return a.presenter.Themes(list)
				}),
			},
			{
				Name:      "theme",
				Usage:     "switch the session theme",
				ArgsUsage: "<id>",
				Action: run(func(ctx context.Context, a *app, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return errors.New("usage: agectl theme <id>")
					}
					return a.show(a.client.SetTheme(ctx, c.Args().Get(0)))
				}),
			},
			{
				Name:  "board",
				Usage: "download the board as png",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "board.png", Usage: "output file"},
				},
				Action: run(func(ctx context.Context, a *app, c *cli.Command) error {
					png, err := a.client.BoardPNG(ctx)
					if err != nil {
						return err
					}
					return a.presenter.Image(c.String("out"), png)
				}),
			},
			{
				Name:  "watch",
				Usage: "follow the session until interrupted",
				Action: run(func(ctx context.Context, a *app, _ *cli.Command) error {
					return a.watch(ctx)
				}),
			},
		},
	}
}

// run builds the client from the root flags and reports the session id when done.
func run(fn func(ctx context.Context, a *app, c *cli.Command) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		opts := obslog.OptionsFromEnv()
		opts.Stdout = os.Stderr
		if os.Getenv("LOG_LEVEL") == "" {
			opts.Level = "warn"
		}
		logger, err := obslog.New(opts)
		if err != nil {
			return fmt.Errorf("logger init: %w", err)
		}
		defer obslog.Replace(logger)()
		defer func() { _ = logger.Sync() }()

		cat, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
		if err != nil {
			return err
		}
		a := &app{
			client: uiclient.NewClient(c.String("url"),
				uiclient.WithSession(c.String("session")),
				uiclient.WithTimeout(c.Duration("timeout")),
			),
			presenter: textpresenter.NewPresenter(os.Stdout, textpresenter.NewFormatter(cat, textpresenter.WithASCII(c.Bool("ascii")))),
			liveURL:   c.String("live-url"),
		}
		err = fn(ctx, a, c)
		if sid := a.client.SessionID(); sid != "" && sid != c.String("session") {
			fmt.Fprintf(os.Stderr, "session: %s (export AGECHESS_SESSION=%s)\n", sid, sid)
		}
		return err
	}
}

func (a *app) show(st *uidto.State, err error) error {
	if err != nil {
		return err
	}
	return a.presenter.State(st)
}

func (a *app) watch(ctx context.Context) error {
	// the live feed only serves known sessions
	first, err := a.client.State(ctx)
	if err != nil {
		return err
	}
	if err := a.presenter.State(first); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := uiclient.NewWatcher(a.liveURL, a.client.SessionID(), 5, obslog.L().Named("watch"))
	w.OnConnState(func(s uiclient.ConnState) {
		obslog.L().Debug("live connection", zap.Stringer("state", s))
	})
	w.OnState(func(st *uidto.State) {
		_, _ = fmt.Fprintln(os.Stdout)
		if err := a.presenter.State(st); err != nil {
			a.presenter.Error(err)
		}
	})
	if err := w.Connect(ctx); err != nil {
		return fmt.Errorf("live connect: %w", err)
	}
	<-ctx.Done()

	closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return w.Close(closeCtx)
}
