package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/keyvc/vix/internal/app"
	"github.com/keyvc/vix/internal/config"
	"github.com/keyvc/vix/internal/execx"
	"github.com/keyvc/vix/internal/logging"
	"github.com/keyvc/vix/internal/runner"
	"github.com/keyvc/vix/internal/vcs"
)

var version = "dev"

func main() {
	app.Version = version

	var (
		logCloser  func()
		configPath string
		logLevel   string
		logFile    string
		readOnly   bool
		noAlt      bool
	)

	cmd := &cli.Command{
		Name:      "vix",
		Usage:     "Keyboard-driven client for git, mercurial, and plastic repositories",
		UsageText: "vix [options]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("VIX_CONFIG"),
				Value:       config.DefaultPath(),
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("VIX_LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("VIX_LOG_FILE"),
				Value:       logging.DefaultFile(),
				Destination: &logFile,
			},
			&cli.BoolFlag{
				Name:        "read-only",
				Usage:       "reject actions that modify the repository",
				Destination: &readOnly,
			},
			&cli.BoolFlag{
				Name:        "no-alternate-screen",
				Usage:       "render inline instead of using the alternate screen",
				Destination: &noAlt,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closer, err := logging.Setup(logLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if readOnly {
				cfg.ReadOnly = true
			}
			if noAlt {
				cfg.NoAltScreen = true
			}
			return run(cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vix:", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	exec := &execx.RealExecutor{}
	backend, err := vcs.Detect(wd, exec)
	if err != nil {
		if errors.Is(err, vcs.ErrNoRepository) {
			return fmt.Errorf("%s is not inside a git, mercurial, or plastic repository", wd)
		}
		return err
	}
	log.Info().Str("backend", backend.Name()).Str("root", backend.Root()).Msg("repository detected")

	customs, err := config.LoadCustomActions(backend.Root())
	if err != nil {
		log.Warn().Err(err).Msg("custom actions unavailable")
	}

	run := runner.New(backend, cfg.MaxConcurrentReads, logging.Component("runner"))
	defer run.Shutdown()

	model := app.New(backend, run, cfg, customs, logging.Component("app"))

	var opts []tea.ProgramOption
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
