package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/oyhutmarket/storefront/internal/app"
	"github.com/oyhutmarket/storefront/internal/availability"
	"github.com/oyhutmarket/storefront/internal/config"
	storefrontHttp "github.com/oyhutmarket/storefront/internal/handler/http"
	"github.com/oyhutmarket/storefront/internal/storage"
)

func main() {
	cliApp := &cli.App{
		Name:  "storefront",
		Usage: "bakery storefront with offline catalog fallback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"STOREFRONT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading the environment",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "probe",
				Usage:  "check whether the live storefront API is reachable",
				Action: probe,
			},
			{
				Name:   "migrate",
				Usage:  "apply Postgres migrations",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("storefront failed")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "storefront").Logger()
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log.Info().Msg("Storefront starting...")
	log.Debug().Interface("config_loaded", cfg).Msg("Configuration loaded")

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close application")
		}
	}()

	if err := a.Start(c.Context); err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      storefrontHttp.NewRouter(a),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", cfg.App.Port, err)
	case <-stopCh:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("Storefront stopped gracefully.")
	return nil
}

func probe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	monitor := availability.NewMonitor(cfg.API.URL, availability.WithTimeout(cfg.API.ProbeTimeout))
	if !monitor.Configured() {
		fmt.Fprintln(c.App.Writer, "no API URL configured: static mode")
		return nil
	}

	monitor.Check(c.Context)
	status := monitor.Status()
	fmt.Fprintf(c.App.Writer, "%s: %s\n", cfg.API.URL, status.State)
	if status.State != availability.StateAvailable {
		return cli.Exit("", 1)
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Warn().Str("driver", cfg.Storage.Driver).Msg("Storage driver is not postgres, migrating anyway")
	}

	if err := storage.Migrate(cfg.Postgres); err != nil {
		return err
	}
	log.Info().Msg("Migrations applied")
	return nil
}
