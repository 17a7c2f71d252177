// social-console serves the profile, posts and comments API and the
// read-only board page.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"social-console/config"
	"social-console/router"
	"social-console/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		addr       string
		driver     string
		dsn        string
		seed       bool
		seedPosts  int
		logLevel   string
	)
	flagSet := pflag.NewFlagSet("social-console", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML or JSONC config file (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&addr, "addr", "", "listen address, e.g. :8080")
	flagSet.StringVar(&driver, "driver", "", "database driver: sqlite, mysql or postgres")
	flagSet.StringVar(&dsn, "dsn", "", "database DSN or sqlite file path")
	flagSet.BoolVar(&seed, "seed", false, "create the default profile and sample posts when the database is empty")
	flagSet.IntVar(&seedPosts, "seed-posts", 0, "number of sample posts to seed")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(config.PathFromEnv(configPath))
	if err != nil {
		return err
	}
	if flagSet.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flagSet.Changed("driver") {
		cfg.Database.Driver = driver
	}
	if flagSet.Changed("dsn") {
		cfg.Database.DSN = dsn
	}
	if flagSet.Changed("seed") {
		cfg.Seed.Enabled = seed
	}
	if flagSet.Changed("seed-posts") {
		cfg.Seed.Posts = seedPosts
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		PoolSize: cfg.Database.PoolSize,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}
	defer st.Close()

	if cfg.Seed.Enabled {
		if _, err := store.Seed(ctx, st, store.SeedOptions{Posts: cfg.Seed.Posts, Logger: logger}); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	gin.SetMode(cfg.Server.GinMode)
	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: router.New(st, router.Options{
			APIPrefix: cfg.Server.APIPrefix,
			Compress:  cfg.Server.Compress,
			Logger:    logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver, "api_prefix", cfg.Server.APIPrefix)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
