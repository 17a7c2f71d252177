// console is a terminal client for a running social-console server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"social-console/client"
	"social-console/config"
	"social-console/console"
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
		baseURL    string
		logOutput  string
	)
	flagSet := pflag.NewFlagSet("console", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML or JSONC config file (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&baseURL, "url", "", "API base URL, e.g. http://localhost:8080/api")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
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
	if flagSet.Changed("url") {
		cfg.Client.BaseURL = baseURL
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	logger := slog.New(slog.DiscardHandler)
	if logOutput != "" {
		file, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log output: %w", err)
		}
		defer file.Close()
		cfg.Log.Format = "json"
		if logger, err = cfg.Log.NewLogger(file); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	confirmer := console.NewConfirmer()
	api := client.NewAPI(cfg.Client.BaseURL, &http.Client{Timeout: cfg.Client.Timeout.Std()})
	state := client.NewState(api, client.Options{
		Confirm: confirmer.Confirm,
		Logger:  logger,
	})

	program := tea.NewProgram(console.NewModel(ctx, state), tea.WithAltScreen(), tea.WithContext(ctx))
	confirmer.SetProgram(program)
	_, err = program.Run()
	confirmer.Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
