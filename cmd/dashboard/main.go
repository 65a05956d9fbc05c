// Package main provides the dashboard binary: an HTTP server for the signed-in
// landing page plus helpers to drive the session lifecycle from a terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/spf13/cobra"
)

const appName = "dashboard"

type globalFlags struct {
	configPath string
	envPath    string
	store      string
	logLevel   string
	logFormat  string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Dashboard authentication session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := loadEnvFile(g.envPath); err != nil {
				slog.Warn("load env file", "path", g.envPath, "error", err)
			}
			slog.SetDefault(newLogger(g.logLevel, g.logFormat))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&g.envPath, "env", defaultEnvPath(), "Path to .env file")
	flags.StringVar(&g.store, "store", "sqlite:authsession.db", "Session store: memory, sqlite:<path>, redis://..., postgres://...")
	flags.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		serveCmd(g),
		loginURLCmd(g),
		callbackCmd(g),
		statusCmd(g),
		logoutCmd(g),
		devTokenCmd(g),
	)
	return cmd
}

func newLogger(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func loadConfig(g *globalFlags) (authsession.Config, error) {
	cfg, err := authsession.LoadConfig(g.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
