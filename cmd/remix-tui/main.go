// remix-tui is a terminal front end for downloading share links and
// rewriting video scripts.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/border1px/video-remix/cmd/remix-tui/internal/ui"
	"github.com/border1px/video-remix/internal/app"
	"github.com/border1px/video-remix/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logPath := flag.String("log", "remix-tui.log", "Log file (the terminal is owned by the UI)")
	flag.Parse()

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a := app.New(cfg, logger)
	tui := ui.NewApp(ui.Services{
		Downloads:   a.Downloads,
		Copywriting: a.Copywriting,
		Videos:      a.Videos,
		Settings:    a.Settings,
		Backend:     a.Backend,
	})

	if err := tui.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
