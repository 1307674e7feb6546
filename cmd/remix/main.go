package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/border1px/video-remix/internal/app"
	"github.com/border1px/video-remix/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usage = `Usage: remix [flags] <command> [args]

Commands:
  download [share text]        download a video from a share link (reads stdin when no text is given)
  videos                       list downloaded videos
  generate -video PATH -positioning TEXT
                               rewrite a video's script, then refine it interactively
  quick -video PATH [-prompt TEXT]
                               single-prompt copywriting
  config show                  show backend settings
  config set-key [KEY]         store the Gemini API key (prompts without echo when KEY is omitted)
  config clear-key             remove the stored API key
  config set-model NAME        set the model name (empty resets to default)

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file")
	verbose := flag.Bool("v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("remix %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	cli := &CLI{
		downloads:  a.Downloads,
		copywriter: a.Copywriting,
		videos:     a.Videos,
		settings:   a.Settings,
		backend:    a.Backend,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		cli.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	if err := cli.Run(ctx, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
