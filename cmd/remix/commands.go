package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/service"
	"github.com/border1px/video-remix/internal/settings"
)

type downloader interface {
	Download(ctx context.Context, text string, progress domain.ProgressFunc) (*service.DownloadResult, error)
}

type copywriter interface {
	Generate(ctx context.Context, req service.GenerateRequest, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Regenerate(ctx context.Context, id domain.SessionID, positioning string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Refine(ctx context.Context, id domain.SessionID, instruction string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Quick(ctx context.Context, videoPath, prompt string, progress domain.ProgressFunc) (domain.GenerationResult, error)
	Save(ctx context.Context, id domain.SessionID) (string, error)
}

type videoLister interface {
	List(ctx context.Context) ([]domain.LocalVideoFile, error)
}

type keySourcer interface {
	KeySource() string
}

// CLI runs one command against the wired services.
type CLI struct {
	downloads  downloader
	copywriter copywriter
	videos     videoLister
	settings   *settings.Store
	backend    keySourcer

	in           *bufio.Reader
	out          io.Writer
	// readPassword reads without echo; nil when stdin is not a terminal.
	readPassword func() ([]byte, error)
}

var errUsage = errors.New("invalid usage, run with -h for help")

// Run dispatches args[0] to its command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "download":
		return c.download(ctx, args[1:])
	case "videos":
		return c.listVideos(ctx)
	case "generate":
		return c.generate(ctx, args[1:])
	case "quick":
		return c.quick(ctx, args[1:])
	case "config":
		return c.config(args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func (c *CLI) progress(ev domain.ProgressEvent) {
	fmt.Fprintln(c.out, ev.String())
}

func (c *CLI) download(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(c.out, "Paste the share text and press Enter:")
		line, err := c.readLine()
		if err != nil {
			return err
		}
		text = line
	}

	result, err := c.downloads.Download(ctx, text, c.progress)
	if err != nil {
		if result != nil && len(result.RawResponse) > 0 {
			fmt.Fprintf(c.out, "Resolver response:\n%s\n", result.RawResponse)
		}
		return err
	}

	fmt.Fprintf(c.out, "\nTitle:  %s\nAuthor: %s\nSaved:  %s (%.1f MB)\n",
		result.Video.Title, result.Video.Author, result.File.Path, float64(result.File.Size)/(1024*1024))
	return nil
}

func (c *CLI) listVideos(ctx context.Context) error {
	videos, err := c.videos.List(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		fmt.Fprintln(c.out, "No videos downloaded yet.")
		return nil
	}
	for _, v := range videos {
		fmt.Fprintf(c.out, "%s  %8.1f MB  %s\n", v.ModifiedAt.Format("2006-01-02 15:04"), float64(v.Size)/(1024*1024), v.Path)
	}
	return nil
}

func (c *CLI) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(c.out)
	video := fs.String("video", "", "Path to the video file")
	positioning := fs.String("positioning", "", "Account positioning for the rewrite")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *video == "" {
		return fmt.Errorf("-video is required: %w", errUsage)
	}
	if strings.TrimSpace(*positioning) == "" {
		fmt.Fprintln(c.out, "Account positioning:")
		line, err := c.readLine()
		if err != nil {
			return err
		}
		*positioning = line
	}

	session, err := c.copywriter.Generate(ctx, service.GenerateRequest{
		VideoPath:   *video,
		Positioning: *positioning,
	}, c.progress)
	if err != nil {
		return err
	}

	c.printSession(session)
	return c.sessionLoop(ctx, session)
}

// sessionLoop offers regenerate, follow-up and save on a finished session
// until the user quits or input ends.
func (c *CLI) sessionLoop(ctx context.Context, session *domain.ScriptSession) error {
	for {
		fmt.Fprintln(c.out, "\n[r] regenerate  [f] follow-up  [s] save  [q] quit")
		choice, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "r":
			fmt.Fprintf(c.out, "New positioning (empty keeps %q):\n", session.Positioning)
			positioning, err := c.readLine()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			updated, err := c.copywriter.Regenerate(ctx, session.ID, positioning, c.progress)
			if err != nil {
				fmt.Fprintf(c.out, "Regenerate failed: %v\n", err)
				continue
			}
			session = updated
			c.printScript(session)
		case "f":
			fmt.Fprintln(c.out, "Instruction:")
			instruction, err := c.readLine()
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			updated, err := c.copywriter.Refine(ctx, session.ID, instruction, c.progress)
			if err != nil {
				fmt.Fprintf(c.out, "Follow-up failed: %v\n", err)
				continue
			}
			session = updated
			c.printScript(session)
		case "s":
			path, err := c.copywriter.Save(ctx, session.ID)
			if err != nil {
				fmt.Fprintf(c.out, "Save failed: %v\n", err)
				continue
			}
			fmt.Fprintf(c.out, "Saved to %s\n", path)
		case "q", "":
			return nil
		default:
			fmt.Fprintf(c.out, "Unknown choice %q\n", choice)
		}
	}
}

func (c *CLI) quick(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("quick", flag.ContinueOnError)
	fs.SetOutput(c.out)
	video := fs.String("video", "", "Path to the video file")
	prompt := fs.String("prompt", "", "Prompt (defaults to a Douyin caption prompt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *video == "" {
		return fmt.Errorf("-video is required: %w", errUsage)
	}

	result, err := c.copywriter.Quick(ctx, *video, *prompt, c.progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%s\n", result.Text)
	return nil
}

func (c *CLI) config(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config needs a subcommand: %w", errUsage)
	}
	switch args[0] {
	case "show":
		key := c.settings.MaskedAPIKey()
		switch c.backend.KeySource() {
		case "":
			key = "(not set)"
		case "env":
			key = "(from GEMINI_API_KEY)"
		}
		fmt.Fprintf(c.out, "Settings file: %s\nAPI key:       %s\nModel:         %s\n",
			c.settings.Path(), key, c.settings.Model())
		return nil
	case "set-key":
		key := strings.Join(args[1:], "")
		if key == "" {
			fmt.Fprint(c.out, "Gemini API key: ")
			var err error
			if key, err = c.readSecret(); err != nil {
				return err
			}
		}
		if err := c.settings.SetAPIKey(key); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "API key saved (%s)\n", c.settings.MaskedAPIKey())
		return nil
	case "clear-key":
		if err := c.settings.ClearAPIKey(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "API key removed")
		return nil
	case "set-model":
		if err := c.settings.SetModel(strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Model set to %s\n", c.settings.Model())
		return nil
	default:
		return fmt.Errorf("unknown config subcommand %q: %w", args[0], errUsage)
	}
}

func (c *CLI) printSession(s *domain.ScriptSession) {
	fmt.Fprintf(c.out, "\n===== Transcript =====\n%s\n", s.Transcript)
	fmt.Fprintf(c.out, "\n===== Analysis =====\n%s\n", s.Analysis)
	c.printScript(s)
}

func (c *CLI) printScript(s *domain.ScriptSession) {
	fmt.Fprintf(c.out, "\n===== Script =====\n%s\n", s.Script)
}

// readLine returns the next input line without its newline. A final line
// without newline is returned with a nil error.
func (c *CLI) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readSecret reads a line without echo when stdin is a terminal and from
// the shared input reader otherwise.
func (c *CLI) readSecret() (string, error) {
	if c.readPassword == nil {
		line, err := c.readLine()
		return strings.TrimSpace(line), err
	}
	secret, err := c.readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
