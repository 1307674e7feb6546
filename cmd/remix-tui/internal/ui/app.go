// Package ui provides the terminal user interface.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/service"
	"github.com/border1px/video-remix/internal/settings"
)

// Downloader turns share text into a local video.
type Downloader interface {
	Download(ctx context.Context, text string, progress domain.ProgressFunc) (*service.DownloadResult, error)
}

// Copywriter runs the copywriting pipeline.
type Copywriter interface {
	Generate(ctx context.Context, req service.GenerateRequest, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Regenerate(ctx context.Context, id domain.SessionID, positioning string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Refine(ctx context.Context, id domain.SessionID, instruction string, progress domain.ProgressFunc) (*domain.ScriptSession, error)
	Quick(ctx context.Context, videoPath, prompt string, progress domain.ProgressFunc) (domain.GenerationResult, error)
	Save(ctx context.Context, id domain.SessionID) (string, error)
}

// VideoLister lists downloaded videos.
type VideoLister interface {
	List(ctx context.Context) ([]domain.LocalVideoFile, error)
}

// KeySourcer reports where the backend key comes from.
type KeySourcer interface {
	KeySource() string
}

// Services are the backends the UI drives.
type Services struct {
	Downloads   Downloader
	Copywriting Copywriter
	Videos      VideoLister
	Settings    *settings.Store
	Backend     KeySourcer
}

// Panel represents a UI panel type.
type Panel int

const (
	PanelDownload Panel = iota
	PanelCopywriting
	PanelSettings
	PanelHelp
)

var panelPages = map[Panel]string{
	PanelDownload:    "download",
	PanelCopywriting: "copywriting",
	PanelSettings:    "settings",
	PanelHelp:        "help",
}

var panelNames = map[Panel]string{
	PanelDownload:    "Download",
	PanelCopywriting: "Copywriting",
	PanelSettings:    "Settings",
	PanelHelp:        "Help",
}

// App is the main TUI application.
type App struct {
	app          *tview.Application
	pages        *tview.Pages
	svc          Services
	currentPanel Panel
	ctx          context.Context
	cancel       context.CancelFunc

	// UI components
	header    *tview.TextView
	footer    *tview.TextView
	statusBar *tview.TextView

	downloadView    *tview.Flex
	copywritingView *tview.Flex
	settingsView    *tview.Flex
	helpView        *tview.TextView

	// focus targets per panel
	focus map[Panel]tview.Primitive

	// refreshers run when a panel is shown
	onShow map[Panel]func()

	// State
	session *domain.ScriptSession
	busy    bool
}

// NewApp creates a new TUI application.
func NewApp(svc Services) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		svc:    svc,
		ctx:    ctx,
		cancel: cancel,
		focus:  make(map[Panel]tview.Primitive),
		onShow: make(map[Panel]func()),
	}

	a.setupUI()
	return a
}

// setupUI initializes all UI components.
func (a *App) setupUI() {
	// Header
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	// Footer with keybindings
	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]F1[white]:Download [yellow]F2[white]:Copywriting [yellow]F3[white]:Settings [yellow]F4[white]:Help [yellow]Tab[white]:Next field [yellow]Ctrl+Q[white]:Quit")
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	// Status bar
	a.statusBar = tview.NewTextView().
		SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(tcell.ColorDarkGreen)

	// Create panels
	a.createDownloadPanel()
	a.createCopywritingPanel()
	a.createSettingsPanel()
	a.createHelpPanel()

	a.pages.AddPage("download", a.downloadView, true, true)
	a.pages.AddPage("copywriting", a.copywritingView, true, false)
	a.pages.AddPage("settings", a.settingsView, true, false)
	a.pages.AddPage("help", a.helpView, true, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	a.app.SetInputCapture(a.handleGlobalKeys)
	a.app.SetRoot(mainFlex, true)

	a.updateHeader()
	a.setStatus("Ready")
}

// handleGlobalKeys handles global keyboard shortcuts. Runes are left to the
// input fields.
func (a *App) handleGlobalKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyF1:
		a.switchPanel(PanelDownload)
		return nil
	case tcell.KeyF2:
		a.switchPanel(PanelCopywriting)
		return nil
	case tcell.KeyF3:
		a.switchPanel(PanelSettings)
		return nil
	case tcell.KeyF4:
		a.switchPanel(PanelHelp)
		return nil
	case tcell.KeyCtrlQ:
		a.Stop()
		return nil
	}
	return event
}

// switchPanel switches to the specified panel.
func (a *App) switchPanel(panel Panel) {
	a.currentPanel = panel
	a.pages.SwitchToPage(panelPages[panel])
	if p, ok := a.focus[panel]; ok {
		a.app.SetFocus(p)
	}
	if fn, ok := a.onShow[panel]; ok {
		fn()
	}
	a.updateHeader()
}

// updateHeader updates the header with current panel name.
func (a *App) updateHeader() {
	a.header.SetText(fmt.Sprintf("\n[white::b]Video Remix[white] - [yellow]%s[white] | Model: [green]%s[white] | %s",
		panelNames[a.currentPanel], a.svc.Settings.Model(), keyState(a.svc.Backend.KeySource())))
}

// setStatus sets the status bar text. It must run on the UI goroutine.
func (a *App) setStatus(msg string) {
	a.statusBar.SetText(fmt.Sprintf(" %s | %s", msg, time.Now().Format("15:04:05")))
}

// runTask runs fn off the UI goroutine. Only one task runs at a time.
func (a *App) runTask(name string, fn func(ctx context.Context)) {
	if a.busy {
		a.setStatus("[yellow]Busy, wait for the current task to finish")
		return
	}
	a.busy = true
	a.setStatus("[yellow]" + name + "...")

	go func() {
		defer a.app.QueueUpdate(func() { a.busy = false })
		fn(a.ctx)
	}()
}

// progressTo returns a progress callback appending to view.
func (a *App) progressTo(view *tview.TextView) domain.ProgressFunc {
	return func(ev domain.ProgressEvent) {
		line := formatEvent(ev)
		a.app.QueueUpdateDraw(func() {
			fmt.Fprintln(view, line)
			a.setStatus(tview.Escape(ev.Message))
		})
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	a.switchPanel(PanelDownload)
	return a.app.Run()
}

// Stop stops the TUI application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func formatEvent(ev domain.ProgressEvent) string {
	color := "white"
	switch ev.Stage {
	case domain.StageFailed:
		color = "red"
	case domain.StageDone:
		color = "green"
	}
	return fmt.Sprintf("[%s]%s[white]", color, tview.Escape(ev.String()))
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}

func keyState(source string) string {
	switch source {
	case "settings":
		return "[green]API key set"
	case "env":
		return "[green]API key from env"
	default:
		return "[red]no API key"
	}
}
