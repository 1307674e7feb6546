package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/service"
)

// createCopywritingPanel creates the video analysis and rewrite panel.
func (a *App) createCopywritingPanel() {
	videoList := tview.NewList().
		ShowSecondaryText(true)
	videoList.SetBorder(true).SetTitle(" Downloaded Videos ")

	videoInput := tview.NewInputField().
		SetLabel("Video path  ").
		SetFieldWidth(0)
	positioningInput := tview.NewInputField().
		SetLabel("Positioning ").
		SetFieldWidth(0).
		SetPlaceholder("e.g. a fitness coach for office workers")
	instructionInput := tview.NewInputField().
		SetLabel("Instruction ").
		SetFieldWidth(0).
		SetPlaceholder("follow-up for Refine, prompt for Quick")

	scriptView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	scriptView.SetBorder(true).SetTitle(" Script ")

	logView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	logView.SetBorder(true).SetTitle(" Progress ")

	showSession := func(session *domain.ScriptSession, err error, done string) {
		if session != nil {
			a.session = session
			scriptView.SetText(renderSession(session))
			scriptView.ScrollToBeginning()
		}
		if err != nil {
			fmt.Fprintf(logView, "[red]Error:[white] %s\n", tview.Escape(err.Error()))
			a.setStatus("[red]" + tview.Escape(err.Error()))
			return
		}
		a.setStatus("[green]" + done)
	}

	requireSession := func() (domain.SessionID, bool) {
		if a.session == nil {
			a.setStatus("[red]Generate a script first")
			return "", false
		}
		return a.session.ID, true
	}

	form := tview.NewForm().
		AddFormItem(videoInput).
		AddFormItem(positioningInput).
		AddFormItem(instructionInput).
		AddButton("Generate", func() {
			req := service.GenerateRequest{
				VideoPath:   strings.TrimSpace(videoInput.GetText()),
				Positioning: strings.TrimSpace(positioningInput.GetText()),
			}
			if req.VideoPath == "" {
				a.setStatus("[red]Choose a video first")
				return
			}
			logView.Clear()
			scriptView.Clear()
			a.session = nil
			a.runTask("Generating", func(ctx context.Context) {
				session, err := a.svc.Copywriting.Generate(ctx, req, a.progressTo(logView))
				a.app.QueueUpdateDraw(func() { showSession(session, err, "Script generated") })
			})
		}).
		AddButton("Regenerate", func() {
			id, ok := requireSession()
			if !ok {
				return
			}
			positioning := strings.TrimSpace(positioningInput.GetText())
			a.runTask("Regenerating", func(ctx context.Context) {
				session, err := a.svc.Copywriting.Regenerate(ctx, id, positioning, a.progressTo(logView))
				a.app.QueueUpdateDraw(func() { showSession(session, err, "Script regenerated") })
			})
		}).
		AddButton("Refine", func() {
			id, ok := requireSession()
			if !ok {
				return
			}
			instruction := strings.TrimSpace(instructionInput.GetText())
			if instruction == "" {
				a.setStatus("[red]Enter an instruction to refine with")
				return
			}
			a.runTask("Refining", func(ctx context.Context) {
				session, err := a.svc.Copywriting.Refine(ctx, id, instruction, a.progressTo(logView))
				a.app.QueueUpdateDraw(func() {
					if err == nil {
						instructionInput.SetText("")
					}
					showSession(session, err, "Script refined")
				})
			})
		}).
		AddButton("Save", func() {
			id, ok := requireSession()
			if !ok {
				return
			}
			a.runTask("Saving", func(ctx context.Context) {
				path, err := a.svc.Copywriting.Save(ctx, id)
				a.app.QueueUpdateDraw(func() {
					if err != nil {
						a.setStatus("[red]Save failed: " + tview.Escape(err.Error()))
						return
					}
					fmt.Fprintf(logView, "[green]Saved to %s[white]\n", tview.Escape(path))
					a.setStatus("[green]Saved " + tview.Escape(path))
				})
			})
		}).
		AddButton("Quick", func() {
			path := strings.TrimSpace(videoInput.GetText())
			if path == "" {
				a.setStatus("[red]Choose a video first")
				return
			}
			prompt := strings.TrimSpace(instructionInput.GetText())
			logView.Clear()
			a.runTask("Running quick prompt", func(ctx context.Context) {
				result, err := a.svc.Copywriting.Quick(ctx, path, prompt, a.progressTo(logView))
				a.app.QueueUpdateDraw(func() {
					if err != nil {
						fmt.Fprintf(logView, "[red]Error:[white] %s\n", tview.Escape(err.Error()))
						a.setStatus("[red]Quick prompt failed")
						return
					}
					scriptView.SetText(tview.Escape(result.Text))
					scriptView.ScrollToBeginning()
					a.setStatus("[green]Quick prompt done")
				})
			})
		})
	form.SetBorder(true).SetTitle(" Copywriting ")
	form.SetButtonBackgroundColor(tcell.ColorDarkBlue)

	videoList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		videoInput.SetText(secondaryText)
		a.app.SetFocus(form)
	})

	a.onShow[PanelCopywriting] = func() {
		a.loadVideos(videoList)
	}

	leftPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(videoList, 0, 1, false).
		AddItem(logView, 0, 1, false)

	rightPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 11, 0, true).
		AddItem(scriptView, 0, 1, false)

	a.copywritingView = tview.NewFlex().
		AddItem(leftPanel, 40, 0, false).
		AddItem(rightPanel, 0, 1, true)
	a.focus[PanelCopywriting] = form

	// Tab cycles the form, so the list is reached with Ctrl+L.
	a.copywritingView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlL:
			a.app.SetFocus(videoList)
			return nil
		case tcell.KeyEscape:
			a.app.SetFocus(form)
			return nil
		}
		return event
	})
}

// loadVideos refreshes the library list.
func (a *App) loadVideos(list *tview.List) {
	list.Clear()
	videos, err := a.svc.Videos.List(a.ctx)
	if err != nil {
		a.setStatus("[red]List videos: " + tview.Escape(err.Error()))
		return
	}
	if len(videos) == 0 {
		list.AddItem("(no videos yet)", "download one with F1", 0, nil)
		return
	}
	for _, v := range videos {
		list.AddItem(fmt.Sprintf("%s  %s", v.Name, megabytes(v.Size)), v.Path, 0, nil)
	}
}

// renderSession formats the generated sections of a session.
func renderSession(s *domain.ScriptSession) string {
	var b strings.Builder
	section := func(title, body string) {
		if body == "" {
			return
		}
		fmt.Fprintf(&b, "[yellow::b]%s[-:-:-]\n%s\n\n", title, tview.Escape(body))
	}
	section("Script", s.Script)
	section("Analysis", s.Analysis)
	section("Transcript", s.Transcript)
	if n := len(s.History); n > 0 {
		fmt.Fprintf(&b, "[gray]%d refinement turns[-]\n", n/2)
	}
	return b.String()
}
