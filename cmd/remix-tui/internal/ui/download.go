package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/border1px/video-remix/internal/service"
)

// createDownloadPanel creates the share link download panel.
func (a *App) createDownloadPanel() {
	shareInput := tview.NewTextArea().
		SetLabel("Share text ").
		SetPlaceholder("Paste the share text copied from the app")
	shareInput.SetSize(5, 0)

	output := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	output.SetBorder(true).SetTitle(" Output ")

	form := tview.NewForm().
		AddFormItem(shareInput).
		AddButton("Download", func() {
			text := strings.TrimSpace(shareInput.GetText())
			if text == "" {
				a.setStatus("[red]Paste a share link first")
				return
			}
			output.Clear()
			a.runTask("Downloading", func(ctx context.Context) {
				result, err := a.svc.Downloads.Download(ctx, text, a.progressTo(output))
				a.app.QueueUpdateDraw(func() {
					fmt.Fprintln(output)
					fmt.Fprint(output, renderDownload(result, err))
					if err != nil {
						a.setStatus("[red]Download failed")
						return
					}
					a.setStatus("[green]Download complete")
				})
			})
		}).
		AddButton("Clear", func() {
			shareInput.SetText("", false)
			output.Clear()
		})
	form.SetBorder(true).SetTitle(" Douyin Share Link ")
	form.SetButtonBackgroundColor(tcell.ColorDarkBlue)

	a.downloadView = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 11, 0, true).
		AddItem(output, 0, 1, false)
	a.focus[PanelDownload] = form
}

// renderDownload formats the outcome of a download for the output view.
func renderDownload(result *service.DownloadResult, err error) string {
	var b strings.Builder
	if err != nil {
		fmt.Fprintf(&b, "[red]Error:[white] %s\n", tview.Escape(err.Error()))
		if result != nil && len(result.RawResponse) > 0 {
			fmt.Fprintf(&b, "\n[yellow]Raw response:[white]\n%s\n", tview.Escape(string(result.RawResponse)))
		}
		return b.String()
	}
	if result == nil {
		return ""
	}
	if v := result.Video; v != nil {
		fmt.Fprintf(&b, "[yellow]Title:[white]  %s\n", tview.Escape(v.Title))
		if v.Author != "" {
			fmt.Fprintf(&b, "[yellow]Author:[white] %s\n", tview.Escape(v.Author))
		}
	}
	if f := result.File; f != nil {
		fmt.Fprintf(&b, "[yellow]Saved:[white]  %s (%s)\n", tview.Escape(f.Path), megabytes(f.Size))
	}
	return b.String()
}
