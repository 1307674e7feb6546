package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// createSettingsPanel creates the API key and model panel.
func (a *App) createSettingsPanel() {
	info := tview.NewTextView().
		SetDynamicColors(true)
	info.SetBorder(true).SetTitle(" Current ")

	refresh := func() {
		masked := a.svc.Settings.MaskedAPIKey()
		if masked == "" {
			masked = "(not stored)"
		}
		info.SetText(fmt.Sprintf("[yellow]API key:[white]  %s\n[yellow]Source:[white]   %s\n[yellow]Model:[white]    %s\n[yellow]Settings:[white] %s",
			tview.Escape(masked), keyState(a.svc.Backend.KeySource()), tview.Escape(a.svc.Settings.Model()), tview.Escape(a.svc.Settings.Path())))
		a.updateHeader()
	}

	keyInput := tview.NewInputField().
		SetLabel("API key ").
		SetFieldWidth(48).
		SetMaskCharacter('*')
	modelInput := tview.NewInputField().
		SetLabel("Model   ").
		SetFieldWidth(48).
		SetText(a.svc.Settings.Model())

	form := tview.NewForm().
		AddFormItem(keyInput).
		AddFormItem(modelInput).
		AddButton("Save key", func() {
			if err := a.svc.Settings.SetAPIKey(keyInput.GetText()); err != nil {
				a.setStatus("[red]" + tview.Escape(err.Error()))
				return
			}
			keyInput.SetText("")
			refresh()
			a.setStatus("[green]API key saved")
		}).
		AddButton("Clear key", func() {
			if err := a.svc.Settings.ClearAPIKey(); err != nil {
				a.setStatus("[red]" + tview.Escape(err.Error()))
				return
			}
			refresh()
			a.setStatus("[green]API key cleared")
		}).
		AddButton("Save model", func() {
			if err := a.svc.Settings.SetModel(strings.TrimSpace(modelInput.GetText())); err != nil {
				a.setStatus("[red]" + tview.Escape(err.Error()))
				return
			}
			modelInput.SetText(a.svc.Settings.Model())
			refresh()
			a.setStatus("[green]Model saved")
		})
	form.SetBorder(true).SetTitle(" Settings ")
	form.SetButtonBackgroundColor(tcell.ColorDarkBlue)

	a.onShow[PanelSettings] = refresh

	a.settingsView = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(info, 6, 0, false).
		AddItem(form, 9, 0, true).
		AddItem(nil, 0, 1, false)
	a.focus[PanelSettings] = form
}
