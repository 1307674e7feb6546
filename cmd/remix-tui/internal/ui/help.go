package ui

import (
	"github.com/rivo/tview"
)

// createHelpPanel creates the help panel.
func (a *App) createHelpPanel() {
	a.helpView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.helpView.SetBorder(true).SetTitle(" Help ")

	helpText := `[yellow::b]Video Remix - Terminal User Interface[white]

Download videos from Douyin share links and rewrite their scripts
with Gemini.

[yellow::b]GLOBAL NAVIGATION[white]
[cyan]F1[white]           Download       - Fetch a video from share text
[cyan]F2[white]           Copywriting    - Analyze and rewrite a video
[cyan]F3[white]           Settings       - API key and model
[cyan]F4[white]           Help           - This help screen
[cyan]Tab[white]          Next field or button
[cyan]Ctrl+Q[white]       Quit

[yellow::b]DOWNLOAD PANEL[white]
Paste the whole share message. The first link in it is resolved,
the video is saved to the downloads directory and the progress log
shows each step. When resolution fails the raw response is shown.

[yellow::b]COPYWRITING PANEL[white]
[cyan]Ctrl+L[white]       Focus the video list, Enter picks a video
[cyan]Escape[white]       Back to the form
[white::b]Generate[white]     Upload, transcribe, analyze and rewrite
[white::b]Regenerate[white]   Rewrite again with the current positioning
[white::b]Refine[white]       Send the instruction as a follow-up turn
[white::b]Save[white]         Write the script to the scripts directory
[white::b]Quick[white]        Run a single prompt against the video

Only one task runs at a time. Long steps are retried when the
backend reports it is overloaded.

[yellow::b]SETTINGS PANEL[white]
The key is stored in the settings file and takes precedence over
GEMINI_API_KEY. Clearing it falls back to the environment.
`

	a.helpView.SetText(helpText)
}
