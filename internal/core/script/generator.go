package script

import (
	"fmt"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
)

const (
	defaultURL  = "https://google.com"
	defaultText = "Hello from Jarvis"
)

// Generator renders a plan as source text in one automation language.
// Generate must be a pure function of the plan.
type Generator interface {
	// Extension is the file extension of generated scripts, with the dot.
	Extension() string
	Generate(plan ai.Plan) string
}

// AHKGenerator writes AutoHotkey v2 scripts for Windows.
type AHKGenerator struct {
	// Browser is the executable used for open_website.
	Browser string
	// DefaultApp is launched when open_app has no app_name.
	DefaultApp string
}

// NewAHKGenerator returns a generator with the default browser and app.
func NewAHKGenerator() *AHKGenerator {
	return &AHKGenerator{Browser: "chrome.exe", DefaultApp: "notepad.exe"}
}

func (g *AHKGenerator) Extension() string { return ".ahk" }

func (g *AHKGenerator) Generate(plan ai.Plan) string {
	switch plan.Intent() {
	case ai.IntentOpenWebsite:
		url := plan.Argument("url", defaultURL)
		// Run takes one command line; the url is passed as a quoted argument.
		return fmt.Sprintf("\nRun(%s)\n", QuoteAHK(g.Browser+` "`+EscapeURLArg(url)+`"`))
	case ai.IntentOpenApp:
		app := plan.Argument("app_name", g.DefaultApp)
		return fmt.Sprintf("\nRun(%s)\n", QuoteAHK(app))
	case ai.IntentTypeText:
		text := plan.Argument("text", defaultText)
		// SendText types the text literally, without Send's {} and ^!+# syntax.
		return fmt.Sprintf("\nSendText(%s)\n", QuoteAHK(text))
	default:
		return "\nMsgBox(\"Jarvis: Unknown intent on Windows.\")\n"
	}
}

// AppleScriptGenerator writes AppleScript for macOS.
type AppleScriptGenerator struct {
	// Browser is the application asked to open urls.
	Browser string
	// DefaultApp is activated when open_app has no app_name.
	DefaultApp string
}

// NewAppleScriptGenerator returns a generator with the default browser and app.
func NewAppleScriptGenerator() *AppleScriptGenerator {
	return &AppleScriptGenerator{Browser: "Google Chrome", DefaultApp: "Notes"}
}

func (g *AppleScriptGenerator) Extension() string { return ".scpt" }

func (g *AppleScriptGenerator) Generate(plan ai.Plan) string {
	switch plan.Intent() {
	case ai.IntentOpenWebsite:
		url := plan.Argument("url", defaultURL)
		return fmt.Sprintf(`
tell application %s
    activate
    open location %s
end tell
`, QuoteAppleScript(g.Browser), QuoteAppleScript(url))
	case ai.IntentOpenApp:
		app := plan.Argument("app_name", g.DefaultApp)
		return fmt.Sprintf(`
tell application %s
    activate
end tell
`, QuoteAppleScript(app))
	case ai.IntentTypeText:
		text := plan.Argument("text", defaultText)
		return fmt.Sprintf(`
tell application "System Events"
    keystroke %s
end tell
`, QuoteAppleScript(text))
	default:
		return "\ndisplay dialog \"Jarvis: Unknown intent on macOS.\"\n"
	}
}
