package script

import (
	"fmt"
	"strings"
)

// ahkEscaper escapes text for an AutoHotkey v2 double-quoted string. The
// backtick is the AHK escape character.
var ahkEscaper = strings.NewReplacer(
	"`", "``",
	`"`, "`\"",
	"\r", "`r",
	"\n", "`n",
	"\t", "`t",
)

// QuoteAHK returns s as an AutoHotkey v2 string literal.
func QuoteAHK(s string) string {
	return `"` + ahkEscaper.Replace(s) + `"`
}

// appleScriptEscaper escapes text for an AppleScript string literal.
var appleScriptEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
	"\t", `\t`,
)

// QuoteAppleScript returns s as an AppleScript string literal.
func QuoteAppleScript(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

// EscapeURLArg percent-encodes the bytes that could end a double-quoted
// Windows command-line argument: quotes, backslashes and control characters.
func EscapeURLArg(url string) string {
	var b strings.Builder
	for i := 0; i < len(url); i++ {
		c := url[i]
		if c == '"' || c == '\\' || c < 0x20 || c == 0x7f {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
