// Package platform names the automation targets jarvis can script for.
package platform

import (
	"runtime"
	"strings"
)

// Platform identifies the target of a generated script.
type Platform string

const (
	Windows Platform = "windows"
	Mac     Platform = "mac"
	Unknown Platform = "unknown"
)

var aliases = map[string]Platform{
	"windows": Windows,
	"win":     Windows,
	"win32":   Windows,
	"mac":     Mac,
	"macos":   Mac,
	"darwin":  Mac,
	"osx":     Mac,
}

// Supported reports whether scripts can be generated and launched for p.
func (p Platform) Supported() bool {
	return p == Windows || p == Mac
}

// Label returns p for supported platforms and Unknown otherwise, keeping
// metric label values bounded.
func (p Platform) Label() string {
	if !p.Supported() {
		return string(Unknown)
	}
	return string(p)
}

func (p Platform) String() string {
	return string(p)
}

// Parse normalises a caller supplied platform name. Aliases map to their
// canonical name; any other non-empty value is kept (lowercased) so callers can
// see what they asked for. An empty name yields Unknown.
func Parse(name string) Platform {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Unknown
	}
	if p, ok := aliases[n]; ok {
		return p
	}
	return Platform(n)
}

// Host returns the platform of the running operating system.
func Host() Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) Platform {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return Mac
	default:
		return Unknown
	}
}

// Resolve returns the explicit hint when one is given, otherwise the host
// platform.
func Resolve(hint string) Platform {
	if strings.TrimSpace(hint) == "" {
		return Host()
	}
	return Parse(hint)
}
