// Package terminal decides whether diagnostics are written for a person at a terminal
// or for a log collector, and whether that output may use color.
package terminal

import (
	"os"
	"slices"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars are set by common CI systems; their presence means nobody is watching the tty.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILD_NUMBER",
	"TRAVIS",
	"CIRCLECI",
	"BUILDKITE",
	"TF_BUILD",
}

// colorTerms are TERM values (or prefixes before "-") known to handle ANSI colors.
var colorTerms = []string{"xterm", "screen", "tmux", "rxvt", "vt100", "vt220", "ansi", "linux", "alacritty", "kitty"}

// Options holds command line overrides. Force and disable flags win over the environment.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	ForceColor          bool
	DisableColor        bool
}

// Capabilities reports how output should be rendered.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// isTTY reports whether fd refers to a terminal. Tests replace it.
var isTTY = func(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// DefaultCapabilities combines the command line options with environment detection.
type DefaultCapabilities struct {
	opts Options
	env  func(string) (string, bool)
}

// NewCapabilities creates a Capabilities that reads the process environment.
func NewCapabilities(opts Options) *DefaultCapabilities {
	return &DefaultCapabilities{opts: opts, env: os.LookupEnv}
}

// IsInteractive is true when stdout and stderr are both terminals and no CI system is detected.
func (c *DefaultCapabilities) IsInteractive() bool {
	switch {
	case c.opts.ForceInteractive:
		return true
	case c.opts.ForceNonInteractive:
		return false
	case c.isCI():
		return false
	}
	return isTTY(os.Stdout.Fd()) && isTTY(os.Stderr.Fd())
}

// SupportsColor resolves, in order: flags, CLICOLOR_FORCE, NO_COLOR, then (interactive
// only) CLICOLOR and the TERM capability.
func (c *DefaultCapabilities) SupportsColor() bool {
	if c.opts.ForceColor {
		return true
	}
	if c.opts.DisableColor {
		return false
	}
	if v, ok := c.env("CLICOLOR_FORCE"); ok && isTruthy(v) {
		return true
	}
	if _, ok := c.env("NO_COLOR"); ok {
		return false
	}
	if !c.IsInteractive() || !c.termSupportsColor() {
		return false
	}
	if v, ok := c.env("CLICOLOR"); ok && v != "" {
		return isTruthy(v)
	}
	return true
}

func (c *DefaultCapabilities) isCI() bool {
	for _, name := range ciEnvVars {
		v, ok := c.env(name)
		if !ok || v == "" {
			continue
		}
		// CI=false is used to opt out explicitly.
		if name == "CI" {
			return isTruthy(v)
		}
		return true
	}
	return false
}

func (c *DefaultCapabilities) termSupportsColor() bool {
	t, _ := c.env("TERM")
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" || t == "dumb" {
		return false
	}
	base, _, _ := strings.Cut(t, "-")
	return slices.Contains(colorTerms, base)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
