// Package color wraps text in ANSI escape sequences for terminal output.
//
//nolint:revive // package name conflicts with standard library
package color

const (
	resetCode  = "\033[0m"
	boldCode   = "\033[1m"
	grayCode   = "\033[90m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	cyanCode   = "\033[36m"
)

// Color wraps text with an ANSI escape sequence and a reset.
type Color func(text string) string

// NewColor creates a Color for the given ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

// If applies c only when enabled is true.
func (c Color) If(enabled bool, text string) string {
	if !enabled {
		return text
	}
	return c(text)
}

var (
	Bold   = NewColor(boldCode)
	Gray   = NewColor(grayCode)
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Red    = NewColor(redCode)
	Cyan   = NewColor(cyanCode)
)
