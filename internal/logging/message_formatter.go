package logging

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/isseis/elfdeps/internal/color"
)

// MessageFormatter renders records for the interactive handler.
type MessageFormatter interface {
	FormatRecordWithColor(record slog.Record, useColor bool) string
}

// priorityKeys are printed first, in this order, when present.
var priorityKeys = []string{"error", "file", "kind", "library"}

// hiddenKeys carry run metadata that belongs in the log file, not on the terminal.
var hiddenKeys = []string{"run_id", "hostname", "pid", "schema_version"}

// DefaultMessageFormatter prints a level marker, the message, and the record's attributes
// with the diagnostic ones first.
type DefaultMessageFormatter struct{}

func NewDefaultMessageFormatter() *DefaultMessageFormatter {
	return &DefaultMessageFormatter{}
}

func (f *DefaultMessageFormatter) FormatRecordWithColor(record slog.Record, useColor bool) string {
	var sb strings.Builder
	sb.WriteString(formatLevel(record.Level, useColor))
	sb.WriteString(" ")
	sb.WriteString(record.Message)

	for _, a := range orderedAttrs(record) {
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(a.Value))
	}
	return sb.String()
}

// orderedAttrs returns the visible attributes: priority keys first, then the rest in
// record order. Keys match on their last dotted component, so group prefixes do not hide them.
func orderedAttrs(record slog.Record) []slog.Attr {
	all := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		if !slices.Contains(hiddenKeys, baseKey(a.Key)) {
			all = append(all, a)
		}
		return true
	})

	out := make([]slog.Attr, 0, len(all))
	used := make([]bool, len(all))
	for _, key := range priorityKeys {
		for i, a := range all {
			if !used[i] && baseKey(a.Key) == key {
				out = append(out, a)
				used[i] = true
				break
			}
		}
	}
	for i, a := range all {
		if !used[i] {
			out = append(out, a)
		}
	}
	return out
}

func baseKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func formatLevel(level slog.Level, useColor bool) string {
	if !useColor {
		switch level {
		case slog.LevelDebug:
			return "[DEBUG]"
		case slog.LevelInfo:
			return "[INFO ]"
		case slog.LevelWarn:
			return "[WARN ]"
		case slog.LevelError:
			return "[ERROR]"
		default:
			return "[" + strings.ToUpper(level.String()) + "]"
		}
	}
	switch level {
	case slog.LevelDebug:
		return color.Gray("* DEBUG")
	case slog.LevelInfo:
		return color.Green("+ INFO ")
	case slog.LevelWarn:
		return color.Yellow("! WARN ")
	case slog.LevelError:
		return color.Red("X ERROR")
	default:
		return color.Gray("> " + level.String())
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindGroup:
		attrs := v.Group()
		parts := make([]string, 0, len(attrs))
		for _, a := range attrs {
			parts = append(parts, a.Key+"="+formatValue(a.Value))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case slog.KindString, slog.KindAny:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return quote(s)
		}
		return s
	default:
		return v.String()
	}
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`).Replace(s) + `"`
}
