// Package report renders a scan result as text, JSON, YAML or TOML.
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/isseis/elfdeps/internal/color"
	"github.com/isseis/elfdeps/internal/scanner"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported formats in the order shown in help output.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat accepts a format name in any case. "yml" is an alias for "yaml".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Options controls rendering.
type Options struct {
	// Color highlights library names in the text format.
	Color bool
}

// Write renders res to w.
func Write(w io.Writer, format Format, res *scanner.Result, opts Options) error {
	switch format {
	case FormatText:
		return writeText(w, res, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(res))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(res)); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(NewDocument(res))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// writeText prints one block per library, least depended-upon first:
//
//	libfoo.so (2 exes)
//		<= /usr/bin/a
//		<= /usr/bin/b
func writeText(w io.Writer, res *scanner.Result, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, e := range res.Report.Entries {
		_, _ = fmt.Fprintf(bw, "%s (%d exes)\n", color.Bold.If(opts.Color, e.Library), e.Count())
		for _, file := range e.Dependents {
			_, _ = fmt.Fprintf(bw, "\t<= %s\n", file)
		}
		_, _ = bw.WriteString("\n")
	}
	return bw.Flush()
}
