package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/isseis/elfdeps/internal/color"
	"github.com/isseis/elfdeps/internal/depindex"
	"github.com/isseis/elfdeps/internal/elfanalyzer"
	"github.com/isseis/elfdeps/internal/scanner"
)

func sampleResult() *scanner.Result {
	return &scanner.Result{
		RunID:     "01HZXRUN",
		Directory: "/usr/bin",
		Report: depindex.Build([]depindex.Record{
			{File: "a.bin", Libraries: []string{"libx.so", "liby.so"}},
			{File: "b.bin", Libraries: []string{"libx.so"}},
		}),
		Diagnostics: []scanner.Diagnostic{
			{File: "c.bin", Kind: scanner.KindMalformedHeader, Err: &elfanalyzer.HeaderError{Field: "header size", Value: 64, Limit: 20}},
			{File: "s", Kind: scanner.KindStatic, Err: elfanalyzer.ErrNoDynamicSection},
			{File: "a.bin", Kind: scanner.KindEntryFailure, Err: errors.New("bad entry")},
		},
		Stats: scanner.Stats{Candidates: 4, Parsed: 3, Static: 1, Skipped: 1, EntryFailures: 1},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{" yaml ", FormatYAML},
		{"yml", FormatYAML},
		{"toml", FormatTOML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleResult(), Options{}))

	want := "liby.so (1 exes)\n" +
		"\t<= a.bin\n" +
		"\n" +
		"libx.so (2 exes)\n" +
		"\t<= a.bin\n" +
		"\t<= b.bin\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_TextColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleResult(), Options{Color: true}))
	assert.Contains(t, buf.String(), color.Bold("liby.so")+" (1 exes)\n")
}

func TestWrite_TextEmpty(t *testing.T) {
	res := &scanner.Result{Report: depindex.Build(nil)}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, res, Options{}))
	assert.Empty(t, buf.String())
}

func wantDocument() *Document {
	return &Document{
		RunID:     "01HZXRUN",
		Directory: "/usr/bin",
		Stats:     Stats{Candidates: 4, Parsed: 3, Static: 1, Skipped: 1, EntryFailures: 1},
		Libraries: []Library{
			{Name: "liby.so", Count: 1, Dependents: []string{"a.bin"}},
			{Name: "libx.so", Count: 2, Dependents: []string{"a.bin", "b.bin"}},
		},
		Skipped: []Finding{{
			File:  "c.bin",
			Kind:  "malformed-header",
			Error: "malformed ELF header: header size 0x40 exceeds limit 0x14",
		}},
		Warnings: []Finding{{File: "a.bin", Kind: "entry-failure", Error: "bad entry"}},
	}
}

func TestNewDocument(t *testing.T) {
	assert.Equal(t, wantDocument(), NewDocument(sampleResult()))
}

func TestWrite_Structured(t *testing.T) {
	tests := []struct {
		format    Format
		unmarshal func([]byte, any) error
	}{
		{FormatJSON, json.Unmarshal},
		{FormatYAML, yaml.Unmarshal},
		{FormatTOML, toml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.format, sampleResult(), Options{Color: true}))
			assert.NotContains(t, buf.String(), "\033[", "structured output is never colored")

			var got Document
			require.NoError(t, tt.unmarshal(buf.Bytes(), &got))
			assert.Equal(t, wantDocument(), &got)
		})
	}
}

func TestWrite_JSONKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleResult(), Options{}))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"run_id", "directory", "stats", "libraries", "skipped", "warnings"} {
		assert.Contains(t, raw, key)
	}
}

func TestWrite_EmptyListsAreArrays(t *testing.T) {
	res := &scanner.Result{RunID: "r", Directory: "/d", Report: depindex.Build(nil)}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, res, Options{}))
	assert.Contains(t, buf.String(), `"libraries": []`)
	assert.Contains(t, buf.String(), `"skipped": []`)
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("xml"), sampleResult(), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
