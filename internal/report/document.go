package report

import "github.com/isseis/elfdeps/internal/scanner"

// Document is the structured form shared by the JSON, YAML and TOML encoders.
type Document struct {
	RunID     string    `json:"run_id" yaml:"run_id" toml:"run_id"`
	Directory string    `json:"directory" yaml:"directory" toml:"directory"`
	Stats     Stats     `json:"stats" yaml:"stats" toml:"stats"`
	Libraries []Library `json:"libraries" yaml:"libraries" toml:"libraries"`
	// Skipped lists files left out of the index.
	Skipped []Finding `json:"skipped" yaml:"skipped" toml:"skipped"`
	// Warnings lists unresolved dynamic entries of files that were indexed.
	Warnings []Finding `json:"warnings" yaml:"warnings" toml:"warnings"`
}

type Library struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Count      int      `json:"count" yaml:"count" toml:"count"`
	Dependents []string `json:"dependents" yaml:"dependents" toml:"dependents"`
}

type Finding struct {
	File  string `json:"file" yaml:"file" toml:"file"`
	Kind  string `json:"kind" yaml:"kind" toml:"kind"`
	Error string `json:"error" yaml:"error" toml:"error"`
}

type Stats struct {
	Candidates    int `json:"candidates" yaml:"candidates" toml:"candidates"`
	Parsed        int `json:"parsed" yaml:"parsed" toml:"parsed"`
	Static        int `json:"static" yaml:"static" toml:"static"`
	Skipped       int `json:"skipped" yaml:"skipped" toml:"skipped"`
	EntryFailures int `json:"entry_failures" yaml:"entry_failures" toml:"entry_failures"`
	DedupeHits    int `json:"dedupe_hits" yaml:"dedupe_hits" toml:"dedupe_hits"`
}

// NewDocument converts a scan result. Slices are never nil, so empty lists encode as [].
// Static objects are counted in Stats but not listed.
func NewDocument(res *scanner.Result) *Document {
	doc := &Document{
		RunID:     res.RunID,
		Directory: res.Directory,
		Stats:     Stats(res.Stats),
		Libraries: make([]Library, 0, len(res.Report.Entries)),
		Skipped:   []Finding{},
		Warnings:  []Finding{},
	}
	for _, e := range res.Report.Entries {
		doc.Libraries = append(doc.Libraries, Library{
			Name:       e.Library,
			Count:      e.Count(),
			Dependents: append([]string{}, e.Dependents...),
		})
	}
	for _, d := range res.Diagnostics {
		f := Finding{File: d.File, Kind: d.Kind.String()}
		if d.Err != nil {
			f.Error = d.Err.Error()
		}
		switch {
		case d.Kind.Skipped():
			doc.Skipped = append(doc.Skipped, f)
		case d.Kind == scanner.KindEntryFailure:
			doc.Warnings = append(doc.Warnings, f)
		}
	}
	return doc
}
