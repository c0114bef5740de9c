package scanner

// Kind classifies the outcome of one candidate file.
type Kind int

const (
	// KindOK means the file was parsed and its dependencies recorded.
	KindOK Kind = iota
	// KindStatic means the file is a valid ELF object without a dynamic section.
	// It is recorded with zero dependencies.
	KindStatic
	// KindIoFailure means the file could not be read.
	KindIoFailure
	// KindNotObjectFormat means the file is not an ELF object.
	KindNotObjectFormat
	// KindMalformedHeader means the header or section table is inconsistent.
	KindMalformedHeader
	// KindEntryFailure marks a single dynamic entry that could not be resolved. The file
	// itself is still recorded.
	KindEntryFailure
)

var kindNames = [...]string{
	KindOK:              "ok",
	KindStatic:          "static",
	KindIoFailure:       "io-failure",
	KindNotObjectFormat: "not-object-format",
	KindMalformedHeader: "malformed-header",
	KindEntryFailure:    "entry-failure",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Skipped reports whether a file with this outcome is left out of the index.
func (k Kind) Skipped() bool {
	return k == KindIoFailure || k == KindNotObjectFormat || k == KindMalformedHeader
}

// Diagnostic is a non-fatal finding about one file.
type Diagnostic struct {
	File string
	Kind Kind
	Err  error
}
