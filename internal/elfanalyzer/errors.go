package elfanalyzer

import (
	"debug/elf"
	"errors"
	"fmt"
)

// Static errors
var (
	// ErrNotELF indicates the buffer does not start with a recognized ELF identification.
	ErrNotELF = errors.New("file is not an ELF binary")

	// ErrMalformedHeader indicates that a header field is inconsistent or would cause an
	// out-of-bounds read. No partial extraction is attempted.
	ErrMalformedHeader = errors.New("malformed ELF header")

	// ErrNoDynamicSection indicates the object has no SHT_DYNAMIC section (statically linked).
	ErrNoDynamicSection = errors.New("ELF file has no dynamic section")

	// ErrOffsetOutOfRange indicates a string table offset outside the table bounds.
	ErrOffsetOutOfRange = errors.New("string table offset out of range")

	// ErrUnterminatedString indicates no NUL terminator before the end of the string table.
	ErrUnterminatedString = errors.New("unterminated string in string table")

	// ErrOffsetTooWide indicates a DT_NEEDED value that does not fit a 32-bit string offset.
	ErrOffsetTooWide = errors.New("string table offset exceeds 32 bits")
)

// HeaderError describes which header field failed validation.
// It always matches ErrMalformedHeader with errors.Is.
type HeaderError struct {
	Field string
	Value uint64
	Limit uint64
}

func (e *HeaderError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("%s: invalid %s %#x", ErrMalformedHeader, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s %#x exceeds limit %#x", ErrMalformedHeader, e.Field, e.Value, e.Limit)
}

// Unwrap returns ErrMalformedHeader.
func (e *HeaderError) Unwrap() error {
	return ErrMalformedHeader
}

// EntryError is a recoverable failure attached to a single dynamic entry.
type EntryError struct {
	// Index is the position of the entry in the .dynamic section.
	Index int
	// Tag is the dynamic tag of the entry (e.g. DT_NEEDED).
	Tag elf.DynTag
	// Offset is the string table offset carried by the entry.
	Offset uint64
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("dynamic entry %d (%s, offset %#x): %v", e.Index, e.Tag, e.Offset, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
