package elfanalyzer

import (
	"debug/elf"
	"encoding/binary"
	"errors"
)

// Dependencies is the result of analyzing one object.
type Dependencies struct {
	Class     Class
	ByteOrder binary.ByteOrder

	// Static is set when the object has no dynamic section. Libraries is then empty.
	Static bool

	// Libraries lists the DT_NEEDED names in entry order, duplicates included.
	Libraries []string

	// Warnings lists entries that could not be resolved. They do not invalidate Libraries.
	Warnings []*EntryError
}

// Analyze extracts the declared shared-library dependencies from an ELF object held in buf.
//
// Returns:
//   - ErrNotELF: buf is not an ELF object; the header is not decoded
//   - an error matching ErrMalformedHeader: the header or section table is inconsistent
//   - Dependencies with Static set: no dynamic section
//   - Dependencies: everything else, with per-entry failures in Warnings
func Analyze(buf []byte) (*Dependencies, error) {
	class := Classify(buf)
	if class == ClassNone {
		return nil, ErrNotELF
	}

	h, err := DecodeHeader(buf, class)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Class: class, ByteOrder: h.ByteOrder}

	section, err := FindDynamicSection(buf, h)
	if errors.Is(err, ErrNoDynamicSection) {
		deps.Static = true
		return deps, nil
	}
	if err != nil {
		return nil, err
	}

	info := ScanEntries(DecodeEntries(section, h))
	deps.Warnings = append(deps.Warnings, info.Warnings...)

	// A table missing either bound has length 0, so every lookup fails cleanly.
	var table StringTable
	if info.HasStrtab && info.HasStrsz {
		table = NewStringTable(buf, fileOffset(buf, h, info.StrtabAddr), info.StrSize)
	}

	deps.Libraries = make([]string, 0, len(info.Needed))
	for _, ref := range info.Needed {
		name, err := table.Lookup(uint64(ref.Offset))
		if err != nil {
			deps.Warnings = append(deps.Warnings, &EntryError{
				Index: ref.Index, Tag: elf.DT_NEEDED, Offset: uint64(ref.Offset), Err: err,
			})
			continue
		}
		deps.Libraries = append(deps.Libraries, name)
	}

	return deps, nil
}
