package elfanalyzer

import (
	"debug/elf"
	"math"
)

// TagKind is the closed set of dynamic tags the analyzer acts on. Every other tag
// maps to TagOther and is skipped.
type TagKind int

const (
	// TagOther is any tag the analyzer does not interpret.
	TagOther TagKind = iota
	// TagNull terminates the dynamic array.
	TagNull
	// TagNeeded names a required shared library.
	TagNeeded
	// TagStrtab is the address of the dynamic string table.
	TagStrtab
	// TagStrsz is the size of the dynamic string table.
	TagStrsz
)

var tagKinds = map[elf.DynTag]TagKind{
	elf.DT_NULL:   TagNull,
	elf.DT_NEEDED: TagNeeded,
	elf.DT_STRTAB: TagStrtab,
	elf.DT_STRSZ:  TagStrsz,
}

// DynamicEntry is one decoded (tag, value) pair of the .dynamic section.
type DynamicEntry struct {
	Tag   uint64
	Value uint64
}

// DynTag returns the tag as a debug/elf constant.
func (e DynamicEntry) DynTag() elf.DynTag {
	return elf.DynTag(e.Tag)
}

// Kind classifies the entry's tag.
func (e DynamicEntry) Kind() TagKind {
	if e.Tag > math.MaxInt32 {
		return TagOther
	}
	if k, ok := tagKinds[e.DynTag()]; ok {
		return k
	}
	return TagOther
}

// DecodeEntries decodes the fixed-size entries of a dynamic section. Decoding stops at
// DT_NULL or at the end of the section; a trailing partial entry is ignored.
func DecodeEntries(section []byte, h *Header) []DynamicEntry {
	entSize := 8
	if h.Class == ClassELF64 {
		entSize = 16
	}

	entries := make([]DynamicEntry, 0, len(section)/entSize)
	o := h.ByteOrder
	for off := 0; off+entSize <= len(section); off += entSize {
		var e DynamicEntry
		if h.Class == ClassELF64 {
			e = DynamicEntry{Tag: o.Uint64(section[off:]), Value: o.Uint64(section[off+8:])}
		} else {
			e = DynamicEntry{Tag: uint64(o.Uint32(section[off:])), Value: uint64(o.Uint32(section[off+4:]))}
		}
		if e.Kind() == TagNull {
			break
		}
		entries = append(entries, e)
	}
	return entries
}

// NeededRef is a DT_NEEDED entry that still has to be resolved through the string table.
type NeededRef struct {
	Index  int
	Offset uint32
}

// DynamicInfo is what ScanEntries collects from the dynamic entries.
type DynamicInfo struct {
	// Needed holds the DT_NEEDED offsets in entry order. Duplicates are kept.
	Needed []NeededRef

	StrtabAddr uint64
	HasStrtab  bool
	StrSize    uint64
	HasStrsz   bool

	// Warnings holds NEEDED entries that were dropped because their offset is too wide.
	Warnings []*EntryError
}

// ScanEntries walks decoded entries and records the NEEDED offsets and string table bounds.
func ScanEntries(entries []DynamicEntry) DynamicInfo {
	var info DynamicInfo

	for i, e := range entries {
		switch e.Kind() {
		case TagNeeded:
			if e.Value > math.MaxUint32 {
				info.Warnings = append(info.Warnings, &EntryError{
					Index: i, Tag: elf.DT_NEEDED, Offset: e.Value, Err: ErrOffsetTooWide,
				})
				continue
			}
			info.Needed = append(info.Needed, NeededRef{Index: i, Offset: uint32(e.Value)})
		case TagStrtab:
			info.StrtabAddr, info.HasStrtab = e.Value, true
		case TagStrsz:
			info.StrSize, info.HasStrsz = e.Value, true
		case TagNull, TagOther:
		}
	}
	return info
}
