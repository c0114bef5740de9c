// Package elfanalyzertesting builds small synthetic ELF objects for tests.
//
// The objects carry only what dependency extraction looks at: the file header, an
// optional PT_LOAD program header, a string table, a .dynamic section and a section
// header table.
package elfanalyzertesting

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Entry is a raw dynamic entry written verbatim into .dynamic.
type Entry struct {
	Tag   elf.DynTag
	Value uint64
}

// Needed returns a DT_NEEDED entry for the given string table offset.
func Needed(offset uint64) Entry {
	return Entry{Tag: elf.DT_NEEDED, Value: offset}
}

// Builder describes a synthetic object. The zero value builds a 64-bit little-endian
// shared object with an empty dynamic section.
type Builder struct {
	// Class defaults to ELFCLASS64.
	Class elf.Class
	// Order defaults to binary.LittleEndian.
	Order binary.ByteOrder

	// Strings is the content of the dynamic string table.
	Strings []byte
	// Entries follow the DT_STRTAB and DT_STRSZ entries generated for Strings.
	Entries []Entry

	// NoStrtab and NoStrsz drop the generated DT_STRTAB or DT_STRSZ entry.
	NoStrtab bool
	NoStrsz  bool
	// StrszDelta is added to the generated DT_STRSZ value.
	StrszDelta int64

	// OmitNull leaves the dynamic section without a DT_NULL terminator.
	OmitNull bool
	// Static builds an object without an SHT_DYNAMIC section.
	Static bool

	// LoadBase, when non-zero, adds a PT_LOAD segment mapping the whole file at this
	// address. DT_STRTAB then holds an address rather than a file offset.
	LoadBase uint64
}

// Layout reports where Build placed each part of the object.
type Layout struct {
	ProgOffset    int
	StringsOffset int
	DynamicOffset int
	DynamicSize   int
	SectionOffset int
	SectionCount  int
	Size          int
}

type classSizes struct {
	header, prog, section, dyn int
}

func (b Builder) sizes() classSizes {
	if b.class() == elf.ELFCLASS32 {
		return classSizes{header: 52, prog: 32, section: 40, dyn: 8}
	}
	return classSizes{header: 64, prog: 56, section: 64, dyn: 16}
}

func (b Builder) class() elf.Class {
	if b.Class == elf.ELFCLASSNONE {
		return elf.ELFCLASS64
	}
	return b.Class
}

func (b Builder) order() binary.ByteOrder {
	if b.Order == nil {
		return binary.LittleEndian
	}
	return b.Order
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// dynamicEntries returns the full entry list, terminator included.
func (b Builder) dynamicEntries(strOff int) []Entry {
	var entries []Entry
	if !b.NoStrtab {
		entries = append(entries, Entry{Tag: elf.DT_STRTAB, Value: b.LoadBase + uint64(strOff)})
	}
	if !b.NoStrsz {
		entries = append(entries, Entry{Tag: elf.DT_STRSZ, Value: uint64(int64(len(b.Strings)) + b.StrszDelta)})
	}
	entries = append(entries, b.Entries...)
	if !b.OmitNull {
		entries = append(entries, Entry{Tag: elf.DT_NULL})
	}
	return entries
}

// BuildWithLayout assembles the object and reports its layout.
func (b Builder) BuildWithLayout() ([]byte, Layout) {
	sz := b.sizes()
	var l Layout

	off := sz.header
	if b.LoadBase != 0 {
		l.ProgOffset = off
		off += sz.prog
	}
	l.StringsOffset = off
	off = align8(off + len(b.Strings))

	var entries []Entry
	if !b.Static {
		entries = b.dynamicEntries(l.StringsOffset)
		l.DynamicOffset = off
		l.DynamicSize = len(entries) * sz.dyn
		off += l.DynamicSize
	}

	l.SectionOffset = align8(off)
	l.SectionCount = 2
	if !b.Static {
		l.SectionCount = 3
	}
	l.Size = l.SectionOffset + l.SectionCount*sz.section

	buf := make([]byte, l.Size)
	w := writer{buf: buf, order: b.order(), is64: b.class() == elf.ELFCLASS64}

	w.header(b, sz, l)
	if b.LoadBase != 0 {
		w.prog(l.ProgOffset, elf.PT_LOAD, 0, b.LoadBase, uint64(l.Size))
	}
	copy(buf[l.StringsOffset:], b.Strings)
	for i, e := range entries {
		w.dyn(l.DynamicOffset+i*sz.dyn, e)
	}

	// Section 0 is the reserved null section.
	w.section(l.SectionOffset+sz.section, elf.SHT_STRTAB, uint64(l.StringsOffset), uint64(len(b.Strings)))
	if !b.Static {
		w.section(l.SectionOffset+2*sz.section, elf.SHT_DYNAMIC, uint64(l.DynamicOffset), uint64(l.DynamicSize))
	}

	return buf, l
}

// Build assembles the object.
func (b Builder) Build() []byte {
	buf, _ := b.BuildWithLayout()
	return buf
}

// NeededObject builds a 64-bit little-endian object whose string table is strtab and
// whose DT_NEEDED entries carry the given offsets.
func NeededObject(strtab string, offsets ...uint64) []byte {
	b := Builder{Strings: []byte(strtab)}
	for _, off := range offsets {
		b.Entries = append(b.Entries, Needed(off))
	}
	return b.Build()
}

// WriteFile writes data to path for tests that go through the file system.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	err := os.WriteFile(path, data, 0o644) //nolint:gosec // test helper: 0644 is intentional for test files
	require.NoError(t, err)
}

type writer struct {
	buf   []byte
	order binary.ByteOrder
	is64  bool
}

// word writes a class-sized field (Elf32_Addr/Off or Elf64_Addr/Off).
func (w writer) word(at int, v uint64) int {
	if w.is64 {
		w.order.PutUint64(w.buf[at:], v)
		return at + 8
	}
	w.order.PutUint32(w.buf[at:], uint32(v))
	return at + 4
}

func (w writer) header(b Builder, sz classSizes, l Layout) {
	copy(w.buf, elf.ELFMAG)
	w.buf[elf.EI_CLASS] = byte(b.class())
	if b.order() == binary.BigEndian {
		w.buf[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		w.buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}
	w.buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	machine := elf.EM_X86_64
	if !w.is64 {
		machine = elf.EM_386
	}
	w.order.PutUint16(w.buf[16:], uint16(elf.ET_DYN))
	w.order.PutUint16(w.buf[18:], uint16(machine))
	w.order.PutUint32(w.buf[20:], uint32(elf.EV_CURRENT))

	at := w.word(24, 0) // e_entry
	phoff, phnum := uint64(0), uint16(0)
	if b.LoadBase != 0 {
		phoff, phnum = uint64(l.ProgOffset), 1
	}
	at = w.word(at, phoff)
	at = w.word(at, uint64(l.SectionOffset))
	at += 4 // e_flags
	w.order.PutUint16(w.buf[at:], uint16(sz.header))
	w.order.PutUint16(w.buf[at+2:], uint16(sz.prog))
	w.order.PutUint16(w.buf[at+4:], phnum)
	w.order.PutUint16(w.buf[at+6:], uint16(sz.section))
	w.order.PutUint16(w.buf[at+8:], uint16(l.SectionCount))
}

func (w writer) prog(at int, typ elf.ProgType, offset, vaddr, filesz uint64) {
	if w.is64 {
		w.order.PutUint32(w.buf[at:], uint32(typ))
		w.order.PutUint32(w.buf[at+4:], uint32(elf.PF_R))
		w.order.PutUint64(w.buf[at+8:], offset)
		w.order.PutUint64(w.buf[at+16:], vaddr)
		w.order.PutUint64(w.buf[at+24:], vaddr)
		w.order.PutUint64(w.buf[at+32:], filesz)
		w.order.PutUint64(w.buf[at+40:], filesz)
		return
	}
	w.order.PutUint32(w.buf[at:], uint32(typ))
	w.order.PutUint32(w.buf[at+4:], uint32(offset))
	w.order.PutUint32(w.buf[at+8:], uint32(vaddr))
	w.order.PutUint32(w.buf[at+12:], uint32(vaddr))
	w.order.PutUint32(w.buf[at+16:], uint32(filesz))
	w.order.PutUint32(w.buf[at+20:], uint32(filesz))
	w.order.PutUint32(w.buf[at+24:], uint32(elf.PF_R))
}

func (w writer) section(at int, typ elf.SectionType, offset, size uint64) {
	w.order.PutUint32(w.buf[at+4:], uint32(typ))
	if w.is64 {
		w.order.PutUint64(w.buf[at+24:], offset)
		w.order.PutUint64(w.buf[at+32:], size)
		return
	}
	w.order.PutUint32(w.buf[at+16:], uint32(offset))
	w.order.PutUint32(w.buf[at+20:], uint32(size))
}

func (w writer) dyn(at int, e Entry) {
	if w.is64 {
		w.order.PutUint64(w.buf[at:], uint64(e.Tag))
		w.order.PutUint64(w.buf[at+8:], e.Value)
		return
	}
	w.order.PutUint32(w.buf[at:], uint32(e.Tag))
	w.order.PutUint32(w.buf[at+4:], uint32(e.Value))
}
