package elfanalyzer

import (
	"debug/elf"
	"encoding/binary"
	"math/bits"
)

// Fixed structure sizes per class.
const (
	elf32HeaderSize  = 52
	elf64HeaderSize  = 64
	elf32SectionSize = 40
	elf64SectionSize = 64
	elf32ProgSize    = 32
	elf64ProgSize    = 56

	// pnXNum in e_phnum means the real count is stored in section 0's sh_info.
	pnXNum = 0xffff
)

// Header holds the validated fields of the ELF file header needed to reach the
// dynamic-linking metadata. Every table it describes lies within the buffer it was
// decoded from.
type Header struct {
	Class     Class
	ByteOrder binary.ByteOrder

	SectionOffset  uint64
	SectionEntSize uint64
	SectionCount   uint64

	ProgOffset  uint64
	ProgEntSize uint64
	ProgCount   uint64
}

// headerLayout lists the field offsets of the file header for one class.
type headerLayout struct {
	size        int
	minSection  uint64
	minProg     uint64
	phoff       int
	shoff       int
	phentsize   int
	phnum       int
	shentsize   int
	shnum       int
	sectionSize int // offset of sh_size inside a section header
}

var (
	layout32 = headerLayout{
		size: elf32HeaderSize, minSection: elf32SectionSize, minProg: elf32ProgSize,
		phoff: 0x1c, shoff: 0x20, phentsize: 0x2a, phnum: 0x2c, shentsize: 0x2e, shnum: 0x30,
		sectionSize: 0x14,
	}
	layout64 = headerLayout{
		size: elf64HeaderSize, minSection: elf64SectionSize, minProg: elf64ProgSize,
		phoff: 0x20, shoff: 0x28, phentsize: 0x36, phnum: 0x38, shentsize: 0x3a, shnum: 0x3c,
		sectionSize: 0x20,
	}
)

func layoutFor(class Class) (headerLayout, bool) {
	switch class {
	case ClassELF32:
		return layout32, true
	case ClassELF64:
		return layout64, true
	default:
		return headerLayout{}, false
	}
}

// DecodeHeader parses the file header for the given class. The section and program
// header tables are validated against len(buf) here, once, so later stages can index
// them without re-checking.
func DecodeHeader(buf []byte, class Class) (*Header, error) {
	l, ok := layoutFor(class)
	if !ok {
		return nil, ErrNotELF
	}
	if len(buf) < l.size {
		return nil, &HeaderError{Field: "header size", Value: uint64(l.size), Limit: uint64(len(buf))}
	}

	var order binary.ByteOrder
	switch elf.Data(buf[elf.EI_DATA]) {
	case elf.ELFDATA2LSB:
		order = binary.LittleEndian
	case elf.ELFDATA2MSB:
		order = binary.BigEndian
	default:
		return nil, &HeaderError{Field: "EI_DATA", Value: uint64(buf[elf.EI_DATA])}
	}

	h := &Header{
		Class:          class,
		ByteOrder:      order,
		SectionEntSize: uint64(order.Uint16(buf[l.shentsize:])),
		SectionCount:   uint64(order.Uint16(buf[l.shnum:])),
		ProgEntSize:    uint64(order.Uint16(buf[l.phentsize:])),
		ProgCount:      uint64(order.Uint16(buf[l.phnum:])),
	}
	if class == ClassELF64 {
		h.ProgOffset = order.Uint64(buf[l.phoff:])
		h.SectionOffset = order.Uint64(buf[l.shoff:])
	} else {
		h.ProgOffset = uint64(order.Uint32(buf[l.phoff:]))
		h.SectionOffset = uint64(order.Uint32(buf[l.shoff:]))
	}

	size := uint64(len(buf))

	if h.SectionOffset == 0 {
		if h.SectionCount != 0 {
			return nil, &HeaderError{Field: "e_shnum", Value: h.SectionCount}
		}
	} else if h.SectionCount == 0 {
		// Extended numbering: the real count lives in sh_size of section 0.
		if err := checkTable("section header table", size, h.SectionOffset, h.SectionEntSize, 1, l.minSection); err != nil {
			return nil, err
		}
		at := h.SectionOffset + uint64(l.sectionSize)
		if class == ClassELF64 {
			h.SectionCount = order.Uint64(buf[at:])
		} else {
			h.SectionCount = uint64(order.Uint32(buf[at:]))
		}
	}
	if err := checkTable("section header table", size, h.SectionOffset, h.SectionEntSize, h.SectionCount, l.minSection); err != nil {
		return nil, err
	}

	// Program headers only serve DT_STRTAB address translation. A table that cannot be
	// read turns translation off; it does not make the object unreadable.
	if h.ProgOffset == 0 || h.ProgCount == pnXNum ||
		checkTable("program header table", size, h.ProgOffset, h.ProgEntSize, h.ProgCount, l.minProg) != nil {
		h.ProgOffset, h.ProgCount = 0, 0
	}

	return h, nil
}

// checkTable verifies that count entries of entSize bytes starting at off fit in size bytes.
func checkTable(name string, size, off, entSize, count, minEntSize uint64) error {
	if count == 0 {
		return nil
	}
	if entSize < minEntSize {
		return &HeaderError{Field: name + " entry size", Value: entSize}
	}
	hi, length := bits.Mul64(entSize, count)
	if hi != 0 {
		return &HeaderError{Field: name + " length", Value: count, Limit: size}
	}
	end, carry := bits.Add64(off, length, 0)
	if carry != 0 || end > size {
		return &HeaderError{Field: name + " end", Value: end, Limit: size}
	}
	return nil
}

// sectionHeader is the subset of a section header the analyzer uses.
type sectionHeader struct {
	typ    elf.SectionType
	offset uint64
	size   uint64
}

// section reads section header i. The caller guarantees i < h.SectionCount.
func (h *Header) section(buf []byte, i uint64) sectionHeader {
	b := buf[h.SectionOffset+i*h.SectionEntSize:]
	o := h.ByteOrder
	if h.Class == ClassELF64 {
		return sectionHeader{
			typ:    elf.SectionType(o.Uint32(b[4:])),
			offset: o.Uint64(b[24:]),
			size:   o.Uint64(b[32:]),
		}
	}
	return sectionHeader{
		typ:    elf.SectionType(o.Uint32(b[4:])),
		offset: uint64(o.Uint32(b[16:])),
		size:   uint64(o.Uint32(b[20:])),
	}
}

// progHeader is the subset of a program header the analyzer uses.
type progHeader struct {
	typ    elf.ProgType
	offset uint64
	vaddr  uint64
	filesz uint64
}

// prog reads program header i. The caller guarantees i < h.ProgCount.
func (h *Header) prog(buf []byte, i uint64) progHeader {
	b := buf[h.ProgOffset+i*h.ProgEntSize:]
	o := h.ByteOrder
	if h.Class == ClassELF64 {
		return progHeader{
			typ:    elf.ProgType(o.Uint32(b[0:])),
			offset: o.Uint64(b[8:]),
			vaddr:  o.Uint64(b[16:]),
			filesz: o.Uint64(b[32:]),
		}
	}
	return progHeader{
		typ:    elf.ProgType(o.Uint32(b[0:])),
		offset: uint64(o.Uint32(b[4:])),
		vaddr:  uint64(o.Uint32(b[8:])),
		filesz: uint64(o.Uint32(b[16:])),
	}
}
