package elfanalyzer

import (
	"debug/elf"
	"math/bits"
)

// FindDynamicSection returns the contents of the first SHT_DYNAMIC section.
// It returns ErrNoDynamicSection when the object has none, which is the normal
// case for statically linked binaries.
func FindDynamicSection(buf []byte, h *Header) ([]byte, error) {
	for i := uint64(0); i < h.SectionCount; i++ {
		sh := h.section(buf, i)
		if sh.typ != elf.SHT_DYNAMIC {
			continue
		}
		end, carry := bits.Add64(sh.offset, sh.size, 0)
		if carry != 0 || end > uint64(len(buf)) {
			return nil, &HeaderError{Field: "dynamic section end", Value: end, Limit: uint64(len(buf))}
		}
		return buf[sh.offset:end], nil
	}
	return nil, ErrNoDynamicSection
}

// fileOffset maps a virtual address from the dynamic section (such as DT_STRTAB) to a
// file offset using the PT_LOAD segment that contains it. Objects without a covering
// segment are assumed to be laid out with addresses equal to file offsets.
func fileOffset(buf []byte, h *Header, addr uint64) uint64 {
	for i := uint64(0); i < h.ProgCount; i++ {
		ph := h.prog(buf, i)
		if ph.typ != elf.PT_LOAD || addr < ph.vaddr {
			continue
		}
		if delta := addr - ph.vaddr; delta < ph.filesz {
			if off, carry := bits.Add64(ph.offset, delta, 0); carry == 0 {
				return off
			}
		}
	}
	return addr
}
