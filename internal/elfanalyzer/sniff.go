package elfanalyzer

import (
	"bytes"
	"debug/elf"
)

// elfMagic is the ELF magic number bytes.
var elfMagic = []byte(elf.ELFMAG)

// Class is the object class detected from the identification bytes.
type Class int

const (
	// ClassNone means the buffer is not an ELF object (or is too short to tell).
	ClassNone Class = iota
	// ClassELF32 is a 32-bit object.
	ClassELF32
	// ClassELF64 is a 64-bit object.
	ClassELF64
)

// String returns a string representation of Class.
func (c Class) String() string {
	switch c {
	case ClassELF32:
		return "ELF32"
	case ClassELF64:
		return "ELF64"
	default:
		return "none"
	}
}

// Classify inspects the magic number and EI_CLASS byte. Anything shorter than the
// identification header, without the magic, or with an unknown class is ClassNone.
func Classify(buf []byte) Class {
	if len(buf) < elf.EI_NIDENT || !bytes.Equal(buf[:len(elfMagic)], elfMagic) {
		return ClassNone
	}
	switch elf.Class(buf[elf.EI_CLASS]) {
	case elf.ELFCLASS32:
		return ClassELF32
	case elf.ELFCLASS64:
		return ClassELF64
	default:
		return ClassNone
	}
}
