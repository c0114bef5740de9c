package elfanalyzer

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	elfanalyzertesting "github.com/isseis/elfdeps/internal/elfanalyzer/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name    string
		class   elf.Class
		order   binary.ByteOrder
		want    Class
		entSize uint64
	}{
		{"ELF64 LSB", elf.ELFCLASS64, binary.LittleEndian, ClassELF64, 64},
		{"ELF64 MSB", elf.ELFCLASS64, binary.BigEndian, ClassELF64, 64},
		{"ELF32 LSB", elf.ELFCLASS32, binary.LittleEndian, ClassELF32, 40},
		{"ELF32 MSB", elf.ELFCLASS32, binary.BigEndian, ClassELF32, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, layout := elfanalyzertesting.Builder{
				Class:    tt.class,
				Order:    tt.order,
				LoadBase: 0x10000,
			}.BuildWithLayout()

			h, err := DecodeHeader(buf, Classify(buf))
			require.NoError(t, err)

			assert.Equal(t, tt.want, h.Class)
			assert.Equal(t, tt.order, h.ByteOrder)
			assert.Equal(t, uint64(layout.SectionOffset), h.SectionOffset)
			assert.Equal(t, uint64(layout.SectionCount), h.SectionCount)
			assert.Equal(t, tt.entSize, h.SectionEntSize)
			assert.Equal(t, uint64(layout.ProgOffset), h.ProgOffset)
			assert.Equal(t, uint64(1), h.ProgCount)
		})
	}
}

func TestDecodeHeader_RejectsClassNone(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 64), ClassNone)
	assert.ErrorIs(t, err, ErrNotELF)
}

func TestDecodeHeader_ExtendedSectionNumbering(t *testing.T) {
	buf, layout := elfanalyzertesting.Builder{
		Strings: []byte("libc.so.6\x00"),
		Entries: []elfanalyzertesting.Entry{elfanalyzertesting.Needed(0)},
	}.BuildWithLayout()

	// e_shnum = 0, real count in sh_size of section 0.
	binary.LittleEndian.PutUint16(buf[0x3c:], 0)
	binary.LittleEndian.PutUint64(buf[layout.SectionOffset+32:], uint64(layout.SectionCount))

	h, err := DecodeHeader(buf, ClassELF64)
	require.NoError(t, err)
	assert.Equal(t, uint64(layout.SectionCount), h.SectionCount)

	deps, err := Analyze(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"libc.so.6"}, deps.Libraries)
}

func TestDecodeHeader_ExtendedSectionNumberingTooLarge(t *testing.T) {
	buf, layout := elfanalyzertesting.Builder{}.BuildWithLayout()

	binary.LittleEndian.PutUint16(buf[0x3c:], 0)
	binary.LittleEndian.PutUint64(buf[layout.SectionOffset+32:], 1<<40)

	_, err := DecodeHeader(buf, ClassELF64)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestHeaderError_Message(t *testing.T) {
	err := &HeaderError{Field: "section header table end", Value: 0x200, Limit: 0x100}
	assert.Equal(t, "malformed ELF header: section header table end 0x200 exceeds limit 0x100", err.Error())

	err = &HeaderError{Field: "EI_DATA", Value: 7}
	assert.Equal(t, "malformed ELF header: invalid EI_DATA 0x7", err.Error())
}

func TestDecodeHeader_UnreadableProgramTableIsDropped(t *testing.T) {
	buf, layout := elfanalyzertesting.Builder{LoadBase: 0x10000}.BuildWithLayout()
	binary.LittleEndian.PutUint16(buf[0x38:], pnXNum)

	h, err := DecodeHeader(buf, ClassELF64)
	require.NoError(t, err)
	assert.Zero(t, h.ProgCount)
	assert.Zero(t, h.ProgOffset)
	assert.Equal(t, uint64(layout.SectionCount), h.SectionCount)
}
