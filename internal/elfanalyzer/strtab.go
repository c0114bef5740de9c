package elfanalyzer

import (
	"bytes"
	"math/bits"
	"strings"
	"unicode/utf8"
)

// StringTable is a bounds-checked view of a NUL-separated string table inside a buffer.
// The view always satisfies start <= end <= len(data).
type StringTable struct {
	data  []byte
	start uint64
	end   uint64
}

// NewStringTable returns a view of size bytes starting at start. The view is clamped to
// the buffer, so a table declared past the end of the file resolves only what exists.
func NewStringTable(data []byte, start, size uint64) StringTable {
	n := uint64(len(data))
	if start > n {
		start = n
	}
	end, carry := bits.Add64(start, size, 0)
	if carry != 0 || end > n {
		end = n
	}
	return StringTable{data: data, start: start, end: end}
}

// Len returns the number of bytes covered by the view.
func (t StringTable) Len() uint64 {
	return t.end - t.start
}

// Lookup returns the NUL-terminated string at offset, relative to the table start.
// Invalid UTF-8 is replaced rather than rejected. The returned string does not share
// memory with the buffer.
func (t StringTable) Lookup(offset uint64) (string, error) {
	pos, carry := bits.Add64(t.start, offset, 0)
	if carry != 0 || pos >= t.end || pos >= uint64(len(t.data)) {
		return "", ErrOffsetOutOfRange
	}
	n := bytes.IndexByte(t.data[pos:t.end], 0)
	if n < 0 {
		return "", ErrUnterminatedString
	}
	return decodeLossy(t.data[pos : pos+uint64(n)]), nil
}

// decodeLossy converts b to a string, writing one U+FFFD for each maximal ill-formed
// subsequence, the same substitution the Unicode standard recommends.
func decodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[invalidPrefixLen(b):]
			continue
		}
		sb.Write(b[:size])
		b = b[size:]
	}
	return sb.String()
}

// invalidPrefixLen returns the length of the maximal prefix of b that could start a
// well-formed sequence but does not complete one. It is at least 1.
func invalidPrefixLen(b []byte) int {
	lead := b[0]
	var want int
	lo, hi := byte(0x80), byte(0xBF)
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		want = 2
	case lead == 0xE0:
		want, lo = 3, 0xA0
	case lead == 0xED:
		want, hi = 3, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		want = 3
	case lead == 0xF0:
		want, lo = 4, 0x90
	case lead == 0xF4:
		want, hi = 4, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		want = 4
	default:
		return 1
	}
	if len(b) < 2 || b[1] < lo || b[1] > hi {
		return 1
	}
	n := 2
	for n < want && n < len(b) && b[n] >= 0x80 && b[n] <= 0xBF {
		n++
	}
	return n
}
