package internal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadU8 reads a single byte.
func ReadU8(c *Cursor) (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, fmt.Errorf("internal: read u8: %w", err)
	}
	return b[0], nil
}

// ReadU16LE reads a 16-bit little-endian integer.
func ReadU16LE(c *Cursor) (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, fmt.Errorf("internal: read u16: %w", err)
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32LE reads a 32-bit little-endian integer.
func ReadU32LE(c *Cursor) (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, fmt.Errorf("internal: read u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64LE reads a 64-bit little-endian integer.
func ReadU64LE(c *Cursor) (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, fmt.Errorf("internal: read u64: %w", err)
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadCString reads bytes up to and including the first 0x00 and decodes the
// bytes before it using the named codepage. Any decode error yields
// ("", false) rather than propagating: a string that fails to decode is
// treated as absent, not fatal.
func ReadCString(c *Cursor, codepage string) (string, bool) {
	var raw []byte
	for {
		b, err := ReadU8(c)
		if err != nil {
			break
		}
		if b == 0x00 {
			s, ok := DecodeCodepage(raw, codepage)
			return s, ok
		}
		raw = append(raw, b)
	}
	// Ran out of bytes before the terminator: still attempt to decode what
	// we have, since a truncated tail should not discard an otherwise
	// readable string.
	if len(raw) == 0 {
		return "", false
	}
	s, ok := DecodeCodepage(raw, codepage)
	return s, ok
}

// ReadUCString reads UTF-16LE code units up to and including the first
// 0x0000 pair.
func ReadUCString(c *Cursor) (string, bool) {
	var units []uint16
	for {
		u, err := ReadU16LE(c)
		if err != nil {
			break
		}
		if u == 0x0000 {
			return decodeUTF16LE(units), true
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return "", false
	}
	return decodeUTF16LE(units), true
}

// ReadLenPrefixedUTF16 reads a u16 character count n followed by exactly 2n
// bytes decoded as UTF-16LE.
func ReadLenPrefixedUTF16(c *Cursor) (string, error) {
	n, err := ReadU16LE(c)
	if err != nil {
		return "", fmt.Errorf("internal: read length-prefixed string length: %w", err)
	}
	raw, err := c.ReadBytes(int(n) * 2)
	if err != nil {
		return "", fmt.Errorf("internal: read length-prefixed string body: %w", err)
	}
	return DecodeUTF16LEBytes(raw)
}

// ReadCStringAt reads a null-terminated ANSI string at absolute offset off,
// without disturbing the cursor's current position. Used to resolve the
// offset-table strings of link_info, where every offset is relative to the
// section start rather than the current read position. It slices the tail
// of the buffer via AbsoluteSlice rather than seeking the live cursor, so
// the caller's position is never at risk of being left in the wrong place.
func ReadCStringAt(c *Cursor, off int64, codepage string) (string, bool) {
	if off < 0 || off > c.Length() {
		return "", false
	}
	raw, err := c.AbsoluteSlice(off, c.Length()-off)
	if err != nil {
		return "", false
	}
	if nul := bytes.IndexByte(raw, 0x00); nul >= 0 {
		return DecodeCodepage(raw[:nul], codepage)
	}
	if len(raw) == 0 {
		return "", false
	}
	return DecodeCodepage(raw, codepage)
}

// DecodeUTF16LEBytes decodes a raw byte slice holding UTF-16LE code units,
// using the same golang.org/x/text/encoding/unicode + transform pipeline the
// teacher package uses for its own (UTF-16BE and UTF-16LE) header strings.
func DecodeUTF16LEBytes(raw []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", fmt.Errorf("internal: decode UTF-16LE: %w", err)
	}
	return string(out), nil
}

// decodeUTF16LE decodes already-split uint16 code units (used by the
// null-terminator readers, which must detect the 0x0000 unit before it is
// re-packed into bytes).
func decodeUTF16LE(units []uint16) string {
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}
	s, err := DecodeUTF16LEBytes(raw)
	if err != nil {
		return ""
	}
	return s
}
