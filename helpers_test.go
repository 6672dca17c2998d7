package lnk

import (
	"bytes"
	"encoding/binary"
)

var validClassIDBytes = [16]byte{
	0x01, 0x14, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
}

type headerParams struct {
	dataFlags      uint32
	fileAttrs      uint32
	createTime     uint64
	accessTime     uint64
	modifyTime     uint64
	fileSize       uint32
	iconIndex      int32
	showCommand    uint32
	hotKeyLow      byte
	hotKeyHigh     byte
	classID        [16]byte
	badClassID     bool
}

func buildHeaderBytes(p headerParams) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, uint32(headerSize))
	classID := validClassIDBytes
	if p.badClassID {
		classID[0] = 0xFF
	}
	if p.classID != ([16]byte{}) {
		classID = p.classID
	}
	buf.Write(classID[:])
	_ = binary.Write(buf, binary.LittleEndian, p.dataFlags)
	_ = binary.Write(buf, binary.LittleEndian, p.fileAttrs)
	_ = binary.Write(buf, binary.LittleEndian, p.createTime)
	_ = binary.Write(buf, binary.LittleEndian, p.accessTime)
	_ = binary.Write(buf, binary.LittleEndian, p.modifyTime)
	_ = binary.Write(buf, binary.LittleEndian, p.fileSize)
	_ = binary.Write(buf, binary.LittleEndian, p.iconIndex)
	_ = binary.Write(buf, binary.LittleEndian, p.showCommand)
	buf.WriteByte(p.hotKeyLow)
	buf.WriteByte(p.hotKeyHigh)
	_ = binary.Write(buf, binary.LittleEndian, uint16(0)) // reserved1
	_ = binary.Write(buf, binary.LittleEndian, uint32(0)) // reserved2
	_ = binary.Write(buf, binary.LittleEndian, uint32(0)) // reserved3
	return buf.Bytes()
}

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func utf16LE(s string) []byte {
	var out []byte
	for _, r := range s {
		out = append(out, u16le(uint16(r))...)
	}
	return out
}

// lenPrefixedUTF16 builds a {CharCount: u16, Chars: UTF-16LE} string field.
func lenPrefixedUTF16(s string) []byte {
	body := utf16LE(s)
	out := u16le(uint16(len(body) / 2))
	return append(out, body...)
}

// cstringCP1252 builds a null-terminated single-byte string; all test
// fixtures here stay within ASCII, so codepage choice does not matter for
// the byte encoding.
func cstringCP1252(s string) []byte {
	return append([]byte(s), 0x00)
}

// fixedAnsiUnicodePair builds the 260-byte ANSI + 520-byte Unicode fixed
// path pair used by EnvironmentVariables/Darwin/IconEnvironment extra-data
// blocks.
func fixedAnsiUnicodePair(s string) []byte {
	ansi := make([]byte, ansiFixedPathLen)
	copy(ansi, s)
	uni := make([]byte, unicodeFixedPathLen)
	copy(uni, utf16LE(s))
	return append(ansi, uni...)
}

func extraDataBlock(signature uint32, body []byte) []byte {
	size := uint32(8 + len(body))
	out := u32le(size)
	out = append(out, u32le(signature)...)
	out = append(out, body...)
	return out
}

func extraDataTerminator() []byte {
	return u32le(0)
}
