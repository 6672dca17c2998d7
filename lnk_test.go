package lnk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildLinkTargetIDList builds a two-item ID list.
func buildLinkTargetIDList() []byte {
	item1 := append(u16le(6), []byte{1, 2, 3, 4}...)
	item2 := append(u16le(5), []byte{9, 9, 9}...)
	terminator := u16le(0)
	body := append(append(append([]byte{}, item1...), item2...), terminator...)
	size := uint16(len(body) + 2)
	return append(u16le(size), body...)
}

// TestParseBytesHeaderOnlyNoSections parses a header-only link: DataFlags
// = 0 and a single extra-data terminator, so every optional section stays
// nil.
func TestParseBytesHeaderOnlyNoSections(t *testing.T) {
	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{})...)
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Nil(t, rec.LinkTargetIDList)
	require.Nil(t, rec.LinkInfo)
	require.Nil(t, rec.StringData)
	require.Empty(t, rec.ExtraData)
	require.Empty(t, rec.Warnings)
}

// TestParseBytesLocalTargetWithRelativePath parses an ID list, ANSI-only
// link-info with a local volume, and a relative-path string.
func TestParseBytesLocalTargetWithRelativePath(t *testing.T) {
	const dataFlags = 0x00000001 | 0x00000002 | 0x00000008 // HasLinkTargetIDList | HasLinkInfo | HasRelativePath

	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{dataFlags: dataFlags})...)
	raw = append(raw, buildLinkTargetIDList()...)
	raw = append(raw, buildLocalLinkInfo()...)
	raw = append(raw, lenPrefixedUTF16(`..\..\Windows\notepad.exe`)...)
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, rec.LinkTargetIDList)
	require.Len(t, rec.LinkTargetIDList.Items, 2)
	require.NotNil(t, rec.LinkInfo)
	require.Equal(t, `C:\Users\test\file.txt`, rec.LinkInfo.LocalBasePath)
	require.NotNil(t, rec.StringData)
	require.Equal(t, `..\..\Windows\notepad.exe`, rec.StringData.RelativePath)
	require.True(t, rec.StringData.HasRelativePath)
	require.False(t, rec.StringData.HasName)
}

// TestParseBytesNetworkTargetWithUnicodeNames parses a Unicode-capable
// link-info whose share/device names resolve from the Unicode offsets.
func TestParseBytesNetworkTargetWithUnicodeNames(t *testing.T) {
	const dataFlags = 0x00000002 // HasLinkInfo

	const headerLen = 0x24
	const shareOffset = int64(headerLen)
	const shareHeaderLen = int64(28) // fixed 20 bytes + UShareNameOffset + UDeviceNameOffset

	shareNameOffset := shareHeaderLen
	shareNameAnsi := cstringCP1252(`\\server\share`)
	deviceNameOffset := shareNameOffset + int64(len(shareNameAnsi))
	deviceNameAnsi := cstringCP1252("DEV")
	uShareNameOffset := deviceNameOffset + int64(len(deviceNameAnsi))
	shareNameUnicode := cstringCP1252(`\\server\share`) // decoded as UTF-8, the fixed codepage for Unicode offsets
	uDeviceNameOffset := uShareNameOffset + int64(len(shareNameUnicode))
	deviceNameUnicode := cstringCP1252("DEV")
	commonPathSuffixOffsetRel := uDeviceNameOffset + int64(len(deviceNameUnicode))

	buf := new(bytes.Buffer)
	buf.Write(u32le(0)) // placeholder Size, patched below
	buf.Write(u32le(uint32(headerLen)))
	buf.Write(u32le(0x2)) // Flags: CommonNetworkRelativeLinkAndPathSuffix
	buf.Write(u32le(0))   // VolumeIDOffset, unused
	buf.Write(u32le(0))   // LocalBasePathOffset, unused
	buf.Write(u32le(uint32(shareOffset)))
	buf.Write(u32le(0)) // CommonPathSuffixOffset (ANSI, unused since unicode_present)
	buf.Write(u32le(0)) // ULocalBasePathOffset, unused
	buf.Write(u32le(uint32(shareOffset + commonPathSuffixOffsetRel)))

	buf.Write(u32le(uint32(shareHeaderLen + int64(len(shareNameAnsi)) + int64(len(shareNameUnicode)) + int64(len(deviceNameAnsi)) + int64(len(deviceNameUnicode)))))
	buf.Write(u32le(0x3)) // Flags: ValidDevice | ValidNetType
	buf.Write(u32le(uint32(shareNameOffset)))
	buf.Write(u32le(uint32(deviceNameOffset)))
	buf.Write(u32le(1252)) // NetworkProviderType
	buf.Write(u32le(uint32(uShareNameOffset)))
	buf.Write(u32le(uint32(uDeviceNameOffset)))
	buf.Write(shareNameAnsi)
	buf.Write(deviceNameAnsi)
	buf.Write(shareNameUnicode)
	buf.Write(deviceNameUnicode)
	commonPathSuffix := cstringCP1252("movie.mp4")
	buf.Write(commonPathSuffix)

	linkInfoBytes := buf.Bytes()
	totalSize := uint32(len(linkInfoBytes))
	// patch the Size field in place.
	patched := append([]byte{}, linkInfoBytes...)
	copy(patched[0:4], u32le(totalSize))

	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{dataFlags: dataFlags})...)
	raw = append(raw, patched...)
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, rec.LinkInfo)
	require.Nil(t, rec.LinkInfo.VolumeID)
	require.NotNil(t, rec.LinkInfo.CommonNetworkRelativeLink)
	require.Equal(t, `\\server\share`, rec.LinkInfo.CommonNetworkRelativeLink.ShareName)
	require.Equal(t, "DEV", rec.LinkInfo.CommonNetworkRelativeLink.DeviceName)
	require.True(t, rec.LinkInfo.CommonNetworkRelativeLink.ValidDevice)
	require.Equal(t, "movie.mp4", rec.LinkInfo.CommonPathSuffix)
}

// TestParseBytesTruncatedIDListThenValidLinkInfo parses a declared ID-list
// Size of 0x40 whose zero-filled item region ends the list at its first
// ItemIDSize, so no items fill the declared region, followed by valid
// link-info that must still decode from pos0 + Size - 2.
func TestParseBytesTruncatedIDListThenValidLinkInfo(t *testing.T) {
	const dataFlags = 0x00000001 | 0x00000002 // HasLinkTargetIDList | HasLinkInfo

	declaredSize := uint16(0x40)
	idlistBody := make([]byte, int(declaredSize)-2) // scope guard lands at pos0+Size-2, i.e. start+Size total
	idlist := append(u16le(declaredSize), idlistBody...)

	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{dataFlags: dataFlags})...)
	headerLen := int64(len(raw))
	raw = append(raw, idlist...)
	raw = append(raw, buildLocalLinkInfo()...)
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.NotNil(t, rec.LinkTargetIDList)
	require.NotNil(t, rec.LinkInfo)
	require.Equal(t, "DATA", rec.LinkInfo.VolumeID.VolumeLabel)
	_ = headerLen
}

// TestParseBytesHeaderOnlyWithTrackerBlock parses a header-only link with
// a single tracker extra-data block.
func TestParseBytesHeaderOnlyWithTrackerBlock(t *testing.T) {
	machineID := make([]byte, 16)
	copy(machineID, "DESKTOP-TEST")

	var body []byte
	body = append(body, u32le(0x58)...)
	body = append(body, u32le(0)...)
	body = append(body, machineID...)
	for i := 0; i < 4; i++ {
		body = append(body, make([]byte, 16)...)
	}

	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{})...)
	raw = append(raw, extraDataBlock(SignatureTracker, body)...)
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, rec.ExtraData, 1)
	require.Equal(t, SignatureTracker, rec.ExtraData[0].Signature)
	tb, ok := rec.ExtraData[0].Body.(*TrackerBlock)
	require.True(t, ok)
	require.Equal(t, "DESKTOP-TEST", tb.MachineID)
}

// TestParseBytesWrongClassGUIDStillDecodes parses a header whose class
// identifier is wrong. Decoding still proceeds, with a warning recorded.
func TestParseBytesWrongClassGUIDStillDecodes(t *testing.T) {
	raw := buildHeaderBytes(headerParams{badClassID: true})
	raw = append(raw, extraDataTerminator()...)

	rec, err := ParseBytes(raw)
	require.NoError(t, err)
	require.Len(t, rec.Warnings, 1)

	var de *DecodeError
	require.ErrorAs(t, rec.Warnings[0], &de)
	require.Equal(t, WrongClassIdentifier, de.Kind)
}

func TestParseBytesInvalidHeaderIsFatal(t *testing.T) {
	_, err := ParseBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestParseIdempotent(t *testing.T) {
	var raw []byte
	raw = append(raw, buildHeaderBytes(headerParams{})...)
	raw = append(raw, extraDataTerminator()...)

	rec1, err1 := ParseBytes(raw)
	require.NoError(t, err1)
	rec2, err2 := ParseBytes(raw)
	require.NoError(t, err2)
	require.Equal(t, rec1.Header.FileSize, rec2.Header.FileSize)
	require.Equal(t, rec1.Header.ClassID, rec2.Header.ClassID)
}
