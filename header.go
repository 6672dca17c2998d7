package lnk

import (
	"fmt"
	"time"

	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
	"github.com/google/uuid"
)

const headerSize = 0x4C // 76 bytes (MS-SHLLINK §2.1).

// Show-window command values (MS-SHLLINK §2.1 ShowCommand). Any other
// raw value is treated as ShowNormal.
const (
	ShowNormal      = 1
	ShowMaximized   = 3
	ShowMinNoActive = 7
)

// DataFlags gates every section that follows the header.
type DataFlags struct {
	HasLinkTargetIDList         bool
	HasLinkInfo                 bool
	HasName                     bool
	HasRelativePath             bool
	HasWorkingDir               bool
	HasArguments                bool
	HasIconLocation             bool
	IsUnicode                   bool
	ForceNoLinkInfo             bool
	HasExpString                bool
	RunInSeparateProcess        bool
	HasDarwinID                 bool
	RunAsUser                   bool
	HasExpIcon                  bool
	NoPidlAlias                 bool
	RunWithShimLayer            bool
	ForceNoLinkTrack            bool
	EnableTargetMetadata        bool
	DisableLinkPathTracking     bool
	DisableKnownFolderTracking  bool
	DisableKnownFolderAlias     bool
	AllowLinkToLink             bool
	UnaliasOnSave               bool
	PreferEnvironmentPath       bool
	KeepLocalIDListForUNCTarget bool
}

func decodeDataFlags(raw uint32) DataFlags {
	return DataFlags{
		HasLinkTargetIDList:         raw&0x00000001 != 0,
		HasLinkInfo:                 raw&0x00000002 != 0,
		HasName:                     raw&0x00000004 != 0,
		HasRelativePath:             raw&0x00000008 != 0,
		HasWorkingDir:               raw&0x00000010 != 0,
		HasArguments:                raw&0x00000020 != 0,
		HasIconLocation:             raw&0x00000040 != 0,
		IsUnicode:                   raw&0x00000080 != 0,
		ForceNoLinkInfo:             raw&0x00000100 != 0,
		HasExpString:                raw&0x00000200 != 0,
		RunInSeparateProcess:        raw&0x00000400 != 0,
		HasDarwinID:                 raw&0x00001000 != 0,
		RunAsUser:                   raw&0x00002000 != 0,
		HasExpIcon:                  raw&0x00004000 != 0,
		NoPidlAlias:                 raw&0x00008000 != 0,
		RunWithShimLayer:            raw&0x00020000 != 0,
		ForceNoLinkTrack:            raw&0x00040000 != 0,
		EnableTargetMetadata:        raw&0x00080000 != 0,
		DisableLinkPathTracking:     raw&0x00100000 != 0,
		DisableKnownFolderTracking:  raw&0x00200000 != 0,
		DisableKnownFolderAlias:     raw&0x00400000 != 0,
		AllowLinkToLink:             raw&0x00800000 != 0,
		UnaliasOnSave:               raw&0x01000000 != 0,
		PreferEnvironmentPath:       raw&0x02000000 != 0,
		KeepLocalIDListForUNCTarget: raw&0x04000000 != 0,
	}
}

// FileAttributes decomposes the header's FileAttributes bitfield.
type FileAttributes struct {
	ReadOnly          bool
	Hidden            bool
	System            bool
	Directory         bool
	Archive           bool
	Normal            bool
	Temporary         bool
	SparseFile        bool
	ReparsePoint      bool
	Compressed        bool
	Offline           bool
	NotContentIndexed bool
	Encrypted         bool
}

func decodeFileAttributes(raw uint32) FileAttributes {
	return FileAttributes{
		ReadOnly:          raw&0x00000001 != 0,
		Hidden:            raw&0x00000002 != 0,
		System:            raw&0x00000004 != 0,
		Directory:         raw&0x00000010 != 0,
		Archive:           raw&0x00000020 != 0,
		Normal:            raw&0x00000080 != 0,
		Temporary:         raw&0x00000100 != 0,
		SparseFile:        raw&0x00000200 != 0,
		ReparsePoint:      raw&0x00000400 != 0,
		Compressed:        raw&0x00000800 != 0,
		Offline:           raw&0x00001000 != 0,
		NotContentIndexed: raw&0x00002000 != 0,
		Encrypted:         raw&0x00004000 != 0,
	}
}

// HotKey decomposes the header's two raw hotkey bytes (MS-SHLLINK §2.1
// HotKeyFlags).
type HotKey struct {
	Key   byte
	Shift bool
	Ctrl  bool
	Alt   bool
}

func decodeHotKey(low, high byte) HotKey {
	hk := HotKey{
		Key:   low,
		Shift: high&1 != 0,
		Ctrl:  high&2 != 0,
		Alt:   high&4 != 0,
	}
	return hk
}

// Header is the fixed 76-byte Shell Link header (MS-SHLLINK §2.1).
type Header struct {
	ClassID         uuid.UUID
	DataFlags       DataFlags
	FileAttributes  FileAttributes
	RawCreateTime   uint64
	RawAccessTime   uint64
	RawModifyTime   uint64
	CreateTime      time.Time
	CreateTimeValid bool
	AccessTime      time.Time
	AccessTimeValid bool
	ModifyTime      time.Time
	ModifyTimeValid bool
	FileSize        uint32
	IconIndex       int32
	RawShowCommand  uint32
	HotKeyLowByte   byte
	HotKeyHighByte  byte
	HotKey          HotKey
}

// ShowCommand normalizes RawShowCommand per MS-SHLLINK: any value other
// than ShowNormal/ShowMaximized/ShowMinNoActive must be treated as
// ShowNormal.
func (h *Header) ShowCommand() uint32 {
	switch h.RawShowCommand {
	case ShowNormal, ShowMaximized, ShowMinNoActive:
		return h.RawShowCommand
	default:
		return ShowNormal
	}
}

// parseHeader decodes the fixed 76-byte header starting at the cursor's
// current position. It returns advisory warnings alongside the header;
// only a size mismatch or a short read is fatal.
func parseHeader(c *internal.Cursor) (*Header, []error, error) {
	var warnings []error

	size, err := internal.ReadU32LE(c)
	if err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if size != headerSize {
		return nil, nil, newDecodeError(InvalidHeader, "header",
			fmt.Errorf("header size 0x%X, want 0x%X", size, headerSize))
	}

	classID, err := internal.ReadGUID(c)
	if err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if classID != internal.ShellLinkClassID {
		// Known reference implementations disagree on whether a mismatched
		// class identifier should abort decoding; this one warns and keeps
		// going rather than discarding an otherwise-readable file.
		warnings = append(warnings, newDecodeError(WrongClassIdentifier, "header",
			fmt.Errorf("class identifier %s, want %s", classID, internal.ShellLinkClassID)))
	}

	rawFlags, err := internal.ReadU32LE(c)
	if err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	rawAttrs, err := internal.ReadU32LE(c)
	if err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}

	h := &Header{
		ClassID:        classID,
		DataFlags:      decodeDataFlags(rawFlags),
		FileAttributes: decodeFileAttributes(rawAttrs),
	}

	if h.RawCreateTime, err = internal.ReadU64LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if h.RawAccessTime, err = internal.ReadU64LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if h.RawModifyTime, err = internal.ReadU64LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	h.CreateTime, h.CreateTimeValid = internal.DecodeFILETIME(h.RawCreateTime)
	h.AccessTime, h.AccessTimeValid = internal.DecodeFILETIME(h.RawAccessTime)
	h.ModifyTime, h.ModifyTimeValid = internal.DecodeFILETIME(h.RawModifyTime)

	if h.FileSize, err = internal.ReadU32LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	var iconIndex uint32
	if iconIndex, err = internal.ReadU32LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	h.IconIndex = int32(iconIndex)
	if h.RawShowCommand, err = internal.ReadU32LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if h.HotKeyLowByte, err = internal.ReadU8(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if h.HotKeyHighByte, err = internal.ReadU8(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	h.HotKey = decodeHotKey(h.HotKeyLowByte, h.HotKeyHighByte)

	// Reserved1 (u16), Reserved2 (u32), Reserved3 (u32).
	if _, err = internal.ReadU16LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if _, err = internal.ReadU32LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}
	if _, err = internal.ReadU32LE(c); err != nil {
		return nil, nil, newDecodeError(InvalidHeader, "header", err)
	}

	return h, warnings, nil
}
