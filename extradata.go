package lnk

import (
	"fmt"

	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
	"github.com/analyzeDFIR/analyzeLNK-parser/propertystore"
	"github.com/google/uuid"
)

func errUnknownSignature(sig uint32) error {
	return fmt.Errorf("unrecognized extra-data block signature 0x%08X", sig)
}

// Extra-data block signatures (MS-SHLLINK §2.5 ExtraData), adapted from the
// same detect-by-signature-then-dispatch shape the teacher package uses to
// pick a filesystem driver from a boot-sector signature.
const (
	SignatureEnvironmentVariables uint32 = 0xA0000001
	SignatureConsole              uint32 = 0xA0000002
	SignatureTracker              uint32 = 0xA0000003
	SignatureConsoleFE            uint32 = 0xA0000004
	SignatureSpecialFolder        uint32 = 0xA0000005
	SignatureDarwin               uint32 = 0xA0000006
	SignatureIconEnvironment      uint32 = 0xA0000007
	SignatureShim                 uint32 = 0xA0000008
	SignaturePropertyStore        uint32 = 0xA0000009
	SignatureKnownFolder          uint32 = 0xA000000B
	SignatureVistaAndAboveIDList  uint32 = 0xA000000C
)

// ExtraDataBlock is one tagged, length-prefixed block from the extra_data
// section (MS-SHLLINK §2.5). Body holds one of the typed structs below
// (EnvironmentVariablesBlock, ConsoleBlock, ...) when Signature was
// recognized and the body decoded without error; otherwise Body is nil and
// Raw holds the undecoded bytes.
type ExtraDataBlock struct {
	Size      uint32
	Signature uint32
	Body      any
	Raw       []byte
	Err       error
}

// EnvironmentVariablesBlock is the 0xA0000001 body (MS-SHLLINK §2.5.1
// EnvironmentVariablesDataBlock).
type EnvironmentVariablesBlock struct {
	AnsiTargetLocation    string
	UnicodeTargetLocation string
}

// ConsoleBlock is the 0xA0000002 body (MS-SHLLINK §2.5.2 ConsoleDataBlock).
type ConsoleBlock struct {
	FillAttributes          uint16
	PopupFillAttributes     uint16
	ScreenBufferSizeX       int16
	ScreenBufferSizeY       int16
	WindowSizeX             int16
	WindowSizeY             int16
	WindowOriginX           int16
	WindowOriginY           int16
	FontSize                uint32
	FontFamily              uint32
	FontWeight              uint32
	FaceName                string
	CursorSize              uint32
	FullScreen              uint32
	QuickEdit               uint32
	InsertMode              uint32
	AutoPosition            uint32
	HistoryBufferSize       uint32
	NumberOfHistoryBuffers  uint32
	RawHistoryNoDup         uint32
	HistoryDuplicatesAllowed bool
	ColorTable              [16]uint32
}

// TrackerBlock is the 0xA0000003 body (MS-SHLLINK §2.5.10 TrackerDataBlock).
type TrackerBlock struct {
	Length          uint32
	Version         uint32
	MachineID       string
	DroidVolumeID   uuid.UUID
	DroidFileID     uuid.UUID
	BirthVolumeID   uuid.UUID
	BirthFileID     uuid.UUID
}

// ConsoleFEBlock is the 0xA0000004 body (MS-SHLLINK §2.5.3
// ConsoleFEDataBlock).
type ConsoleFEBlock struct {
	CodePage uint32
}

// SpecialFolderBlock is the 0xA0000005 body (MS-SHLLINK §2.5.7
// SpecialFolderDataBlock).
type SpecialFolderBlock struct {
	FolderID uint32
	Offset   uint32
}

// DarwinBlock is the 0xA0000006 body. The ANSI application identifier is
// noted unreliable per MS-SHLLINK §2.5.4 DarwinDataBlock and is discarded.
type DarwinBlock struct {
	UnicodeApplicationID string
}

// IconEnvironmentBlock is the 0xA0000007 body (MS-SHLLINK §2.5.5
// IconEnvironmentDataBlock).
type IconEnvironmentBlock struct {
	AnsiTargetLocation    string
	UnicodeTargetLocation string
}

// ShimBlock is the 0xA0000008 body (MS-SHLLINK §2.5.8 ShimDataBlock).
type ShimBlock struct {
	LayerName string
}

// KnownFolderBlock is the 0xA000000B body (MS-SHLLINK §2.5.6
// KnownFolderDataBlock).
type KnownFolderBlock struct {
	FolderID uuid.UUID
	Offset   uint32
}

// VistaAndAboveIDListBlock is the 0xA000000C body (MS-SHLLINK §2.5.9
// VistaAndAboveIDListDataBlock).
type VistaAndAboveIDListBlock struct {
	Items []ItemID
}

const ansiFixedPathLen = 260
const unicodeFixedPathLen = 520 // 260 WCHARs

// parseExtraData decodes the trailing sequence of extra-data blocks
// (MS-SHLLINK §2.5). It halts at the first block whose declared Size is
// below 0x04, without consuming those bytes as a block, and otherwise
// continues to end of stream.
func parseExtraData(c *internal.Cursor, codepage string) ([]ExtraDataBlock, []error) {
	var blocks []ExtraDataBlock
	var warnings []error

	for c.Remaining() > 0 {
		pos0 := c.Position()
		sizePeek, err := c.PeekBytes(4)
		if err != nil {
			break
		}
		size := uint32(sizePeek[0]) | uint32(sizePeek[1])<<8 | uint32(sizePeek[2])<<16 | uint32(sizePeek[3])<<24
		if size < 0x04 {
			break
		}

		remaining := c.Remaining()
		blockLen := int64(size)
		if blockLen > remaining {
			// Truncated tail: the decoder is read-only and tolerant of
			// malformed tails; take what is left and stop.
			blockLen = remaining
		}

		sub, err := c.Bounded(blockLen)
		if err != nil {
			break
		}
		block := parseExtraDataBlock(sub, codepage)
		blocks = append(blocks, block)
		if block.Err != nil {
			warnings = append(warnings, newDecodeError(TruncatedSection, "extra_data", block.Err))
		} else if block.Body == nil && block.Raw != nil {
			warnings = append(warnings, newDecodeError(UnknownExtraBlockSignature, "extra_data",
				errUnknownSignature(block.Signature)))
		}

		// Outer stream advances to pos0 + Size regardless of how much of
		// the bounded sub-cursor the body decoder actually consumed.
		_ = c.Seek(clampSeek(pos0+blockLen, c.Length()))
	}

	return blocks, warnings
}

// parseExtraDataBlock reads the block header {Size, Signature} from a
// bounded sub-slice and dispatches the remainder to the matching body
// decoder (MS-SHLLINK §2.5).
func parseExtraDataBlock(sub *internal.Cursor, codepage string) ExtraDataBlock {
	size, err := internal.ReadU32LE(sub)
	if err != nil {
		return ExtraDataBlock{Err: err}
	}
	signature, err := internal.ReadU32LE(sub)
	if err != nil {
		return ExtraDataBlock{Size: size, Err: err}
	}

	block := ExtraDataBlock{Size: size, Signature: signature}
	body, err := dispatchExtraDataBody(sub, signature, codepage)
	switch {
	case err != nil:
		// A recognized signature whose body failed to decode still
		// yields a raw-body block with the failure recorded.
		block.Err = err
		block.Raw, _ = sub.ReadBytes(int(sub.Remaining()))
	case body == nil:
		// Unknown signature: raw-body block, never an error.
		block.Raw, _ = sub.ReadBytes(int(sub.Remaining()))
	default:
		block.Body = body
	}
	return block
}

// dispatchExtraDataBody maps a block signature to its body decoder
// (MS-SHLLINK §2.5 known-signature table). An unrecognized signature yields a
// raw-body block via the zero-value (nil, nil) branch, which
// parseExtraDataBlock turns into Raw bytes.
func dispatchExtraDataBody(sub *internal.Cursor, signature uint32, codepage string) (any, error) {
	switch signature {
	case SignatureEnvironmentVariables:
		return parseEnvironmentVariablesBlock(sub, codepage)
	case SignatureConsole:
		return parseConsoleBlock(sub)
	case SignatureTracker:
		return parseTrackerBlock(sub, codepage)
	case SignatureConsoleFE:
		return parseConsoleFEBlock(sub)
	case SignatureSpecialFolder:
		return parseSpecialFolderBlock(sub)
	case SignatureDarwin:
		return parseDarwinBlock(sub)
	case SignatureIconEnvironment:
		return parseIconEnvironmentBlock(sub, codepage)
	case SignatureShim:
		return parseShimBlock(sub)
	case SignaturePropertyStore:
		return parsePropertyStoreBlock(sub)
	case SignatureKnownFolder:
		return parseKnownFolderBlock(sub)
	case SignatureVistaAndAboveIDList:
		return parseVistaAndAboveIDListBlock(sub)
	default:
		return nil, nil
	}
}

func readFixedAnsiUnicodePair(sub *internal.Cursor, codepage string) (ansi string, unicode string, err error) {
	ansiRaw, err := sub.ReadBytes(ansiFixedPathLen)
	if err != nil {
		return "", "", err
	}
	unicodeRaw, err := sub.ReadBytes(unicodeFixedPathLen)
	if err != nil {
		return "", "", err
	}
	ansi, _ = internal.DecodeCodepage(trimNulls(ansiRaw), codepage)
	unicode, uerr := internal.DecodeUTF16LEBytes(trimNulls16(unicodeRaw))
	if uerr != nil {
		unicode = ""
	}
	return ansi, unicode, nil
}

func parseEnvironmentVariablesBlock(sub *internal.Cursor, codepage string) (*EnvironmentVariablesBlock, error) {
	ansi, uni, err := readFixedAnsiUnicodePair(sub, codepage)
	if err != nil {
		return nil, err
	}
	return &EnvironmentVariablesBlock{AnsiTargetLocation: ansi, UnicodeTargetLocation: uni}, nil
}

func parseIconEnvironmentBlock(sub *internal.Cursor, codepage string) (*IconEnvironmentBlock, error) {
	ansi, uni, err := readFixedAnsiUnicodePair(sub, codepage)
	if err != nil {
		return nil, err
	}
	return &IconEnvironmentBlock{AnsiTargetLocation: ansi, UnicodeTargetLocation: uni}, nil
}

func parseDarwinBlock(sub *internal.Cursor) (*DarwinBlock, error) {
	// ANSI app-id is read and discarded per MS-SHLLINK unreliability note
	// per MS-SHLLINK §2.5.
	if _, err := sub.ReadBytes(ansiFixedPathLen); err != nil {
		return nil, err
	}
	unicodeRaw, err := sub.ReadBytes(unicodeFixedPathLen)
	if err != nil {
		return nil, err
	}
	uni, err := internal.DecodeUTF16LEBytes(trimNulls16(unicodeRaw))
	if err != nil {
		uni = ""
	}
	return &DarwinBlock{UnicodeApplicationID: uni}, nil
}

func parseConsoleBlock(sub *internal.Cursor) (*ConsoleBlock, error) {
	cb := &ConsoleBlock{}
	u16 := func(dst *int16) error {
		v, err := internal.ReadU16LE(sub)
		*dst = int16(v)
		return err
	}
	var err error
	var fillAttr, popupAttr uint16
	if fillAttr, err = internal.ReadU16LE(sub); err != nil {
		return nil, err
	}
	if popupAttr, err = internal.ReadU16LE(sub); err != nil {
		return nil, err
	}
	cb.FillAttributes, cb.PopupFillAttributes = fillAttr, popupAttr
	for _, dst := range []*int16{&cb.ScreenBufferSizeX, &cb.ScreenBufferSizeY, &cb.WindowSizeX, &cb.WindowSizeY, &cb.WindowOriginX, &cb.WindowOriginY} {
		if err = u16(dst); err != nil {
			return nil, err
		}
	}
	// Unused1, Unused2.
	if _, err = internal.ReadU32LE(sub); err != nil {
		return nil, err
	}
	if _, err = internal.ReadU32LE(sub); err != nil {
		return nil, err
	}
	for _, dst := range []*uint32{&cb.FontSize, &cb.FontFamily, &cb.FontWeight} {
		if *dst, err = internal.ReadU32LE(sub); err != nil {
			return nil, err
		}
	}
	faceRaw, err := sub.ReadBytes(64)
	if err != nil {
		return nil, err
	}
	face, ferr := internal.DecodeUTF16LEBytes(trimNulls16(faceRaw))
	if ferr == nil {
		cb.FaceName = face
	}
	for _, dst := range []*uint32{
		&cb.CursorSize, &cb.FullScreen, &cb.QuickEdit, &cb.InsertMode,
		&cb.AutoPosition, &cb.HistoryBufferSize, &cb.NumberOfHistoryBuffers,
		&cb.RawHistoryNoDup,
	} {
		if *dst, err = internal.ReadU32LE(sub); err != nil {
			return nil, err
		}
	}
	cb.HistoryDuplicatesAllowed = cb.RawHistoryNoDup == 0x00
	for i := range cb.ColorTable {
		if cb.ColorTable[i], err = internal.ReadU32LE(sub); err != nil {
			return nil, err
		}
	}
	return cb, nil
}

func parseTrackerBlock(sub *internal.Cursor, codepage string) (*TrackerBlock, error) {
	tb := &TrackerBlock{}
	var err error
	if tb.Length, err = internal.ReadU32LE(sub); err != nil {
		return nil, err
	}
	if tb.Version, err = internal.ReadU32LE(sub); err != nil {
		return nil, err
	}
	machineRaw, err := sub.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	if s, ok := internal.DecodeCodepage(trimNulls(machineRaw), codepage); ok {
		tb.MachineID = s
	}
	for _, dst := range []*uuid.UUID{&tb.DroidVolumeID, &tb.DroidFileID, &tb.BirthVolumeID, &tb.BirthFileID} {
		g, err := internal.ReadGUID(sub)
		if err != nil {
			return tb, err
		}
		*dst = g
	}
	return tb, nil
}

func parseConsoleFEBlock(sub *internal.Cursor) (*ConsoleFEBlock, error) {
	cp, err := internal.ReadU32LE(sub)
	if err != nil {
		return nil, err
	}
	return &ConsoleFEBlock{CodePage: cp}, nil
}

func parseSpecialFolderBlock(sub *internal.Cursor) (*SpecialFolderBlock, error) {
	folderID, err := internal.ReadU32LE(sub)
	if err != nil {
		return nil, err
	}
	offset, err := internal.ReadU32LE(sub)
	if err != nil {
		return nil, err
	}
	return &SpecialFolderBlock{FolderID: folderID, Offset: offset}, nil
}

func parseShimBlock(sub *internal.Cursor) (*ShimBlock, error) {
	raw, err := sub.ReadBytes(int(sub.Remaining()))
	if err != nil {
		return nil, err
	}
	name, err := internal.DecodeUTF16LEBytes(trimNulls16(raw))
	if err != nil {
		return nil, err
	}
	return &ShimBlock{LayerName: name}, nil
}

func parsePropertyStoreBlock(sub *internal.Cursor) (*propertystore.PropertyStore, error) {
	raw, err := sub.ReadBytes(int(sub.Remaining()))
	if err != nil {
		return nil, err
	}
	return propertystore.Parse(raw)
}

func parseKnownFolderBlock(sub *internal.Cursor) (*KnownFolderBlock, error) {
	folderID, err := internal.ReadGUID(sub)
	if err != nil {
		return nil, err
	}
	offset, err := internal.ReadU32LE(sub)
	if err != nil {
		return nil, err
	}
	return &KnownFolderBlock{FolderID: folderID, Offset: offset}, nil
}

func parseVistaAndAboveIDListBlock(sub *internal.Cursor) (*VistaAndAboveIDListBlock, error) {
	items := parseItemIDList(sub, sub.Position(), sub.Length())
	return &VistaAndAboveIDListBlock{Items: items}, nil
}

func trimNulls(b []byte) []byte {
	for i, v := range b {
		if v == 0 {
			return b[:i]
		}
	}
	return b
}

func trimNulls16(b []byte) []byte {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i]
		}
	}
	return b
}
