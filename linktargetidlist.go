package lnk

import (
	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
)

// ItemID is one variable-length shell item within an ID list (MS-SHLLINK
// §2.2.1 ItemID).
type ItemID struct {
	Size int
	Data []byte
}

// IDList is the shell item ID list that identifies a target (MS-SHLLINK
// §2.2 LinkTargetIDList), also carried by the VistaAndAboveIDList
// extra-data block.
type IDList struct {
	Size  uint16
	Items []ItemID
}

// parseLinkTargetIDList decodes the linktarget_idlist section starting at
// the cursor's current position, guarded by header.DataFlags.HasLinkTargetIDList
// (MS-SHLLINK §2.2). Its item loop, parseItemIDList, is shared with the
// VistaAndAboveIDList extra-data body, which has no Size field of its own
// and passes the bounds of its block instead.
//
// Invariant: whatever happens inside the item loop, the cursor ends up at
// pos0 + Size - 2, one past the terminator.
func parseLinkTargetIDList(c *internal.Cursor) (*IDList, error) {
	size, err := internal.ReadU16LE(c)
	if err != nil {
		return nil, newDecodeError(TruncatedSection, "linktarget_idlist", err)
	}
	pos0 := c.Position()
	idlist := &IDList{Size: size}

	end := pos0 + int64(size) - 2
	if int64(size) > 2 {
		idlist.Items = parseItemIDList(c, pos0, end)
	}

	// Scope-guard: always land at pos0 + Size - 2 regardless of how the
	// item loop above fared.
	_ = c.Seek(clampSeek(end, c.Length()))
	return idlist, nil
}

// parseItemIDList reads {ItemIDSize: u16, data: bytes[ItemIDSize-2]} items
// until position reaches end or a zero-size item terminates the list. A
// mid-list failure abandons the remaining items; items already decoded
// are kept.
func parseItemIDList(c *internal.Cursor, pos0, end int64) []ItemID {
	var items []ItemID
	for c.Position() < end {
		itemSize, err := internal.ReadU16LE(c)
		if err != nil || itemSize == 0 {
			break
		}
		data, err := c.ReadBytes(int(itemSize) - 2)
		if err != nil {
			break
		}
		items = append(items, ItemID{Size: int(itemSize), Data: data})
	}
	return items
}

// clampSeek keeps a computed scope-guard target within [0, length], for the
// (malformed-input) case where a declared Size would seek past EOF.
func clampSeek(target, length int64) int64 {
	if target < 0 {
		return 0
	}
	if target > length {
		return length
	}
	return target
}
