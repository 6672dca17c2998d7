package internal

import (
	"fmt"

	"github.com/google/uuid"
)

// ReadGUID reads a 16-byte Windows/COM GUID (MS-DTYP §2.3.4 GUID) and
// returns it as a github.com/google/uuid.UUID.
//
// The on-disk layout decomposes as {Group1: u32, Group2: u16, Group3: u16,
// Group4: u16 big-endian, Group5: u48 big-endian}, where Group1..Group3 are
// stored little-endian on disk but printed big-endian in the canonical
// "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" textual form. uuid.UUID's byte
// array is exactly that canonical big-endian form, so Group1..Group3 need
// byte-reversal on the way in; Group4 and Group5 are already in the byte
// order the textual form expects and are copied as-is.
func ReadGUID(c *Cursor) (uuid.UUID, error) {
	raw, err := c.ReadBytes(16)
	if err != nil {
		return uuid.Nil, fmt.Errorf("internal: read guid: %w", err)
	}
	return decodeGUIDBytes(raw), nil
}

func decodeGUIDBytes(raw []byte) uuid.UUID {
	var out [16]byte
	out[0], out[1], out[2], out[3] = raw[3], raw[2], raw[1], raw[0]
	out[4], out[5] = raw[5], raw[4]
	out[6], out[7] = raw[7], raw[6]
	copy(out[8:], raw[8:16])
	return uuid.UUID(out)
}

// ShellLinkClassID is the canonical CLSID of a Windows Shell Link
// (00021401-0000-0000-C000-000000000046), checked advisorily against the
// header's class identifier. A mismatch is reported as a warning, never
// treated as fatal: some tools write nonstandard CLSIDs into otherwise
// well-formed links.
var ShellLinkClassID = uuid.MustParse("00021401-0000-0000-C000-000000000046")
