// Package propertystore is a minimal collaborator for the PropertyStore
// extra-data block. The real Windows Property System serialization
// (MS-PROPSTORE) is out of scope for this decoder; this package decodes
// only the outer envelope — a sequence of sized property-set blobs, each
// tagged by a 16-byte format identifier GUID — and returns each one's body
// as an opaque byte slice for a caller that understands MS-PROPSTORE to
// decipher further.
package propertystore

import (
	"fmt"

	"github.com/analyzeDFIR/analyzeLNK-parser/internal"
	"github.com/google/uuid"
)

// Property is one undeciphered property-set blob: a format identifier GUID
// (MS-PROPSTORE SERIALIZEDPROPERTYSTORAGE FormatID) and its raw, opaque
// value bytes.
type Property struct {
	FormatID uuid.UUID
	Raw      []byte
}

// PropertyStore is the decoded envelope: an ordered sequence of Property
// blobs, terminated the same way the extra-data dispatcher terminates —
// any blob whose declared size is below the minimum header size ends the
// sequence.
type PropertyStore struct {
	Properties []Property
}

const propertySetHeaderSize = 4 + 16 // Size (u32) + FormatID (GUID)

// Parse decodes the envelope of a serialized property storage blob. It
// never returns an error for a malformed or empty tail: like every other
// section of the LNK decoder, it is read-only and tolerant of truncation,
// returning whatever property sets it could read.
func Parse(data []byte) (*PropertyStore, error) {
	c := internal.NewCursor(data)
	store := &PropertyStore{}

	for c.Remaining() >= 4 {
		pos0 := c.Position()
		size, err := internal.ReadU32LE(c)
		if err != nil {
			break
		}
		if size < propertySetHeaderSize {
			break
		}
		bodyLen := int64(size) - 4
		if bodyLen > c.Remaining() {
			bodyLen = c.Remaining()
		}
		sub, err := c.Bounded(bodyLen)
		if err != nil {
			break
		}
		formatID, err := internal.ReadGUID(sub)
		if err != nil {
			_ = c.Seek(pos0 + 4 + bodyLen)
			break
		}
		raw, _ := sub.ReadBytes(int(sub.Remaining()))
		store.Properties = append(store.Properties, Property{FormatID: formatID, Raw: raw})

		if err := c.Seek(pos0 + 4 + bodyLen); err != nil {
			break
		}
	}
	return store, nil
}

// Find returns the first property matching formatID, if any.
func (s *PropertyStore) Find(formatID uuid.UUID) (Property, bool) {
	for _, p := range s.Properties {
		if p.FormatID == formatID {
			return p, true
		}
	}
	return Property{}, false
}

func (p Property) String() string {
	return fmt.Sprintf("Property{FormatID: %s, %d bytes}", p.FormatID, len(p.Raw))
}
