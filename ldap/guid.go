package ldap

import (
	"fmt"

	"github.com/google/uuid"
)

// GUID byte-array length. Active Directory stores objectGUID in a
// mixed-endian layout: the first three groups are little-endian, the final
// eight bytes big-endian.
const guidBytesLength = 16

// GUIDFromBytes converts a raw objectGUID attribute value into its canonical
// hyphenated string form.
func GUIDFromBytes(data []byte) (string, error) {
	if len(data) != guidBytesLength {
		return "", fmt.Errorf("invalid GUID byte length: expected %d, got %d", guidBytesLength, len(data))
	}

	u, err := uuid.FromBytes(reorderGUIDBytes(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode GUID: %w", err)
	}

	return u.String(), nil
}

// GUIDToBytes converts a hyphenated GUID string into the byte layout the
// directory stores, suitable for use in a binary filter match.
func GUIDToBytes(guid string) ([]byte, error) {
	u, err := uuid.Parse(guid)
	if err != nil {
		return nil, fmt.Errorf("invalid GUID %q: %w", guid, err)
	}

	raw := u[:]
	return reorderGUIDBytes(raw), nil
}

// reorderGUIDBytes swaps between RFC 4122 byte order and the directory's
// mixed-endian order. The transform is its own inverse.
func reorderGUIDBytes(b []byte) []byte {
	out := make([]byte, guidBytesLength)
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

// GUIDValue decodes a binary objectGUID search attribute into string form.
func (a SearchAttribute) GUIDValue() (string, error) {
	if !a.IsBinary() {
		return "", fmt.Errorf("attribute %s is not binary", a.Name)
	}
	return GUIDFromBytes(a.Data)
}
