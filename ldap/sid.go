package ldap

import (
	"fmt"

	"github.com/bwmarrin/go-objectsid"
)

// SIDFromBytes converts a raw objectSid attribute value into its S-1-...
// string representation.
func SIDFromBytes(data []byte) (string, error) {
	if len(data) < 8 {
		return "", fmt.Errorf("invalid SID byte length: %d", len(data))
	}

	// revision(1) + subauthority count(1) + authority(6) + count * 4
	subAuthorities := int(data[1])
	if len(data) < 8+4*subAuthorities {
		return "", fmt.Errorf("truncated SID: %d sub-authorities in %d bytes", subAuthorities, len(data))
	}

	sid := objectsid.Decode(data)
	return sid.String(), nil
}

// SIDValue decodes a binary objectSid search attribute into string form.
func (a SearchAttribute) SIDValue() (string, error) {
	if !a.IsBinary() {
		return "", fmt.Errorf("attribute %s is not binary", a.Name)
	}
	return SIDFromBytes(a.Data)
}
