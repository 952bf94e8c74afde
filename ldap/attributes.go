package ldap

import (
	"sort"

	"github.com/go-ldap/ldap/v3"
)

// SearchAttribute is one (name, value) pair from a directory entry in
// host-neutral form. Exactly one of Value and Data is populated: Data carries
// the raw bytes of attributes named in the binary attribute set, Value the
// text of everything else. Multiple values of one attribute are represented
// as repeated pairs in the directory's enumeration order.
type SearchAttribute struct {
	Name  string
	Value string
	Data  []byte
}

// IsBinary reports whether the attribute carries raw bytes rather than text.
func (a SearchAttribute) IsBinary() bool {
	return a.Data != nil
}

// BinaryAttributeSet is the set of attribute names (case-sensitive) that must
// be retrieved and represented as raw bytes. It is replaced wholesale when
// the configuration changes, never edited in place.
type BinaryAttributeSet map[string]struct{}

// NewBinaryAttributeSet builds a set from the configured attribute names.
func NewBinaryAttributeSet(names ...string) BinaryAttributeSet {
	set := make(BinaryAttributeSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is designated binary.
func (s BinaryAttributeSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members in sorted order.
func (s BinaryAttributeSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AppendEntryAttributes converts the attributes of a directory entry and
// appends the resulting pairs to attrs, which it returns. Binary-designated
// attributes contribute one pair per byte-array value, all others one pair
// per string value; an attribute with zero values contributes nothing. No
// reordering is applied.
func AppendEntryAttributes(attrs []SearchAttribute, entry *ldap.Entry, binary BinaryAttributeSet) []SearchAttribute {
	if entry == nil {
		return attrs
	}

	for _, attr := range entry.Attributes {
		if binary.Contains(attr.Name) {
			for _, data := range attr.ByteValues {
				attrs = append(attrs, SearchAttribute{Name: attr.Name, Data: data})
			}
		} else {
			for _, value := range attr.Values {
				attrs = append(attrs, SearchAttribute{Name: attr.Name, Value: value})
			}
		}
	}

	return attrs
}
