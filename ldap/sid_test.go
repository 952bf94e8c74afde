package ldap

import (
	"testing"
)

// builtinAdministratorsSID is S-1-5-32-544 in wire form: revision 1, two
// sub-authorities, authority 5.
var builtinAdministratorsSID = []byte{
	0x01, 0x02,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
	0x20, 0x00, 0x00, 0x00,
	0x20, 0x02, 0x00, 0x00,
}

func TestSIDFromBytes(t *testing.T) {
	got, err := SIDFromBytes(builtinAdministratorsSID)
	if err != nil {
		t.Fatalf("SIDFromBytes() unexpected error: %v", err)
	}
	if got != "S-1-5-32-544" {
		t.Errorf("SIDFromBytes() = %s, expected S-1-5-32-544", got)
	}
}

func TestSIDFromBytesInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: nil,
		},
		{
			name: "too short",
			data: []byte{0x01, 0x01, 0x00},
		},
		{
			name: "truncated sub-authorities",
			data: []byte{0x01, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SIDFromBytes(tt.data); err == nil {
				t.Errorf("SIDFromBytes(%x) expected error", tt.data)
			}
		})
	}
}

func TestSearchAttributeSIDValue(t *testing.T) {
	binary := SearchAttribute{Name: "objectSid", Data: builtinAdministratorsSID}
	got, err := binary.SIDValue()
	if err != nil {
		t.Fatalf("SIDValue() unexpected error: %v", err)
	}
	if got != "S-1-5-32-544" {
		t.Errorf("SIDValue() = %s, expected S-1-5-32-544", got)
	}

	text := SearchAttribute{Name: "objectSid", Value: "S-1-5-32-544"}
	if _, err := text.SIDValue(); err == nil {
		t.Error("SIDValue() on a text attribute expected error")
	}
}
