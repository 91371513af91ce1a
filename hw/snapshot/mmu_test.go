package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testMMU() *MMU {
	s := &MMU{Version: Version, SDR1: 0x00FF0003, HID4: 1 << 25}
	for i := range s.SR {
		s.SR[i] = 0x100*uint32(i) + 1
	}
	for i := range s.IBAT {
		s.IBAT[i] = BAT{U: 0x80001FFF, L: uint32(i)}
		s.DBAT[i] = BAT{U: 0xC0001FFF, L: 0x0000002A + uint32(i)}
	}
	return s
}

func TestEncodeDecode(t *testing.T) {
	want := testMMU()
	data := want.Encode()

	var got MMU
	if err := got.Decode(data); err != nil {
		t.Fatalf("Decode: %v\n%s", err, data)
	}
	if diff := cmp.Diff(*want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		version bool
	}{
		{"bad version", `{"version":99}`, true},
		{"not json", `{"version":`, false},
		{"short sr", `{"version":1,"sr":[1,2,3]}`, false},
		{"negative reg", `{"version":1,"sdr1":-1}`, false},
		{"bat not object", `{"version":1,"ibat":[1]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s MMU
			err := s.Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("Decode succeeded")
			}
			if errors.Is(err, ErrVersion) != tt.version {
				t.Errorf("errors.Is(err, ErrVersion) = %t, err: %v", !tt.version, err)
			}
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	data := strings.Replace(string(testMMU().Encode()), `"version":1`, `"version":1,"extra":{"a":[1,2]}`, 1)
	var s MMU
	if err := s.Decode([]byte(data)); err != nil {
		t.Fatal(err)
	}
	if s.SDR1 != 0x00FF0003 {
		t.Errorf("SDR1 = %08x", s.SDR1)
	}
}
