package snapshot

import (
	"errors"
	"fmt"

	"github.com/go-faster/jx"
)

// Version of the MMU snapshot format.
const Version = 1

// ErrVersion is returned when decoding a snapshot of an unsupported version.
var ErrVersion = errors.New("unsupported snapshot version")

// MMU is the architectural state owned by the memory management unit.
// Lookup tables and TLBs are derived from it and rebuilt after loading.
type MMU struct {
	Version int
	SR      [16]uint32
	IBAT    [8]BAT
	DBAT    [8]BAT
	SDR1    uint32
	HID4    uint32
}

// BAT is a block address translation register pair.
type BAT struct {
	U uint32
	L uint32
}

func encodeBATs(e *jx.Encoder, bats []BAT) {
	e.Arr(func(e *jx.Encoder) {
		for _, b := range bats {
			e.Obj(func(e *jx.Encoder) {
				e.Field("u", func(e *jx.Encoder) { e.UInt32(b.U) })
				e.Field("l", func(e *jx.Encoder) { e.UInt32(b.L) })
			})
		}
	})
}

// Encode serializes the snapshot as JSON.
func (s *MMU) Encode() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("version", func(e *jx.Encoder) { e.Int(s.Version) })
		e.Field("sr", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, sr := range s.SR {
					e.UInt32(sr)
				}
			})
		})
		e.Field("ibat", func(e *jx.Encoder) { encodeBATs(e, s.IBAT[:]) })
		e.Field("dbat", func(e *jx.Encoder) { encodeBATs(e, s.DBAT[:]) })
		e.Field("sdr1", func(e *jx.Encoder) { e.UInt32(s.SDR1) })
		e.Field("hid4", func(e *jx.Encoder) { e.UInt32(s.HID4) })
	})
	return e.Bytes()
}

func decodeUint32s(d *jx.Decoder, dst []uint32, what string) error {
	i := 0
	err := d.Arr(func(d *jx.Decoder) error {
		if i >= len(dst) {
			return fmt.Errorf("too many %s entries", what)
		}
		v, err := d.UInt32()
		if err != nil {
			return err
		}
		dst[i] = v
		i++
		return nil
	})
	if err == nil && i != len(dst) {
		err = fmt.Errorf("%s: got %d entries, want %d", what, i, len(dst))
	}
	return err
}

func decodeBATs(d *jx.Decoder, dst []BAT, what string) error {
	i := 0
	err := d.Arr(func(d *jx.Decoder) error {
		if i >= len(dst) {
			return fmt.Errorf("too many %s entries", what)
		}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "u":
				dst[i].U, err = d.UInt32()
			case "l":
				dst[i].L, err = d.UInt32()
			default:
				err = d.Skip()
			}
			return err
		})
		i++
		return err
	})
	if err == nil && i != len(dst) {
		err = fmt.Errorf("%s: got %d entries, want %d", what, i, len(dst))
	}
	return err
}

// Decode parses a snapshot produced by Encode.
func (s *MMU) Decode(data []byte) error {
	var snap MMU
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			snap.Version, err = d.Int()
		case "sr":
			err = decodeUint32s(d, snap.SR[:], "sr")
		case "ibat":
			err = decodeBATs(d, snap.IBAT[:], "ibat")
		case "dbat":
			err = decodeBATs(d, snap.DBAT[:], "dbat")
		case "sdr1":
			snap.SDR1, err = d.UInt32()
		case "hid4":
			snap.HID4, err = d.UInt32()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("decode mmu snapshot: %w", err)
	}
	if snap.Version != Version {
		return fmt.Errorf("mmu snapshot version %d: %w", snap.Version, ErrVersion)
	}
	*s = snap
	return nil
}
