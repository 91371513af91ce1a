package mmu

// Hardware page geometry.
const (
	HWPageIndexShift = 12
	HWPageSize       = 1 << HWPageIndexShift
	HWPageMask       = HWPageSize - 1
)

// EffectiveAddress is a bit-field view over a guest effective address.
type EffectiveAddress uint32

// Offset returns the byte offset within the 4KiB page (bits 0-11).
func (ea EffectiveAddress) Offset() uint32 { return uint32(ea) & 0xFFF }

// PageIndex returns the page index within the segment (bits 12-27).
func (ea EffectiveAddress) PageIndex() uint32 { return uint32(ea) >> 12 & 0xFFFF }

// API returns the abbreviated page index (bits 22-27).
func (ea EffectiveAddress) API() uint32 { return uint32(ea) >> 22 & 0x3F }

// SR returns the segment register index (bits 28-31).
func (ea EffectiveAddress) SR() uint32 { return uint32(ea) >> 28 }

// TranslationKind is the outcome of an address translation.
type TranslationKind int

const (
	BATTranslated TranslationKind = iota
	PageTableTranslated
	DirectStoreSegment
	PageFault
)

// TranslateAddressResult is the outcome of TranslateAddress.
type TranslateAddressResult struct {
	Address uint32
	Kind    TranslationKind
	WI      bool // write-through or cache-inhibited
}

// Success reports whether the address was translated.
func (r TranslateAddressResult) Success() bool {
	return r.Kind == BATTranslated || r.Kind == PageTableTranslated
}

// TranslateResult is the outcome of a translation probe from the JIT.
//
// Valid is false when the address can't be translated. Translated is false
// when instruction translation is off and Address is the input address.
type TranslateResult struct {
	Valid      bool
	Translated bool
	FromBAT    bool
	Address    uint32
}
