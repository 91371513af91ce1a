package hwio

// 32-bit operations
func GetBit32(v uint32, n uint) bool {
	return GetBiti32(v, n) != 0
}

func GetBiti32(v uint32, n uint) uint32 {
	return v >> n & 0x01
}

func SetBit32(v *uint32, n uint) {
	*v |= 1 << n
}

func ClearBit32(v *uint32, n uint) {
	*v &^= 1 << n
}

func FlipBit32(v *uint32, n uint) {
	*v ^= 1 << n
}

func ClearBits32(v *uint32, mask uint32) {
	*v &^= mask
}

// GetBits32 extracts the width-bit field starting at bit lo.
func GetBits32(v uint32, lo, width uint) uint32 {
	return v >> lo & (1<<width - 1)
}

// SetBits32 returns v with the width-bit field starting at bit lo replaced by
// field. Bits of field that don't fit in width are discarded.
func SetBits32(v uint32, lo, width uint, field uint32) uint32 {
	mask := uint32(1<<width-1) << lo
	return v&^mask | field<<lo&mask
}

// SizeMask returns the mask covering an access of size bytes (1, 2 or 4).
func SizeMask(size int) uint32 {
	if size >= 4 {
		return 0xFFFFFFFF
	}
	return 1<<(uint(size)*8) - 1
}
