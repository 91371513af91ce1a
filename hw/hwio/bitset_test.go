package hwio

import (
	"math/rand/v2"
	"testing"
)

func TestBitset(t *testing.T) {
	var b Bitset
	if b.Any() {
		t.Fatalf("zero Bitset is not empty")
	}

	for i := range NumBits {
		b.Set(uint(i))
		if !b.Test(uint(i)) {
			t.Fatalf("Bit %d is not set", i)
		}
		if !b.Any() {
			t.Fatalf("Any() = false with bit %d set", i)
		}
		b.Clear(uint(i))
		if b.Test(uint(i)) {
			t.Fatalf("Bit %d is set", i)
		}
	}

	b.SetRange(0, NumBits)
	for i := range NumBits {
		if !b.Test(uint(i)) {
			t.Fatalf("Bit %d is not set", i)
		}
	}

	b.Reset()
	if b.Any() {
		t.Fatalf("Bitset not empty after Reset")
	}
}

func TestBitsetRanges(t *testing.T) {
	var b Bitset

	for range 2000 {
		start := rand.UintN(NumBits)
		end := rand.UintN(NumBits)
		if start > end {
			start, end = end, start
		}
		end++

		b.Reset()
		b.SetRange(start, end)
		for i := range uint(NumBits) {
			want := i >= start && i < end
			if b.Test(i) != want {
				t.Fatalf("SetRange(%d, %d): bit %d = %t, want %t", start, end, i, b.Test(i), want)
			}
		}
	}
}

func TestBitsetInvalidRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("SetRange with empty range should panic")
		}
	}()
	var b Bitset
	b.SetRange(10, 10)
}
