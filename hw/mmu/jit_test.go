package mmu

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gekko/hw/memcheck"
	"gekko/hw/ppc"
)

func TestJitCacheTranslateAddress(t *testing.T) {
	env := newTestEnv(t)
	m := env.mmu

	if diff := cmp.Diff(TranslateResult{Valid: true, Address: 0x80003100}, m.JitCacheTranslateAddress(0x80003100)); diff != "" {
		t.Errorf("IR off mismatch (-want +got):\n%s", diff)
	}

	env.setIR(true)
	env.mapIBAT(0, 0x80000000, 0, 0)
	env.setupPageTable()
	env.mapPage(t, 0x10000000, 0x00020000, 0, false)

	tests := []struct {
		addr uint32
		want TranslateResult
	}{
		{0x80003100, TranslateResult{Valid: true, Translated: true, FromBAT: true, Address: 0x3100}},
		{0x10000040, TranslateResult{Valid: true, Translated: true, Address: 0x00020040}},
		{0x90000000, TranslateResult{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, m.JitCacheTranslateAddress(tt.addr)); diff != "" {
			t.Errorf("%08x mismatch (-want +got):\n%s", tt.addr, diff)
		}
	}
}

func TestIsOptimizableRAMAddress(t *testing.T) {
	env := newTestEnv(t)
	env.mapDBAT(0, 0x80000000, 0, 0, 0)
	env.mapDBAT(1, 0xC0000000, 0, 0, ppc.WIMGInhibited)
	m := env.mmu

	if m.IsOptimizableRAMAddress(0x80000000, 32) {
		t.Errorf("optimizable with DR off")
	}
	env.setDR(true)

	tests := []struct {
		addr uint32
		size int
		want bool
	}{
		{0x80000000, 32, true},
		{0x8001FFF8, 64, true},
		{0x8001FFFE, 32, false}, // crosses into an unmapped block
		{0xC0000000, 32, false}, // cache-inhibited
		{0x90000000, 8, false},
	}
	for _, tt := range tests {
		if got := m.IsOptimizableRAMAddress(tt.addr, tt.size); got != tt.want {
			t.Errorf("IsOptimizableRAMAddress(%08x, %d) = %v, want %v", tt.addr, tt.size, got, tt.want)
		}
	}

	if err := env.checks.Add(memcheck.MemCheck{Start: 0x90000000, End: 0x90000000, OnRead: true}); err != nil {
		t.Fatal(err)
	}
	if m.IsOptimizableRAMAddress(0x80000000, 32) {
		t.Errorf("optimizable with memchecks set")
	}
}

func TestIsOptimizableMMIOAccess(t *testing.T) {
	env := newTestEnv(t)
	env.mapDBAT(0, 0xCC000000, 0x0C000000, 0, ppc.WIMGInhibited)
	env.setDR(true)
	m := env.mmu

	if pa, ok := m.IsOptimizableMMIOAccess(0xCC003004, 32); !ok || pa != 0x0C003004 {
		t.Errorf("IsOptimizableMMIOAccess = %#x, %v", pa, ok)
	}
	if _, ok := m.IsOptimizableMMIOAccess(0xCC003002, 32); ok {
		t.Errorf("unaligned access is optimizable")
	}
	if _, ok := m.IsOptimizableMMIOAccess(0xCC008000, 32); ok {
		t.Errorf("gather pipe is optimizable")
	}
	if _, ok := m.IsOptimizableMMIOAccess(0x80000000, 32); ok {
		t.Errorf("unmapped address is optimizable")
	}
}

func TestJitEntryPoints(t *testing.T) {
	env := newTestEnv(t)
	m := env.mmu

	WriteU32FromJit(m, 0x01020304, 0x100)
	WriteU16FromJit(m, 0xFFFF0506, 0x104)
	WriteU8FromJit(m, 0x07, 0x106)
	WriteU64FromJit(m, 0x1112131415161718, 0x108)
	if v := ReadU64FromJit(m, 0x100); v != 0x0102030405060700 {
		t.Errorf("ReadU64FromJit = %#x", v)
	}
	if v := ReadU32FromJit(m, 0x108); v != 0x11121314 {
		t.Errorf("ReadU32FromJit = %#x", v)
	}
	if v := ReadU16FromJit(m, 0x104); v != 0x0506 {
		t.Errorf("ReadU16FromJit = %#x", v)
	}
	if v := ReadU8FromJit(m, 0x106); v != 0x07 {
		t.Errorf("ReadU8FromJit = %#x", v)
	}

	WriteU16SwapFromJit(m, 0x1234, 0x200)
	WriteU32SwapFromJit(m, 0x12345678, 0x204)
	WriteU64SwapFromJit(m, 0x0102030405060708, 0x208)
	if v := m.Read16(0x200); v != 0x3412 {
		t.Errorf("WriteU16SwapFromJit = %#x", v)
	}
	if v := m.Read32(0x204); v != 0x78563412 {
		t.Errorf("WriteU32SwapFromJit = %#x", v)
	}
	if v := m.Read64(0x208); v != 0x0807060504030201 {
		t.Errorf("WriteU64SwapFromJit = %#x", v)
	}
}
