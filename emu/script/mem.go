package script

import (
	lua "github.com/yuin/gopher-lua"

	"gekko/hw/mmu"
)

func (r *Runner) memFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"read_u8":  readFunc[uint8](r),
		"read_u16": readFunc[uint16](r),
		"read_u32": readFunc[uint32](r),
		"read_u64": readFunc[uint64](r),
		"read_s8":  readFunc[int8](r),
		"read_s16": readFunc[int16](r),
		"read_s32": readFunc[int32](r),
		"read_s64": readFunc[int64](r),
		"read_f32": readFunc[float32](r),
		"read_f64": readFunc[float64](r),

		"write_u8":  writeFunc[uint8](r),
		"write_u16": writeFunc[uint16](r),
		"write_u32": writeFunc[uint32](r),
		"write_u64": writeFunc[uint64](r),
		"write_s8":  writeFunc[int8](r),
		"write_s16": writeFunc[int16](r),
		"write_s32": writeFunc[int32](r),
		"write_s64": writeFunc[int64](r),
		"write_f32": writeFunc[float32](r),
		"write_f64": writeFunc[float64](r),

		"read_instruction": r.readInstruction,
		"string":           r.readString,
		"u16string":        r.readU16String,
		"is_ram":           r.isRAM,
		"translate":        r.translate,
	}
}

// readFunc returns a Lua function reading a T: read(addr [, space]).
// It returns the value and whether the address was translated, or nil
// if the address doesn't resolve to memory.
func readFunc[T mmu.Value](r *Runner) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := checkAddr(L, 1)
		space := checkSpace(L, 2)

		var (
			res mmu.ReadResult[T]
			ok  bool
		)
		r.withGuard(func(g *mmu.CPUThreadGuard) {
			res, ok = mmu.HostTryRead[T](g, addr, space)
		})
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(res.Value))
		L.Push(lua.LBool(res.Translated))
		return 2
	}
}

// writeFunc returns a Lua function writing a T: write(addr, value [, space]).
// It returns true and whether the address was translated, or false if the
// address doesn't resolve to memory.
func writeFunc[T mmu.Value](r *Runner) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := checkAddr(L, 1)
		val := fromNumber[T](L.CheckNumber(2))
		space := checkSpace(L, 3)

		var (
			res mmu.WriteResult
			ok  bool
		)
		r.withGuard(func(g *mmu.CPUThreadGuard) {
			res, ok = mmu.HostTryWrite(g, val, addr, space)
		})
		L.Push(lua.LBool(ok))
		if !ok {
			return 1
		}
		L.Push(lua.LBool(res.Translated))
		return 2
	}
}

// fromNumber converts a Lua number to T, wrapping integers the way a
// store of the low bits would.
func fromNumber[T mmu.Value](n lua.LNumber) T {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return T(n)
	}
	return T(int64(n))
}

func (r *Runner) readInstruction(L *lua.LState) int {
	addr := checkAddr(L, 1)
	space := checkSpace(L, 2)

	var (
		res mmu.ReadResult[uint32]
		ok  bool
	)
	r.withGuard(func(g *mmu.CPUThreadGuard) {
		res, ok = mmu.HostTryReadInstruction(g, addr, space)
	})
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(res.Value))
	L.Push(lua.LBool(res.Translated))
	return 2
}

// string(addr [, size [, space]])
func (r *Runner) readString(L *lua.LState) int {
	addr := checkAddr(L, 1)
	size := L.OptInt(2, 0)
	space := checkSpace(L, 3)

	var (
		res mmu.ReadResult[string]
		ok  bool
	)
	r.withGuard(func(g *mmu.CPUThreadGuard) {
		res, ok = mmu.HostTryReadString(g, addr, space, size)
	})
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(res.Value))
	L.Push(lua.LBool(res.Translated))
	return 2
}

// u16string(addr [, size])
func (r *Runner) readU16String(L *lua.LState) int {
	addr := checkAddr(L, 1)
	size := L.OptInt(2, 0)

	var s string
	r.withGuard(func(g *mmu.CPUThreadGuard) {
		s = mmu.HostGetU16String(g, addr, size)
	})
	L.Push(lua.LString(s))
	return 1
}

// is_ram(addr [, space])
func (r *Runner) isRAM(L *lua.LState) int {
	addr := checkAddr(L, 1)
	space := checkSpace(L, 2)

	var ok bool
	r.withGuard(func(g *mmu.CPUThreadGuard) {
		ok = mmu.HostIsRAMAddress(g, addr, space)
	})
	L.Push(lua.LBool(ok))
	return 1
}

// translate(addr) returns the physical address of addr, or nil if the
// current translation doesn't map it.
func (r *Runner) translate(L *lua.LState) int {
	addr := checkAddr(L, 1)

	var (
		pa uint32
		ok bool
	)
	r.withGuard(func(g *mmu.CPUThreadGuard) {
		pa, ok = g.MMU().GetTranslatedAddress(addr)
	})
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(pa))
	return 1
}
