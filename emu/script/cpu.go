package script

import (
	lua "github.com/yuin/gopher-lua"

	"gekko/hw/mmu"
	"gekko/hw/ppc"
)

func (r *Runner) cpuFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"pc":       r.pc,
		"set_msr":  r.setMSR,
		"set_dbat": r.setBAT(false),
		"set_ibat": r.setBAT(true),
		"set_sr":   r.setSR,
		"set_sdr1": r.setSDR1,
	}
}

func (r *Runner) pc(L *lua.LState) int {
	var pc uint32
	r.sys.Exec(func(m *mmu.MMU) { pc = m.CPU().PC })
	L.Push(lua.LNumber(pc))
	return 1
}

// set_msr(dr, ir)
func (r *Runner) setMSR(L *lua.LState) int {
	r.sys.SetMSR(L.ToBool(1), L.ToBool(2))
	return 0
}

// set_dbat(i, upper, lower) and set_ibat(i, upper, lower)
func (r *Runner) setBAT(instr bool) lua.LGFunction {
	return func(L *lua.LState) int {
		i := L.CheckInt(1)
		if i < 0 || i >= 8 {
			L.ArgError(1, "BAT index out of range")
		}
		u := ppc.BATU(checkAddr(L, 2))
		l := ppc.BATL(checkAddr(L, 3))

		r.sys.Exec(func(m *mmu.MMU) {
			if instr {
				m.CPU().SetIBAT(i, u, l)
				m.IBATUpdated()
			} else {
				m.CPU().SetDBAT(i, u, l)
				m.DBATUpdated()
			}
		})
		return 0
	}
}

// set_sr(i, value)
func (r *Runner) setSR(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 0 || i >= 16 {
		L.ArgError(1, "segment register out of range")
	}
	sr := ppc.SR(checkAddr(L, 2))
	r.sys.Exec(func(m *mmu.MMU) {
		m.CPU().SR[i] = sr
		m.CPU().InvalidateTLB()
	})
	return 0
}

// set_sdr1(value)
func (r *Runner) setSDR1(L *lua.LState) int {
	v := checkAddr(L, 1)
	r.sys.Exec(func(m *mmu.MMU) {
		m.CPU().SPR[ppc.SprSDR] = v
		m.SDRUpdated()
	})
	return 0
}
