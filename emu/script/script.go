// Package script exposes guest memory to Lua scripts.
package script

import (
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"gekko/emu"
	"gekko/emu/log"
	"gekko/hw/mmu"
)

var modScript = log.NewModule("script")

// A Runner executes Lua scripts against a running system. Every memory
// access made by a script pauses the CPU for its duration.
type Runner struct {
	sys *emu.System
	out io.Writer
	L   *lua.LState
}

// New returns a runner bound to sys. Output of the Lua print function goes
// to out (os.Stdout if nil).
func New(sys *emu.System, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	r := &Runner{
		sys: sys,
		out: out,
		L:   lua.NewState(),
	}
	r.L.SetGlobal("print", r.L.NewFunction(r.print))
	r.L.SetGlobal("log", r.L.NewFunction(r.log))
	r.L.SetGlobal("mem", r.L.SetFuncs(r.L.NewTable(), r.memFuncs()))
	r.L.SetGlobal("cpu", r.L.SetFuncs(r.L.NewTable(), r.cpuFuncs()))
	return r
}

// Close releases the Lua interpreter.
func (r *Runner) Close() { r.L.Close() }

// RunString executes the Lua chunk src.
func (r *Runner) RunString(src string) error {
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunFile executes the Lua script at path.
func (r *Runner) RunFile(path string) error {
	modScript.DebugZ("running script").String("path", path).End()
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// Global returns the value of the Lua global variable name.
func (r *Runner) Global(name string) lua.LValue { return r.L.GetGlobal(name) }

func (r *Runner) withGuard(fn func(g *mmu.CPUThreadGuard)) {
	g := r.sys.PauseCPU()
	defer g.Release()
	fn(g)
}

func (r *Runner) print(L *lua.LState) int {
	args := make([]string, L.GetTop())
	for i := range args {
		args[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	fmt.Fprintln(r.out, strings.Join(args, "\t"))
	return 0
}

func (r *Runner) log(L *lua.LState) int {
	modScript.InfoZ(L.CheckString(1)).End()
	return 0
}

func checkAddr(L *lua.LState, n int) uint32 {
	return uint32(int64(L.CheckNumber(n)))
}

func checkSpace(L *lua.LState, n int) mmu.RequestedAddressSpace {
	space, err := mmu.ParseAddressSpace(L.OptString(n, "effective"))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return space
}
