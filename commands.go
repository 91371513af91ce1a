package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	"gekko/emu"
	"gekko/emu/script"
	"gekko/hw/mmu"
	"gekko/hw/ppc"
)

// translateMain prints how addr translates as a data and as an instruction
// address.
func translateMain(w io.Writer, sys *emu.System, addr uint32) {
	sys.Exec(func(m *mmu.MMU) {
		msr := m.CPU().MSR
		fmt.Fprintf(w, "MSR: %v\n", msr)
		for _, flag := range []mmu.XCheckTLBFlag{mmu.NoException, mmu.OpcodeNoException} {
			what, on := "data", msr.DR()
			if flag == mmu.OpcodeNoException {
				what, on = "instruction", msr.IR()
			}
			res := m.TranslateAddress(flag, addr)
			switch {
			case res.Success():
				fmt.Fprintf(w, "%-12s %08x -> %08x (%v, wi=%t)", what, addr, res.Address, res.Kind, res.WI)
			default:
				fmt.Fprintf(w, "%-12s %08x -> %v", what, addr, res.Kind)
			}
			if !on {
				fmt.Fprint(w, " [translation off]")
			}
			fmt.Fprintln(w)
		}
	})
}

func readValue[T mmu.Value](g *mmu.CPUThreadGuard, addr uint32, space mmu.RequestedAddressSpace) (string, bool, bool) {
	res, ok := mmu.HostTryRead[T](g, addr, space)
	if !ok {
		return "", false, false
	}
	return formatValue(res.Value), res.Translated, true
}

func formatValue[T mmu.Value](v T) string {
	switch v := any(v).(type) {
	case uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%#x (%d)", v, v)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprint(v)
}

func readMain(w io.Writer, sys *emu.System, args Read) error {
	space, err := mmu.ParseAddressSpace(args.Space)
	if err != nil {
		return err
	}

	addr := uint32(args.Addr)
	g := sys.PauseCPU()
	defer g.Release()

	var (
		str        string
		translated bool
		ok         bool
	)
	switch args.Type {
	case "u8":
		str, translated, ok = readValue[uint8](g, addr, space)
	case "u16":
		str, translated, ok = readValue[uint16](g, addr, space)
	case "u32":
		str, translated, ok = readValue[uint32](g, addr, space)
	case "u64":
		str, translated, ok = readValue[uint64](g, addr, space)
	case "s8":
		str, translated, ok = readValue[int8](g, addr, space)
	case "s16":
		str, translated, ok = readValue[int16](g, addr, space)
	case "s32":
		str, translated, ok = readValue[int32](g, addr, space)
	case "s64":
		str, translated, ok = readValue[int64](g, addr, space)
	case "f32":
		str, translated, ok = readValue[float32](g, addr, space)
	case "f64":
		str, translated, ok = readValue[float64](g, addr, space)
	case "instr":
		var res mmu.ReadResult[uint32]
		res, ok = mmu.HostTryReadInstruction(g, addr, space)
		str, translated = fmt.Sprintf("%08x", res.Value), res.Translated
	case "string":
		var res mmu.ReadResult[string]
		res, ok = mmu.HostTryReadString(g, addr, space, 0)
		str, translated = strconv.Quote(res.Value), res.Translated
	case "u16string":
		if space != mmu.Effective {
			return fmt.Errorf("u16string only supports effective addresses")
		}
		str, translated, ok = strconv.Quote(mmu.HostGetU16String(g, addr, 0)), false, true
	default:
		return fmt.Errorf("unknown type %q", args.Type)
	}

	if !ok {
		return fmt.Errorf("%s address %08x is not memory", space, addr)
	}
	fmt.Fprintf(w, "%08x: %s", addr, str)
	if translated {
		fmt.Fprint(w, " [translated]")
	}
	fmt.Fprintln(w)
	return nil
}

func parseValue[T mmu.Value](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		v, err := strconv.ParseFloat(s, 32)
		return T(v), err
	case float64:
		v, err := strconv.ParseFloat(s, 64)
		return T(v), err
	case int8, int16, int32, int64:
		v, err := strconv.ParseInt(s, 0, 8*int(sizeOf(zero)))
		return T(v), err
	}
	v, err := strconv.ParseUint(s, 0, 8*int(sizeOf(zero)))
	return T(v), err
}

func sizeOf[T mmu.Value](v T) uintptr {
	switch any(v).(type) {
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	case uint32, int32, float32:
		return 4
	}
	return 8
}

func writeValue[T mmu.Value](g *mmu.CPUThreadGuard, addr uint32, s string, space mmu.RequestedAddressSpace) (bool, error) {
	v, err := parseValue[T](s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q: %w", s, err)
	}
	res, ok := mmu.HostTryWrite(g, v, addr, space)
	if !ok {
		return false, fmt.Errorf("%s address %08x is not memory", space, addr)
	}
	return res.Translated, nil
}

func writeMain(w io.Writer, sys *emu.System, args Write) error {
	space, err := mmu.ParseAddressSpace(args.Space)
	if err != nil {
		return err
	}

	addr := uint32(args.Addr)
	g := sys.PauseCPU()
	defer g.Release()

	var translated bool
	switch args.Type {
	case "u8":
		translated, err = writeValue[uint8](g, addr, args.Value, space)
	case "u16":
		translated, err = writeValue[uint16](g, addr, args.Value, space)
	case "u32":
		translated, err = writeValue[uint32](g, addr, args.Value, space)
	case "u64":
		translated, err = writeValue[uint64](g, addr, args.Value, space)
	case "s8":
		translated, err = writeValue[int8](g, addr, args.Value, space)
	case "s16":
		translated, err = writeValue[int16](g, addr, args.Value, space)
	case "s32":
		translated, err = writeValue[int32](g, addr, args.Value, space)
	case "s64":
		translated, err = writeValue[int64](g, addr, args.Value, space)
	case "f32":
		translated, err = writeValue[float32](g, addr, args.Value, space)
	case "f64":
		translated, err = writeValue[float64](g, addr, args.Value, space)
	default:
		return fmt.Errorf("unknown type %q", args.Type)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%08x: wrote %s %s", addr, args.Type, args.Value)
	if translated {
		fmt.Fprint(w, " [translated]")
	}
	fmt.Fprintln(w)
	return nil
}

// dumpWidth returns the number of bytes per line that fit in the terminal
// attached to f. Files and pipes get 16.
func dumpWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return 16
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols < dumpLineLen(32) {
		return 16
	}
	return 32
}

// dumpLineLen is the length of a dump line showing n bytes.
func dumpLineLen(n int) int { return 10 + 3*n + 2 + n + 1 }

// dumpMain writes a hex dump of guest memory. Bytes that can't be read are
// shown as '??'.
func dumpMain(w io.Writer, width int, sys *emu.System, args Dump) error {
	space, err := mmu.ParseAddressSpace(args.Space)
	if err != nil {
		return err
	}

	g := sys.PauseCPU()
	defer g.Release()

	var (
		hex   strings.Builder
		ascii strings.Builder
	)
	addr := uint32(args.Addr)
	for off := 0; off < args.Len; off += width {
		hex.Reset()
		ascii.Reset()
		for i := range width {
			if off+i >= args.Len {
				hex.WriteString("   ")
				continue
			}
			b, ok := mmu.HostTryRead[uint8](g, addr+uint32(off+i), space)
			switch {
			case !ok:
				hex.WriteString("?? ")
				ascii.WriteByte('.')
			default:
				fmt.Fprintf(&hex, "%02x ", b.Value)
				if b.Value >= 0x20 && b.Value < 0x7f {
					ascii.WriteByte(b.Value)
				} else {
					ascii.WriteByte('.')
				}
			}
		}
		if _, err := fmt.Fprintf(w, "%08x: %s |%s|\n", addr+uint32(off), hex.String(), ascii.String()); err != nil {
			return err
		}
	}
	return nil
}

// batsMain prints the BAT registers and the blocks they map.
func batsMain(w io.Writer, sys *emu.System) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "BAT\tUPPER\tLOWER\tVs/Vp\tEFFECTIVE\tPHYSICAL\tWIMG\tPP")
	sys.Exec(func(m *mmu.MMU) {
		cpu := m.CPU()
		for _, kind := range []string{"DBAT", "IBAT"} {
			for i := range 8 {
				var (
					u ppc.BATU
					l ppc.BATL
				)
				if kind == "DBAT" {
					u, l = cpu.DBAT(i)
				} else {
					u, l = cpu.IBAT(i)
				}
				fmt.Fprintf(tw, "%s%d\t%08x\t%08x\t%s\t", kind, i, uint32(u), uint32(l), batValid(u))
				if !u.Vs() && !u.Vp() {
					fmt.Fprintln(tw, "-\t-\t-\t-")
					continue
				}
				size := (u.BL() + 1) << 17
				ea := u.BEPI() << 17
				pa := l.BRPN() << 17
				fmt.Fprintf(tw, "%08x-%08x\t%08x\t%04b\t%d\n", ea, ea+size-1, pa, l.WIMG(), l.PP())
			}
		}
	})
}

func batValid(u ppc.BATU) string {
	var sb strings.Builder
	for _, b := range []bool{u.Vs(), u.Vp()} {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func scriptMain(sys *emu.System, path string) error {
	r := script.New(sys, os.Stdout)
	defer r.Close()
	return r.RunFile(path)
}

func printConfig(w io.Writer, cfg emu.Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
