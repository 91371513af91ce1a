package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type regInfo struct {
	offset uint32
	regPtr any
}

func parseUint(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 0, bits)
}

// bankGetRegs returns the registers of bank, in declaration order, that have
// an offset within bank number bankNum.
func bankGetRegs(bank any, bankNum int) ([]regInfo, error) {
	v := reflect.ValueOf(bank)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bank must be a pointer to struct, got %T", bank)
	}
	v = v.Elem()

	var regs []regInfo
	for i := range v.NumField() {
		field := v.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}

		info := regInfo{offset: ^uint32(0)}
		num := 0
		for opt := range strings.SplitSeq(tag, ",") {
			key, val, _ := strings.Cut(opt, "=")
			switch key {
			case "offset":
				off, err := parseUint(val, 32)
				if err != nil {
					return nil, fmt.Errorf("%s: invalid offset %q: %w", field.Name, val, err)
				}
				info.offset = uint32(off)
			case "bank":
				n, err := strconv.Atoi(val)
				if err != nil {
					return nil, fmt.Errorf("%s: invalid bank %q: %w", field.Name, val, err)
				}
				num = n
			}
		}
		if num != bankNum || info.offset == ^uint32(0) {
			continue
		}
		info.regPtr = v.Field(i).Addr().Interface()
		regs = append(regs, info)
	}
	return regs, nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

// InitRegs initializes all the Reg32, Mem and Device fields of the struct
// pointed by data, following the options in their "hwio" struct tags:
//
//	reset=0x12      reset value of a Reg32
//	rwmask=0xF0     bits of a Reg32 that can be written (default: all)
//	readonly        writes are ignored (and logged)
//	writeonly       reads return 0 (and are logged)
//	rcb[=Name]      read callback, defaults to method ReadNAME
//	wcb[=Name]      write callback, defaults to method WriteNAME
//	pcb[=Name]      peek callback, defaults to method PeekNAME
//	size=0x100      size of a Mem buffer or Device range
//	vsize=0x200     virtual size of a Mem (mirroring)
//
// where NAME is the field name in upper case. Callbacks are bound to methods
// of data.
func InitRegs(data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("InitRegs: data must be a pointer to struct, got %T", data)
	}
	obj := v
	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		tag, ok := field.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		if err := initReg(obj, v.Field(i).Addr().Interface(), field.Name, tag); err != nil {
			return fmt.Errorf("InitRegs: %s: %w", field.Name, err)
		}
	}
	return nil
}

type regOpts struct {
	reset, rwmask uint64
	size, vsize   uint64
	flags         RWFlags
	rcb, wcb, pcb string

	hasRwmask, hasRcb, hasWcb, hasPcb bool
}

func parseRegOpts(name, tag string) (regOpts, error) {
	var opts regOpts
	var err error
	upper := strings.ToUpper(name)

	for opt := range strings.SplitSeq(tag, ",") {
		key, val, hasval := strings.Cut(opt, "=")
		switch key {
		case "", "offset", "bank":
		case "reset":
			if opts.reset, err = parseUint(val, 32); err != nil {
				return opts, fmt.Errorf("invalid reset value %q: %w", val, err)
			}
		case "rwmask":
			if opts.rwmask, err = parseUint(val, 32); err != nil {
				return opts, fmt.Errorf("invalid rwmask %q: %w", val, err)
			}
			opts.hasRwmask = true
		case "size":
			if opts.size, err = parseUint(val, 32); err != nil {
				return opts, fmt.Errorf("invalid size %q: %w", val, err)
			}
		case "vsize":
			if opts.vsize, err = parseUint(val, 32); err != nil {
				return opts, fmt.Errorf("invalid vsize %q: %w", val, err)
			}
		case "readonly":
			opts.flags |= ReadOnlyFlag
		case "writeonly":
			opts.flags |= WriteOnlyFlag
		case "rcb":
			opts.hasRcb, opts.rcb = true, "Read"+upper
			if hasval {
				opts.rcb = val
			}
		case "wcb":
			opts.hasWcb, opts.wcb = true, "Write"+upper
			if hasval {
				opts.wcb = val
			}
		case "pcb":
			opts.hasPcb, opts.pcb = true, "Peek"+upper
			if hasval {
				opts.pcb = val
			}
		default:
			return opts, fmt.Errorf("unknown option %q", key)
		}
	}
	if opts.flags == ReadOnlyFlag|WriteOnlyFlag {
		return opts, errors.New("readonly and writeonly are mutually exclusive")
	}
	return opts, nil
}

func method[T any](obj reflect.Value, name string) (T, error) {
	var zero T
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return zero, fmt.Errorf("method %s not found on %s", name, obj.Type())
	}
	fn, ok := m.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("method %s has signature %s, want %s",
			name, m.Type(), reflect.TypeFor[T]())
	}
	return fn, nil
}

func initReg(obj reflect.Value, ptr any, name, tag string) error {
	opts, err := parseRegOpts(name, tag)
	if err != nil {
		return err
	}

	switch r := ptr.(type) {
	case *Reg32:
		r.Name = name
		r.Value = uint32(opts.reset)
		r.Flags = opts.flags
		if opts.hasRwmask {
			r.RoMask = ^uint32(opts.rwmask)
		}
		if opts.hasRcb {
			if r.ReadCb, err = method[func(uint32) uint32](obj, opts.rcb); err != nil {
				return err
			}
		}
		if opts.hasPcb {
			if r.PeekCb, err = method[func(uint32) uint32](obj, opts.pcb); err != nil {
				return err
			}
		}
		if opts.hasWcb {
			if r.WriteCb, err = method[func(uint32, uint32)](obj, opts.wcb); err != nil {
				return err
			}
		}

	case *Mem:
		if opts.size == 0 || opts.size&(opts.size-1) != 0 {
			return fmt.Errorf("invalid mem size %#x (must be pow2)", opts.size)
		}
		r.Name = name
		r.Data = make([]byte, opts.size)
		r.VSize = int(opts.vsize)
		if r.VSize == 0 {
			r.VSize = int(opts.size)
		}
		if opts.flags&ReadOnlyFlag != 0 {
			r.Flags |= MemFlagReadOnly
		}
		if opts.hasWcb {
			if r.WriteCb, err = method[func(uint32, uint32)](obj, opts.wcb); err != nil {
				return err
			}
		}

	case *Device:
		if opts.size == 0 {
			return errors.New("device size not specified")
		}
		r.Name = name
		r.Size = int(opts.size)
		r.Flags = opts.flags
		if opts.hasRcb {
			if r.ReadCb, err = method[func(uint32, int) uint32](obj, opts.rcb); err != nil {
				return err
			}
		}
		if opts.hasPcb {
			if r.PeekCb, err = method[func(uint32, int) uint32](obj, opts.pcb); err != nil {
				return err
			}
		}
		if opts.hasWcb {
			if r.WriteCb, err = method[func(uint32, uint32, int)](obj, opts.wcb); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unsupported register type %T", ptr)
	}
	return nil
}
