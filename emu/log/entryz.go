package log

import (
	"fmt"
	"sync"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a log entry built field by field, without allocations for the
// common field types. A nil *EntryZ is valid: all methods are no-ops, so that
// a disabled log line costs a single nil check.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (z *EntryZ) field(typ FieldType, key string) *ZField {
	if z.zfidx == len(z.zfbuf) {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	*f = ZField{Type: typ, Key: key}
	z.zfidx++
	return f
}

func (z *EntryZ) Bool(key string, b bool) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeBool, key); f != nil {
			f.Boolean = b
		}
	}
	return z
}

func (z *EntryZ) String(key string, s string) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeString, key); f != nil {
			f.String = s
		}
	}
	return z
}

func (z *EntryZ) integer(typ FieldType, key string, v uint64) *EntryZ {
	if z != nil {
		if f := z.field(typ, key); f != nil {
			f.Integer = v
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ   { return z.integer(FieldTypeHex8, key, uint64(v)) }
func (z *EntryZ) Hex16(key string, v uint16) *EntryZ { return z.integer(FieldTypeHex16, key, uint64(v)) }
func (z *EntryZ) Hex32(key string, v uint32) *EntryZ { return z.integer(FieldTypeHex32, key, uint64(v)) }
func (z *EntryZ) Hex64(key string, v uint64) *EntryZ { return z.integer(FieldTypeHex64, key, v) }
func (z *EntryZ) Addr(key string, v uint32) *EntryZ  { return z.integer(FieldTypeAddr, key, uint64(v)) }
func (z *EntryZ) Int(key string, v int) *EntryZ      { return z.integer(FieldTypeInt, key, uint64(v)) }
func (z *EntryZ) Int64(key string, v int64) *EntryZ  { return z.integer(FieldTypeInt, key, uint64(v)) }
func (z *EntryZ) Uint(key string, v uint) *EntryZ    { return z.integer(FieldTypeUint, key, uint64(v)) }
func (z *EntryZ) Uint64(key string, v uint64) *EntryZ {
	return z.integer(FieldTypeUint, key, v)
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeError, key); f != nil {
			f.Error = err
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.field(FieldTypeStringer, key); f != nil {
			f.Interface = s
		}
	}
	return z
}

// End emits the entry and returns it to the pool. The entry must not be used
// afterwards.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	addContexts(z)

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	entry := logrus.StandardLogger().WithFields(fields)

	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	case PanicLevel:
		entry.Panic(z.msg)
	}

	for i := range z.zfbuf[:z.zfidx] {
		z.zfbuf[i] = ZField{}
	}
	z.zfidx = 0
	entryPool.Put(z)
}

// A Context adds fields to every log entry, for example the current program
// counter of the emulated CPU.
type Context interface {
	AddLogContext(entry *EntryZ)
}

var contexts []Context

// AddContext registers a context whose fields are appended to every entry.
func AddContext(ctx Context) {
	contexts = append(contexts, ctx)
}

// RemoveContext unregisters a context previously added with AddContext.
func RemoveContext(ctx Context) {
	for i, c := range contexts {
		if c == ctx {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

func addContexts(z *EntryZ) {
	for _, c := range contexts {
		c.AddLogContext(z)
	}
}
