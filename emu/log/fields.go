package log

import (
	"fmt"
	"strconv"
)

type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeHex64
	FieldTypeAddr
	FieldTypeInt
	FieldTypeUint
	FieldTypeError
	FieldTypeStringer
)

// ZField is a single field of an EntryZ. Only the member matching Type is
// meaningful.
type ZField struct {
	Type FieldType
	Key  string

	String    string
	Integer   uint64
	Error     error
	Interface any
	Boolean   bool
}

// hex digits used for each fixed-width integer field type.
var hexWidth = [...]int{
	FieldTypeHex8:  2,
	FieldTypeHex16: 4,
	FieldTypeHex32: 8,
	FieldTypeHex64: 16,
	FieldTypeAddr:  8,
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Boolean)
	case FieldTypeString:
		return f.String
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeHex8, FieldTypeHex16, FieldTypeHex32, FieldTypeHex64:
		return fmt.Sprintf("%0*x", hexWidth[f.Type], f.Integer)
	case FieldTypeAddr:
		// guest addresses are always 32-bit
		return fmt.Sprintf("0x%0*x", hexWidth[f.Type], uint32(f.Integer))
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeStringer:
		return f.Interface.(fmt.Stringer).String()
	}
	return ""
}
