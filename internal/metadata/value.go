package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates Value.
type ValueKind int

const (
	Undefined ValueKind = iota
	String
	Number
	Sequence
)

func (k ValueKind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Sequence:
		return "sequence"
	default:
		return "undefined"
	}
}

// Value is a single metadata field value. The zero Value is Undefined.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	seq  []float64
}

func Str(s string) Value  { return Value{kind: String, str: s} }
func Num(n float64) Value { return Value{kind: Number, num: n} }

// Seq copies nums into a Sequence value.
func Seq(nums ...float64) Value {
	return Value{kind: Sequence, seq: append([]float64(nil), nums...)}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsDefined() bool { return v.kind != Undefined }
func (v Value) Text() string    { return v.str }
func (v Value) Number() float64 { return v.num }

// Numbers returns a copy of a Sequence value's elements.
func (v Value) Numbers() []float64 {
	return append([]float64(nil), v.seq...)
}

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.str != o.str || v.num != o.num || len(v.seq) != len(o.seq) {
		return false
	}
	for i := range v.seq {
		if v.seq[i] != o.seq[i] {
			return false
		}
	}
	return true
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return formatNumber(v.num)
	case Sequence:
		parts := make([]string, len(v.seq))
		for i, n := range v.seq {
			parts[i] = formatNumber(n)
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Native returns the value as a plain Go value: string, float64, []float64 or nil.
func (v Value) Native() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return v.num
	case Sequence:
		return v.Numbers()
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := valueFromNative(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML lets yaml.v3 render values without importing it here.
func (v Value) MarshalYAML() (any, error) {
	return v.Native(), nil
}

func valueFromNative(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return Str(x), nil
	case float64:
		return Num(x), nil
	case []any:
		nums := make([]float64, len(x))
		for i, e := range x {
			n, ok := e.(float64)
			if !ok {
				return Value{}, fmt.Errorf("sequence element %v is not a number", e)
			}
			nums[i] = n
		}
		return Seq(nums...), nil
	default:
		return Value{}, fmt.Errorf("unsupported metadata value %T", raw)
	}
}
