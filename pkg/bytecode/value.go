package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType represents the type of a runtime value.
type ValueType int

const (
	TypeNil ValueType = iota
	TypeInt
	TypeBool
	TypeString
	TypeArray
	TypeMap
	TypeObject
	TypePair
	TypeUnit
	TypeClosure
)

// String returns a human-readable name for ValueType.
func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeObject:
		return "object"
	case TypePair:
		return "pair"
	case TypeUnit:
		return "unit"
	case TypeClosure:
		return "closure"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Value is the Go representation of a runtime value. Constant operands of
// instructions and the interpreter's evaluation stack both use Value, so a
// constant can carry a nested executable unit.
type Value struct {
	Type       ValueType `cbor:"type"`
	IntVal     int64     `cbor:"int,omitempty"`
	BoolVal    bool      `cbor:"bool,omitempty"`
	StrVal     string    `cbor:"str,omitempty"`
	ArrayVal   *Array    `cbor:"array,omitempty"`
	MapVal     *Map      `cbor:"map,omitempty"`
	ObjectVal  *Object   `cbor:"object,omitempty"`
	PairVal    *Pair     `cbor:"pair,omitempty"`
	UnitVal    *Unit     `cbor:"unit,omitempty"`
	ClosureVal *Closure  `cbor:"-"` // Closures are runtime-only, never serialized
}

// Array is a mutable ordered collection shared by reference.
type Array struct {
	Elems []Value `cbor:"elems"`
}

// Map is a mutable string-keyed collection shared by reference.
type Map struct {
	Entries map[string]Value `cbor:"entries"`
}

// Object holds named attributes shared by reference.
type Object struct {
	Attrs map[string]Value `cbor:"attrs"`
}

// Pair is an immutable two-element value used by the rewriter to keep a
// container/index couple alive across an intervening duplicate-and-store.
type Pair struct {
	First  Value `cbor:"first"`
	Second Value `cbor:"second"`
}

// Closure binds an executable unit to the capture cells of its enclosing
// scope. Cells are shared by reference, so stores through the closure are
// visible in the enclosing frame.
type Closure struct {
	Unit  *Unit
	Cells map[string]*Cell
}

// Cell holds a captured variable with reference semantics.
type Cell struct {
	Value Value
}

// Get returns the cell's current value.
func (c *Cell) Get() Value {
	if c == nil {
		return NilValue()
	}
	return c.Value
}

// Set updates the cell's value.
func (c *Cell) Set(v Value) {
	if c != nil {
		c.Value = v
	}
}

// NilValue returns the nil value.
func NilValue() Value {
	return Value{Type: TypeNil}
}

// IntValue creates an integer value.
func IntValue(n int64) Value {
	return Value{Type: TypeInt, IntVal: n}
}

// BoolValue creates a boolean value.
func BoolValue(b bool) Value {
	return Value{Type: TypeBool, BoolVal: b}
}

// StringValue creates a string value.
func StringValue(s string) Value {
	return Value{Type: TypeString, StrVal: s}
}

// ArrayValue creates an array value from the given elements.
func ArrayValue(elems ...Value) Value {
	return Value{Type: TypeArray, ArrayVal: &Array{Elems: elems}}
}

// MapValue creates a map value.
func MapValue(entries map[string]Value) Value {
	if entries == nil {
		entries = make(map[string]Value)
	}
	return Value{Type: TypeMap, MapVal: &Map{Entries: entries}}
}

// ObjectValue creates an object value with the given attributes.
func ObjectValue(attrs map[string]Value) Value {
	if attrs == nil {
		attrs = make(map[string]Value)
	}
	return Value{Type: TypeObject, ObjectVal: &Object{Attrs: attrs}}
}

// PairValue creates a pair value.
func PairValue(first, second Value) Value {
	return Value{Type: TypePair, PairVal: &Pair{First: first, Second: second}}
}

// UnitValue creates a nested-unit literal value.
func UnitValue(u *Unit) Value {
	return Value{Type: TypeUnit, UnitVal: u}
}

// ClosureValue creates a closure value.
func ClosureValue(c *Closure) Value {
	return Value{Type: TypeClosure, ClosureVal: c}
}

// IsNil returns true if the value is nil.
func (v Value) IsNil() bool {
	return v.Type == TypeNil
}

// IsTruthy reports the value's truthiness: nil, false, 0, and "" are falsy.
func (v Value) IsTruthy() bool {
	switch v.Type {
	case TypeNil:
		return false
	case TypeBool:
		return v.BoolVal
	case TypeInt:
		return v.IntVal != 0
	case TypeString:
		return v.StrVal != ""
	default:
		return true
	}
}

// Equals compares two values structurally. Reference types compare by
// identity, matching assignment semantics.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeNil:
		return true
	case TypeInt:
		return v.IntVal == other.IntVal
	case TypeBool:
		return v.BoolVal == other.BoolVal
	case TypeString:
		return v.StrVal == other.StrVal
	case TypeArray:
		return v.ArrayVal == other.ArrayVal
	case TypeMap:
		return v.MapVal == other.MapVal
	case TypeObject:
		return v.ObjectVal == other.ObjectVal
	case TypePair:
		return v.PairVal.First.Equals(other.PairVal.First) &&
			v.PairVal.Second.Equals(other.PairVal.Second)
	case TypeUnit:
		return v.UnitVal == other.UnitVal
	case TypeClosure:
		return v.ClosureVal == other.ClosureVal
	default:
		return false
	}
}

// String returns a compact display form used by the disassembler and error
// messages.
func (v Value) String() string {
	switch v.Type {
	case TypeNil:
		return "nil"
	case TypeInt:
		return strconv.FormatInt(v.IntVal, 10)
	case TypeBool:
		return strconv.FormatBool(v.BoolVal)
	case TypeString:
		return strconv.Quote(v.StrVal)
	case TypeArray:
		var sb strings.Builder
		sb.WriteString("[")
		for i, e := range v.ArrayVal.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteString("]")
		return sb.String()
	case TypeMap:
		return fmt.Sprintf("map(%d entries)", len(v.MapVal.Entries))
	case TypeObject:
		return fmt.Sprintf("object(%d attrs)", len(v.ObjectVal.Attrs))
	case TypePair:
		return fmt.Sprintf("(%s, %s)", v.PairVal.First, v.PairVal.Second)
	case TypeUnit:
		return fmt.Sprintf("<unit %s>", v.UnitVal.Name)
	case TypeClosure:
		return fmt.Sprintf("<closure %s>", v.ClosureVal.Unit.Name)
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}
