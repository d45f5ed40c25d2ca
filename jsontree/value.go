// Package jsontree holds parsed JSON documents as an immutable generic tree
// and navigates them by key and index.
//
// A Value is a tagged union over null, bool, number, string, array and
// object. Numbers keep their literal text so large integer ids are not
// rounded through float64. The zero Value is JSON null.
//
//	root, err := jsontree.Parse(body)
//	first, err := jsontree.Navigate(root, jsontree.Key("products"), jsontree.Index(0))
package jsontree

import (
	"math"
	"math/big"
	"slices"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable JSON tree node.
type Value struct {
	kind Kind
	b    bool
	str  string // string contents or number literal
	arr  []Value
	obj  []Member
}

// Member is a single object entry.
type Member struct {
	Key   string
	Value Value
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool returns a JSON boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a JSON string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns a JSON number holding i.
func Int(i int64) Value { return Value{kind: KindNumber, str: strconv.FormatInt(i, 10)} }

// Float returns a JSON number holding f. NaN and infinities have no JSON
// representation and yield null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindNumber, str: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a JSON number from its literal text, e.g. "12", "-0.5e3".
// Surrounding whitespace is rejected, not trimmed.
func Number(lit string) (Value, error) {
	raw := jsontext.Value(lit)
	if lit == "" || !isDigit(lit[len(lit)-1]) ||
		(lit[0] != '-' && !isDigit(lit[0])) || !raw.IsValid() || raw.Kind() != '0' {
		return Value{}, &InvalidNumberError{Literal: lit}
	}
	return Value{kind: KindNumber, str: lit}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// InvalidNumberError reports a literal that is not a JSON number.
type InvalidNumberError struct {
	Literal string
}

func (e *InvalidNumberError) Error() string {
	return "jsontree: invalid number literal " + strconv.Quote(e.Literal)
}

// Array returns a JSON array of elems. The slice is copied.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: append(make([]Value, 0, len(elems)), elems...)}
}

// Field is shorthand for a Member literal.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

// Object returns a JSON object of members. A repeated key replaces the value
// of its first occurrence, keeping that position.
func Object(members ...Member) Value {
	obj := make([]Member, 0, len(members))
	for _, m := range members {
		if i := indexOfKey(obj, m.Key); i >= 0 {
			obj[i].Value = m.Value
			continue
		}
		obj = append(obj, m)
	}
	return Value{kind: KindObject, obj: obj}
}

func indexOfKey(obj []Member, key string) int {
	return slices.IndexFunc(obj, func(m Member) bool { return m.Key == key })
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the literal text of the number held by v.
func (v Value) AsNumber() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.str, true
}

// Float64 parses the number held by v.
func (v Value) Float64() (float64, error) {
	if v.kind != KindNumber {
		return 0, &KindError{Want: KindNumber, Got: v.kind}
	}
	return strconv.ParseFloat(v.str, 64)
}

// Int64 parses the number held by v as an integer.
func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, &KindError{Want: KindNumber, Got: v.kind}
	}
	return strconv.ParseInt(v.str, 10, 64)
}

// KindError reports an accessor used on the wrong variant.
type KindError struct {
	Want, Got Kind
}

func (e *KindError) Error() string {
	return "jsontree: want " + e.Want.String() + ", got " + e.Got.String()
}

// Len returns the number of array elements or object members; zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// At returns the i-th array element.
func (v Value) At(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Lookup returns the value stored under key. Matching is exact.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	if i := indexOfKey(v.obj, key); i >= 0 {
		return v.obj[i].Value, true
	}
	return Value{}, false
}

// Keys returns object keys in document order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.obj))
	for i, m := range v.obj {
		keys[i] = m.Key
	}
	return keys
}

// Members returns a copy of the object members.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return slices.Clone(v.obj)
}

// Elements returns a copy of the array elements.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return slices.Clone(v.arr)
}

// Equal reports structural equality. Object member order is ignored and
// numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.str == o.str
	case KindNumber:
		if v.str == o.str {
			return true
		}
		return numbersEqual(v.str, o.str)
	case KindArray:
		return slices.EqualFunc(v.arr, o.arr, Value.Equal)
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for _, m := range v.obj {
			other, ok := o.Lookup(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// numbersEqual compares two number literals exactly.
func numbersEqual(a, b string) bool {
	x, okA := new(big.Rat).SetString(a)
	y, okB := new(big.Rat).SetString(b)
	return okA && okB && x.Cmp(y) == 0
}
