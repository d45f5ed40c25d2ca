package jsontree

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Parse decodes exactly one JSON value from data. A repeated object name
// keeps its first position and takes the last value. Invalid UTF-8 inside
// strings becomes U+FFFD.
func Parse(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v,
		jsontext.AllowDuplicateNames(true),
		jsontext.AllowInvalidUTF8(true),
	); err != nil {
		return Value{}, err
	}
	return v, nil
}

// From converts an arbitrary Go value into a tree by encoding it with json/v2.
func From(in any) (Value, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return Value{}, fmt.Errorf("jsontree: encode %T: %w", in, err)
	}
	return Parse(data)
}

// MustFrom is like From but panics on error. Intended for literals in
// examples and tests.
func MustFrom(in any) Value {
	v, err := From(in)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders v as compact JSON.
func (v Value) String() string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<jsontree: %v>", err)
	}
	return string(data)
}

// MarshalJSONTo implements json.MarshalerTo.
func (v Value) MarshalJSONTo(enc *jsontext.Encoder) error {
	switch v.kind {
	case KindNull:
		return enc.WriteToken(jsontext.Null)
	case KindBool:
		return enc.WriteToken(jsontext.Bool(v.b))
	case KindNumber:
		return enc.WriteValue(jsontext.Value(v.str))
	case KindString:
		return enc.WriteToken(jsontext.String(v.str))
	case KindArray:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, elem := range v.arr {
			if err := elem.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case KindObject:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, m := range v.obj {
			if err := enc.WriteToken(jsontext.String(m.Key)); err != nil {
				return err
			}
			if err := m.Value.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	}
	return fmt.Errorf("jsontree: cannot encode %v", v.kind)
}

// UnmarshalJSONFrom implements json.UnmarshalerFrom.
func (v *Value) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func decodeValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	case '"':
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, err
		}
		return String(validUTF8(tok.String())), nil
	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindNumber, str: string(raw)}, nil
	case 't', 'f':
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, err
		}
		return Bool(tok.Bool()), nil
	case 'n':
		if _, err := dec.ReadToken(); err != nil {
			return Value{}, err
		}
		return Null(), nil
	default:
		// PeekKind hides the syntax error; reading surfaces it.
		if _, err := dec.ReadToken(); err != nil {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("jsontree: unexpected token at offset %d", dec.InputOffset())
	}
}

func decodeObject(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return Value{}, fmt.Errorf("read object open: %w", err)
	}
	obj := make([]Member, 0)
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, fmt.Errorf("read object key: %w", err)
		}
		key := validUTF8(tok.String())
		elem, err := decodeValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("read value for key %q: %w", key, err)
		}
		if i := indexOfKey(obj, key); i >= 0 {
			obj[i].Value = elem
			continue
		}
		obj = append(obj, Member{Key: key, Value: elem})
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return Value{}, fmt.Errorf("read object close: %w", err)
	}
	return Value{kind: KindObject, obj: obj}, nil
}

func decodeArray(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return Value{}, fmt.Errorf("read array open: %w", err)
	}
	arr := make([]Value, 0)
	for dec.PeekKind() != ']' {
		elem, err := decodeValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("read array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return Value{}, fmt.Errorf("read array close: %w", err)
	}
	return Value{kind: KindArray, arr: arr}, nil
}

func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}
