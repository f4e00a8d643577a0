// Package document holds the ordered key/value documents that become
// Terminal.app preference fragments.
package document

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Kind is the type of a [Value].
type Kind int

const (
	// KindInvalid is the zero [Value]. It cannot be serialized.
	KindInvalid Kind = iota
	KindBool
	KindInteger
	KindReal
	KindString
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindData:
		return "data"
	case KindInvalid:
		return "invalid"
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a typed document value.
type Value struct {
	s    string
	d    []byte
	r    float64
	i    int64
	kind Kind
	b    bool
}

// Bool creates a boolean [Value].
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Integer creates an integer [Value].
func Integer(v int64) Value {
	return Value{kind: KindInteger, i: v}
}

// Real creates a floating point [Value].
func Real(v float64) Value {
	return Value{kind: KindReal, r: v}
}

// String creates a string [Value].
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Data creates a binary [Value].
func Data(v []byte) Value {
	return Value{kind: KindData, d: v}
}

// Kind returns the value type.
func (v Value) Kind() Kind {
	return v.kind
}

// Interface returns the value as bool, int64, float64, string or []byte. It
// returns nil for [KindInvalid].
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInteger:
		return v.i
	case KindReal:
		return v.r
	case KindString:
		return v.s
	case KindData:
		return v.d
	case KindInvalid:
	}

	return nil
}

// AsBool returns the boolean value, if v is a [KindBool].
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInteger returns the integer value, if v is a [KindInteger].
func (v Value) AsInteger() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// AsReal returns the floating point value, if v is a [KindReal].
func (v Value) AsReal() (float64, bool) {
	return v.r, v.kind == KindReal
}

// AsString returns the string value, if v is a [KindString].
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsData returns the binary value, if v is a [KindData].
func (v Value) AsData() ([]byte, bool) {
	return v.d, v.kind == KindData
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.r, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindData:
		return fmt.Sprintf("<%d bytes %s>", len(v.d), base64.StdEncoding.EncodeToString(v.d))
	case KindInvalid:
	}

	return "<invalid>"
}

// Entry is one key and its value.
type Entry struct {
	Value Value
	Key   string
}

// Document is an ordered mapping of unique keys to typed values.
//
// The zero value is an empty document ready to use.
type Document struct {
	index   map[string]int
	entries []Entry
}

// New creates an empty [Document].
func New() *Document {
	return &Document{}
}

// Set sets key to v. An existing key keeps its position.
func (d *Document) Set(key string, v Value) *Document {
	if d.index == nil {
		d.index = map[string]int{}
	}

	if i, ok := d.index[key]; ok {
		d.entries[i].Value = v

		return d
	}

	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: v})

	return d
}

// Get returns the value of key.
func (d *Document) Get(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}

	return d.entries[i].Value, true
}

// Has reports whether key is set.
func (d *Document) Has(key string) bool {
	_, ok := d.index[key]

	return ok
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.entries)
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		keys = append(keys, e.Key)
	}

	return keys
}

// Entries returns a copy of the entries in insertion order.
func (d *Document) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}
