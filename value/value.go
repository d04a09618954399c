// Package value implements the CanL3 value model: a JSON-equivalent tree of
// nulls, booleans, numbers, strings, lists and insertion-ordered objects.
//
// Values are handled through pointers. A *Value is the identity of a node;
// the encoder relies on it to tell a cycle from a sub-tree that is merely
// shared between two branches.
package value

import (
	"math"
	"strconv"
)

// MaxSafeInteger is the largest integer magnitude a Number holds exactly.
// Integers beyond it are represented as strings.
const MaxSafeInteger = 1<<53 - 1

// Kind is the type of a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	List
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// Value is a node of a CanL3 document tree. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	num     float64
	exact   bool
	str     string
	items   []*Value
	members []Member
	index   map[string]int
}

// NewNull returns a null value.
func NewNull() *Value { return &Value{kind: Null} }

// NewBool returns a boolean value.
func NewBool(b bool) *Value { return &Value{kind: Bool, b: b} }

// NewNumber returns a number. exact marks an integer that must be written
// back without a fractional part.
func NewNumber(f float64, exact bool) *Value {
	if exact && (math.Trunc(f) != f || math.Abs(f) > MaxSafeInteger) {
		exact = false
	}
	return &Value{kind: Number, num: f, exact: exact}
}

// NewInt returns an exact integer. Integers outside ±MaxSafeInteger are
// returned as their decimal string so no precision is lost.
func NewInt(i int64) *Value {
	if i > MaxSafeInteger || i < -MaxSafeInteger {
		return NewString(strconv.FormatInt(i, 10))
	}
	return &Value{kind: Number, num: float64(i), exact: true}
}

// NewFloat returns a non-integer number.
func NewFloat(f float64) *Value { return &Value{kind: Number, num: f} }

// NewString returns a string value.
func NewString(s string) *Value { return &Value{kind: String, str: s} }

// NewList returns a list holding items in order.
func NewList(items ...*Value) *Value {
	l := &Value{kind: List, items: make([]*Value, 0, len(items))}
	l.Append(items...)
	return l
}

// NewObject returns an object holding members in order. A repeated key
// replaces the earlier value and keeps its position.
func NewObject(members ...Member) *Value {
	o := &Value{kind: Object, index: make(map[string]int, len(members))}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Kind returns the kind of v. A nil *Value reports Null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool { return v.Kind() == Null }

// IsPrimitive reports whether v is neither a list nor an object.
func (v *Value) IsPrimitive() bool {
	k := v.Kind()
	return k != List && k != Object
}

// AsBool returns the boolean held by v.
func (v *Value) AsBool() bool { return v != nil && v.kind == Bool && v.b }

// AsFloat returns the number held by v, or 0.
func (v *Value) AsFloat() float64 {
	if v == nil || v.kind != Number {
		return 0
	}
	return v.num
}

// AsInt returns the number held by v as an integer when it is exact.
func (v *Value) AsInt() (int64, bool) {
	if v == nil || v.kind != Number || !v.exact {
		return 0, false
	}
	return int64(v.num), true
}

// IsExact reports whether v is an exact integer.
func (v *Value) IsExact() bool { return v != nil && v.kind == Number && v.exact }

// AsString returns the string held by v, or "".
func (v *Value) AsString() string {
	if v == nil || v.kind != String {
		return ""
	}
	return v.str
}

// Len returns the number of list items or object members.
func (v *Value) Len() int {
	switch v.Kind() {
	case List:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

// Index returns the i-th list item, or nil when out of range.
func (v *Value) Index(i int) *Value {
	if v.Kind() != List || i < 0 || i >= len(v.items) {
		return nil
	}
	return v.items[i]
}

// Items returns the list items. The slice must not be modified.
func (v *Value) Items() []*Value {
	if v.Kind() != List {
		return nil
	}
	return v.items
}

// Members returns the object members in order. The slice must not be
// modified.
func (v *Value) Members() []Member {
	if v.Kind() != Object {
		return nil
	}
	return v.members
}

// Keys returns the object keys in order.
func (v *Value) Keys() []string {
	if v.Kind() != Object {
		return nil
	}
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Get returns the member value for key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != Object {
		return nil, false
	}
	i, ok := v.index[key]
	if !ok {
		return nil, false
	}
	return v.members[i].Value, true
}

// Has reports whether the object has a member named key.
func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Set adds or replaces a member. It panics if v is not an object.
func (v *Value) Set(key string, val *Value) {
	if v.kind != Object {
		panic("value: Set on " + v.kind.String())
	}
	if val == nil {
		val = NewNull()
	}
	if v.index == nil {
		v.index = make(map[string]int)
	}
	if i, ok := v.index[key]; ok {
		v.members[i].Value = val
		return
	}
	v.index[key] = len(v.members)
	v.members = append(v.members, Member{Key: key, Value: val})
}

// Append adds items to the end of a list. It panics if v is not a list.
func (v *Value) Append(items ...*Value) {
	if v.kind != List {
		panic("value: Append on " + v.kind.String())
	}
	for _, it := range items {
		if it == nil {
			it = NewNull()
		}
		v.items = append(v.items, it)
	}
}

// String returns the JSON text of v.
func (v *Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

// Equal reports whether a and b are structurally equal. Numbers compare by
// value, objects compare by membership regardless of key order. Both trees
// must be acyclic.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.num == b.num
	case String:
		return a.str == b.str
	case List:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			other, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
