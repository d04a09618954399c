package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	canl3errors "github.com/KimNorgaard/go-canl3/errors"
)

// FromAny converts a Go value into a Value tree.
//
// Maps must have string keys; their keys are sorted because Go maps carry
// no order. Struct fields keep their declaration order and honor json tags,
// including omitempty. Floats with an integral value inside the safe range
// are treated as integers, matching JSON number semantics. A map, slice or
// pointer that contains itself is reported as a circular reference.
func FromAny(x any) (*Value, error) {
	c := converter{ancestors: make(map[identity]struct{})}
	return c.convert(reflect.ValueOf(x), "$")
}

type identity struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type converter struct {
	ancestors map[identity]struct{}
}

func (c *converter) convert(rv reflect.Value, path string) (*Value, error) {
	if !rv.IsValid() {
		return NewNull(), nil
	}
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case *Value:
			if x == nil {
				return NewNull(), nil
			}
			return x, nil
		case Value:
			return &x, nil
		case json.Number:
			return FromNumberLiteral(x.String())
		case json.Marshaler:
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return NewNull(), nil
			}
			b, err := x.MarshalJSON()
			if err != nil {
				return nil, &canl3errors.EncodeError{Kind: canl3errors.UnsupportedValue, Path: path, Message: err.Error()}
			}
			return ParseJSON(b)
		}
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return NewNull(), nil
		}
		return c.convert(rv.Elem(), path)
	case reflect.Pointer:
		if rv.IsNil() {
			return NewNull(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		return c.convert(rv.Elem(), path)
	case reflect.Bool:
		return NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return NewString(strconv.FormatUint(u, 10)), nil
		}
		return NewInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.Trunc(f) == f && math.Abs(f) <= MaxSafeInteger {
			return NewNumber(f, true), nil
		}
		return NewFloat(f), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NewNull(), nil
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		list := NewList()
		for i := 0; i < rv.Len(); i++ {
			it, err := c.convert(rv.Index(i), path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			list.Append(it)
		}
		return list, nil
	case reflect.Map:
		if rv.IsNil() {
			return NewNull(), nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &canl3errors.EncodeError{Kind: canl3errors.UnsupportedValue, Path: path, Message: fmt.Sprintf("map key type must be a string, got %s", rv.Type().Key())}
		}
		leave, err := c.enter(rv, path)
		if err != nil {
			return nil, err
		}
		defer leave()
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			val, err := c.convert(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())), path+"."+k)
			if err != nil {
				return nil, err
			}
			obj.Set(k, val)
		}
		return obj, nil
	case reflect.Struct:
		obj := NewObject()
		for _, f := range cachedFields(rv.Type()) {
			fv := rv.FieldByIndex(f.idx)
			if f.omitEmpty && isEmpty(fv) {
				continue
			}
			val, err := c.convert(fv, path+"."+f.name)
			if err != nil {
				return nil, err
			}
			obj.Set(f.name, val)
		}
		return obj, nil
	}
	return nil, &canl3errors.EncodeError{Kind: canl3errors.UnsupportedValue, Path: path, Message: "unsupported type " + rv.Type().String()}
}

func (c *converter) enter(rv reflect.Value, path string) (func(), error) {
	if rv.Kind() == reflect.Array {
		return func() {}, nil
	}
	id := identity{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		id.len = rv.Len()
	}
	if id.ptr == 0 {
		return func() {}, nil
	}
	if _, seen := c.ancestors[id]; seen {
		return nil, &canl3errors.EncodeError{Kind: canl3errors.CircularReference, Path: path, Message: "value refers to its own ancestor"}
	}
	c.ancestors[id] = struct{}{}
	return func() { delete(c.ancestors, id) }, nil
}

// ToAny converts v into plain Go values: nil, bool, int64 for exact
// integers, float64, string, []any and map[string]any.
func ToAny(v *Value) any {
	switch v.Kind() {
	case Bool:
		return v.b
	case Number:
		if v.exact {
			return int64(v.num)
		}
		return v.num
	case String:
		return v.str
	case List:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = ToAny(it)
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = ToAny(m.Value)
		}
		return out
	}
	return nil
}
