package value

import (
	"reflect"
	"strings"
	"sync"
)

// structField is a cached exported struct field.
type structField struct {
	name      string
	idx       []int
	omitEmpty bool
}

// fieldCache caches the fields of struct types by reflect.Type.
var fieldCache sync.Map

// cachedFields returns the fields of struct type t in declaration order,
// named by their json tag. Unexported fields and fields tagged "-" are
// skipped. The fields of an untagged embedded struct are promoted in place;
// a name that is already taken keeps its first field.
func cachedFields(t reflect.Type) []structField {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]structField)
	}

	var fields []structField
	seen := make(map[string]bool)
	var collect func(t reflect.Type, index []int)
	collect = func(t reflect.Type, index []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			idx := append(append([]int(nil), index...), i)

			if sf.Anonymous && name == "" && sf.Type.Kind() == reflect.Struct {
				collect(sf.Type, idx)
				continue
			}
			if !sf.IsExported() {
				continue
			}

			f := structField{name: name, idx: idx}
			if f.name == "" {
				f.name = sf.Name
			}
			for opts != "" {
				var opt string
				opt, opts, _ = strings.Cut(opts, ",")
				if opt == "omitempty" {
					f.omitEmpty = true
				}
			}
			if seen[f.name] {
				continue
			}
			seen[f.name] = true
			fields = append(fields, f)
		}
	}
	collect(t, nil)

	fieldCache.Store(t, fields)
	return fields
}

// isEmpty reports whether v is empty in the omitempty sense.
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
