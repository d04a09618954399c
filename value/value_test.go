package value_test

import (
	"math"
	"testing"

	"github.com/KimNorgaard/go-canl3/value"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		v     *value.Value
		kind  value.Kind
		exact bool
	}{
		{"null", value.NewNull(), value.Null, false},
		{"bool", value.NewBool(true), value.Bool, false},
		{"int", value.NewInt(42), value.Number, true},
		{"float", value.NewFloat(1.5), value.Number, false},
		{"number exact integral", value.NewNumber(3, true), value.Number, true},
		{"number exact fractional", value.NewNumber(3.5, true), value.Number, false},
		{"number exact unsafe", value.NewNumber(1<<60, true), value.Number, false},
		{"string", value.NewString("x"), value.String, false},
		{"list", value.NewList(), value.List, false},
		{"object", value.NewObject(), value.Object, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, tt.v.Kind())
			require.Equal(t, tt.exact, tt.v.IsExact())
		})
	}
}

func TestNewIntBeyondSafeRange(t *testing.T) {
	v := value.NewInt(value.MaxSafeInteger + 2)
	require.Equal(t, value.String, v.Kind())
	require.Equal(t, "9007199254740993", v.AsString())

	v = value.NewInt(-value.MaxSafeInteger)
	require.Equal(t, value.Number, v.Kind())
	n, ok := v.AsInt()
	require.True(t, ok)
	require.Equal(t, int64(-value.MaxSafeInteger), n)
}

func TestNilValue(t *testing.T) {
	var v *value.Value
	require.Equal(t, value.Null, v.Kind())
	require.True(t, v.IsNull())
	require.True(t, v.IsPrimitive())
	require.Equal(t, 0, v.Len())
	require.Nil(t, v.Index(0))
	_, ok := v.Get("a")
	require.False(t, ok)
}

func TestObjectOrder(t *testing.T) {
	obj := value.NewObject(
		value.Member{Key: "b", Value: value.NewInt(1)},
		value.Member{Key: "a", Value: value.NewInt(2)},
	)
	obj.Set("c", value.NewInt(3))
	obj.Set("b", value.NewInt(4))

	require.Equal(t, []string{"b", "a", "c"}, obj.Keys())
	got, ok := obj.Get("b")
	require.True(t, ok)
	n, _ := got.AsInt()
	require.Equal(t, int64(4), n)
	require.True(t, obj.Has("a"))
	require.False(t, obj.Has("z"))

	obj.Set("n", nil)
	got, ok = obj.Get("n")
	require.True(t, ok)
	require.True(t, got.IsNull())
}

func TestList(t *testing.T) {
	l := value.NewList(value.NewInt(1), nil)
	l.Append(value.NewString("x"))
	require.Equal(t, 3, l.Len())
	require.True(t, l.Index(1).IsNull())
	require.Equal(t, "x", l.Index(2).AsString())
	require.Nil(t, l.Index(3))
	require.Nil(t, l.Index(-1))
}

func TestMutatorPanics(t *testing.T) {
	require.Panics(t, func() { value.NewList().Set("a", nil) })
	require.Panics(t, func() { value.NewObject().Append(nil) })
}

func TestEqual(t *testing.T) {
	a := value.NewObject(
		value.Member{Key: "x", Value: value.NewInt(1)},
		value.Member{Key: "y", Value: value.NewList(value.NewString("a"), value.NewNull())},
	)
	b := value.NewObject(
		value.Member{Key: "y", Value: value.NewList(value.NewString("a"), value.NewNull())},
		value.Member{Key: "x", Value: value.NewFloat(1)},
	)
	require.True(t, value.Equal(a, b))

	b.Set("z", value.NewBool(false))
	require.False(t, value.Equal(a, b))

	require.False(t, value.Equal(value.NewInt(1), value.NewString("1")))
	require.False(t, value.Equal(value.NewList(value.NewInt(1)), value.NewList()))
	require.True(t, value.Equal(nil, value.NewNull()))
	require.False(t, value.Equal(value.NewFloat(math.NaN()), value.NewFloat(math.NaN())))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "object", value.Object.String())
	require.Equal(t, "unknown", value.Kind(99).String())
}
