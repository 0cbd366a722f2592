package dimension

import (
	"testing"

	"github.com/hupe1980/conceptspace/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		Circular("hue", 0, 360),
		Linear("saturation", 0, 1),
		Linear("lightness", 0, 1),
	)
	require.NoError(t, err)
	return reg
}

func TestDimensionDistance(t *testing.T) {
	tests := []struct {
		name     string
		dim      Dimension
		a, b     float64
		expected float64
	}{
		{"Linear", Linear("x", 0, 10), 2, 7, 5},
		{"LinearSymmetric", Linear("x", 0, 10), 7, 2, 5},
		{"CircularWrap", Circular("hue", 0, 360), 350, 10, 20},
		{"CircularDirect", Circular("hue", 0, 360), 10, 50, 40},
		{"CircularOpposite", Circular("hue", 0, 360), 0, 180, 180},
		{"Ordinal", Ordinal("size", 4), 0, 3, 0.75},
		{"OrdinalSame", Ordinal("size", 4), 2, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.dim.Distance(tt.a, tt.b), 1e-12)
		})
	}
}

func TestRegistryValidate(t *testing.T) {
	reg := colorRegistry(t)

	t.Run("CircularNormalized", func(t *testing.T) {
		got, err := reg.Validate([]float64{370, 0.5, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 10, got[0], 1e-9)

		got, err = reg.Validate([]float64{-30, 0.5, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 330, got[0], 1e-9)

		got, err = reg.Validate([]float64{360, 0.5, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 0, got[0], 1e-9)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := reg.Validate([]float64{0, 1.5, 0.5})
		assert.ErrorIs(t, err, model.ErrOutOfRange)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := reg.Validate([]float64{0, 0.5})
		assert.ErrorIs(t, err, model.ErrDimensionMismatch)
		assert.EqualError(t, err, "dimension mismatch: expected 3, got 2")
	})

	t.Run("DoesNotAliasInput", func(t *testing.T) {
		in := []float64{10, 0.1, 0.2}
		out, err := reg.Validate(in)
		require.NoError(t, err)
		out[0] = 99
		assert.Equal(t, 10.0, in[0])
	})
}

func TestOrdinalRounding(t *testing.T) {
	reg, err := NewRegistry(Ordinal("size", 3))
	require.NoError(t, err)

	got, err := reg.Validate([]float64{1.4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 3, reg.At(0).Levels)

	_, err = reg.Validate([]float64{3})
	assert.ErrorIs(t, err, model.ErrOutOfRange)
}

func TestNewRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		dims []Dimension
		kind error
	}{
		{"Empty", nil, model.ErrInvalidArgument},
		{"MinNotBelowMax", []Dimension{Linear("x", 1, 1)}, model.ErrInvalidArgument},
		{"NegativeWeight", []Dimension{Linear("x", 0, 1).WithWeight(-1)}, model.ErrInvalidWeight},
		{"Duplicate", []Dimension{Linear("x", 0, 1), Linear("x", 0, 2)}, model.ErrInvalidArgument},
		{"NoName", []Dimension{Linear("", 0, 1)}, model.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.dims...)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRegistryAccessors(t *testing.T) {
	reg := colorRegistry(t)

	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"hue", "saturation", "lightness"}, reg.Names())
	assert.Equal(t, []float64{1, 1, 1}, reg.Weights())
	assert.True(t, reg.IsCircular(0))
	assert.False(t, reg.IsCircular(1))

	i, ok := reg.Index("lightness")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = reg.Index("missing")
	assert.False(t, ok)

	assert.InDelta(t, 0.5, reg.Normalize(0, 180), 1e-12)
	assert.InDelta(t, 90, reg.Denormalize(0, 0.25), 1e-12)
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindLinear, KindCircular, KindOrdinal} {
		b, err := k.MarshalText()
		require.NoError(t, err)

		var got Kind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}

	var k Kind
	assert.ErrorIs(t, k.UnmarshalText([]byte("spiral")), model.ErrInvalidArgument)
}
