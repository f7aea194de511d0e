package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensor(t *testing.T) {
	t.Run("views vectors without copying", func(t *testing.T) {
		v := Vector{1, 2, 3}
		tensor := FromVector(v)

		assert.Equal(t, []int{3}, tensor.Shape())
		v[0] = 42
		assert.Equal(t, 42.0, tensor.At(0))
	})

	t.Run("copies bit exact and resizes", func(t *testing.T) {
		src := Vector{math.Pi, math.Copysign(0, -1), math.SmallestNonzeroFloat64, math.Inf(1), math.MaxFloat64}
		dst := make(Vector, 2, 8)

		out, err := FromVector(src).CopyTo(dst)
		require.NoError(t, err)
		require.Len(t, out, len(src))
		for i := range src {
			assert.Equal(t, math.Float64bits(src[i]), math.Float64bits(out[i]))
		}
		assert.Same(t, &dst[0], &out[0], "buffer with enough capacity is reused")

		out, err = FromVector(Vector{7}).CopyTo(out)
		require.NoError(t, err)
		assert.Equal(t, Vector{7}, out)
	})

	t.Run("copies empty tensors", func(t *testing.T) {
		out, err := FromVector(nil).CopyTo(Vector{1, 2})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("refuses to flatten", func(t *testing.T) {
		matrix, err := NewTensor([]float64{1, 2, 3, 4}, 2, 2)
		require.NoError(t, err)

		_, err = matrix.CopyTo(nil)
		assert.ErrorIs(t, err, ErrShape)
	})

	t.Run("validates shapes", func(t *testing.T) {
		_, err := NewTensor([]float64{1, 2, 3}, 2, 2)
		assert.ErrorIs(t, err, ErrShape)

		_, err = NewTensor(nil, -1)
		assert.ErrorIs(t, err, ErrShape)
	})
}

func TestResult(t *testing.T) {
	x := FromVector(Vector{1})
	y := FromVector(Vector{2})

	t.Run("single", func(t *testing.T) {
		r := Single(x)
		assert.Equal(t, KindSingle, r.Kind())
		tensor, ok := r.Tensor()
		assert.True(t, ok)
		assert.Equal(t, x, tensor)
		assert.Nil(t, r.Elements())
		assert.False(t, r.IsTuple())
	})

	t.Run("tuple", func(t *testing.T) {
		r := Tuple(x, y)
		assert.True(t, r.IsTuple())
		assert.Equal(t, []Tensor{x, y}, r.Elements())
		_, ok := r.Tensor()
		assert.False(t, ok)
		assert.Equal(t, "tuple(tensor[1][1], tensor[1][2])", r.String())
	})

	t.Run("sequence", func(t *testing.T) {
		r := Sequence(x, y)
		assert.Equal(t, KindSequence, r.Kind())
		assert.False(t, r.IsTuple())
		assert.Equal(t, 2, r.Len())
	})

	t.Run("zero value", func(t *testing.T) {
		var r Result
		assert.Equal(t, KindNone, r.Kind())
		_, ok := r.Tensor()
		assert.False(t, ok)
	})

	t.Run("parses kinds", func(t *testing.T) {
		for _, kind := range []Kind{KindSingle, KindSequence, KindTuple} {
			parsed, err := ParseKind(kind.String())
			require.NoError(t, err)
			assert.Equal(t, kind, parsed)
		}

		_, err := ParseKind("dict")
		assert.Error(t, err)
	})
}

func TestDispatch(t *testing.T) {
	loaded := []string{}
	loader := func(tag string) Loader {
		return LoaderFunc(func(path string) (Model, error) {
			loaded = append(loaded, tag+" "+path)
			return Func(func([]Tensor) (Result, error) { return Result{}, nil }), nil
		})
	}

	d := Dispatch{
		Default: loader("file"),
		Schemes: map[string]Loader{"store": loader("store")},
	}

	_, err := d.Load("store:pd")
	require.NoError(t, err)
	_, err = d.Load("models/pd.json")
	require.NoError(t, err)
	_, err = d.Load("other:pd.json")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"store pd",
		"file models/pd.json",
		"file other:pd.json",
	}, loaded)

	_, err = Dispatch{}.Load("x")
	assert.True(t, errors.Is(err, ErrNoLoader))
}
