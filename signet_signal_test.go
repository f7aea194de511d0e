package signet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputSignal(t *testing.T) {
	t.Run("samples on every pull", func(t *testing.T) {
		g := NewGraph()

		calls := 0
		in, err := NewInputSignal(g, "in", func(time int) (int, error) {
			calls++
			return time * 10, nil
		})
		require.NoError(t, err)

		v, err := in.Pull(3)
		require.NoError(t, err)
		assert.Equal(t, 30, v)

		in.Pull(3)
		assert.Equal(t, 2, calls)

		v, err = in.Get(3)
		require.NoError(t, err)
		assert.Equal(t, 30, v)
		assert.Equal(t, 2, calls)
	})

	t.Run("plug", func(t *testing.T) {
		g := NewGraph()
		in, _ := NewInputSignal(g, "in", func(int) (string, error) { return "a", nil })

		require.NoError(t, in.Plug(func(int) (string, error) { return "b", nil }))
		v, _ := in.Pull(0)
		assert.Equal(t, "b", v)

		v, time, ok := in.Value()
		assert.True(t, ok)
		assert.Equal(t, 0, time)
		assert.Equal(t, "b", v)
	})

	t.Run("zero values", func(t *testing.T) {
		g := NewGraph()
		in, _ := NewInputSignal(g, "in", func(int) ([]int, error) { return nil, nil })

		v, err := in.Pull(0)
		assert.NoError(t, err)
		assert.Nil(t, v)

		_, _, ok := in.Value()
		assert.True(t, ok)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := NewInputSignal[int](NewGraph(), "in", nil)
		assert.True(t, Error.Contains(err), "%v", err)
	})
}

func TestDependentSignal(t *testing.T) {
	t.Run("memoizes per time", func(t *testing.T) {
		g := NewGraph()
		in, _ := NewInputSignal(g, "in", func(time int) (int, error) { return time, nil })

		calls := 0
		double, err := NewDependentSignal(g, "double", func(time int) (int, error) {
			calls++
			v, _, _ := in.Value()
			return v * 2, nil
		}, in)
		require.NoError(t, err)

		for _, time := range []int{1, 1, 2, 2, 1} {
			v, err := double.Pull(time)
			require.NoError(t, err)
			assert.Equal(t, time*2, v)
		}
		assert.Equal(t, 3, calls)
	})

	t.Run("refreshes dependencies in order", func(t *testing.T) {
		g := NewGraph()
		order := []string{}

		source := func(name string) func(int) (int, error) {
			return func(int) (int, error) {
				order = append(order, name)
				return 0, nil
			}
		}
		a, _ := NewInputSignal(g, "a", source("a"))
		b, _ := NewInputSignal(g, "b", source("b"))
		c, _ := NewInputSignal(g, "c", source("c"))

		sum, _ := NewDependentSignal(g, "sum", func(int) (int, error) {
			order = append(order, "sum")
			return 0, nil
		}, b, a)
		require.NoError(t, sum.AddDependency(c))

		sum.Pull(0)
		assert.Equal(t, []string{"b", "a", "c", "sum"}, order)
	})

	t.Run("refreshers are always stale", func(t *testing.T) {
		g := NewGraph()
		refresher, err := NewRefresherSignal(g, "refresher")
		require.NoError(t, err)

		calls := 0
		run, _ := NewDependentSignal(g, "run", func(int) (int, error) {
			calls++
			return calls, nil
		}, refresher)

		run.Pull(0)
		run.Pull(0)
		assert.Equal(t, 1, calls)

		run.SetAlwaysReady(true)
		run.Pull(0)
		assert.Equal(t, 2, calls)

		v, _ := run.Get(0)
		assert.Equal(t, 2, v)
	})

	t.Run("failures keep the cache", func(t *testing.T) {
		g := NewGraph()

		fail := false
		s, _ := NewDependentSignal(g, "s", func(time int) (int, error) {
			if fail {
				return 0, errors.New("oops")
			}
			return time, nil
		})

		s.Pull(1)
		fail = true
		_, err := s.Pull(2)
		assert.EqualError(t, err, "oops")

		v, time, ok := s.Value()
		assert.True(t, ok)
		assert.Equal(t, 1, time)
		assert.Equal(t, 1, v)
	})

	t.Run("invalidate", func(t *testing.T) {
		g := NewGraph()

		calls := 0
		base, _ := NewDependentSignal(g, "base", func(int) (int, error) { return 0, nil })
		top, _ := NewDependentSignal(g, "top", func(int) (int, error) {
			calls++
			return calls, nil
		}, base)

		top.Pull(0)
		base.Invalidate()
		v, _ := top.Pull(0)
		assert.Equal(t, 2, v)
	})

	t.Run("cycles are config errors", func(t *testing.T) {
		g := NewGraph()
		a, _ := NewDependentSignal(g, "a", func(int) (int, error) { return 0, nil })
		b, _ := NewDependentSignal(g, "b", func(int) (int, error) { return 0, nil }, a)

		err := a.AddDependency(b)
		assert.True(t, ConfigError.Contains(err), "%v", err)
		assert.True(t, ConfigError.Contains(a.AddDependency(a)))
	})

	t.Run("names are unique", func(t *testing.T) {
		g := NewGraph()
		NewRefresherSignal(g, "s")

		_, err := NewRefresherSignal(g, "s")
		assert.True(t, ConfigError.Contains(err), "%v", err)
		assert.Equal(t, 1, g.Len())
		assert.Equal(t, []string{"s"}, g.Names())
	})

	t.Run("signals stay in their graph", func(t *testing.T) {
		in, _ := NewInputSignal(NewGraph(), "in", func(int) (int, error) { return 0, nil })

		_, err := NewDependentSignal(NewGraph(), "out", func(int) (int, error) { return 0, nil }, in)
		assert.True(t, ConfigError.Contains(err), "%v", err)
	})
}
