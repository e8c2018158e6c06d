// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct{ n int }

func TestGet_ConstructsSingletonOnce(t *testing.T) {
	c := New()
	builds := 0
	c.Register("widget", func(c *Container) (any, error) {
		builds++
		return &widget{n: builds}, nil
	}, true)

	a, err := c.Get("widget")
	require.NoError(t, err)
	b, err := c.Get("widget")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, builds)
}

func TestGet_NonSingletonRebuildsEveryCall(t *testing.T) {
	c := New()
	builds := 0
	c.Register("transient", func(c *Container) (any, error) {
		builds++
		return &widget{n: builds}, nil
	}, false)

	a, err := c.Get("transient")
	require.NoError(t, err)
	b, err := c.Get("transient")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, 2, builds)
}

func TestGet_UnregisteredServiceErrors(t *testing.T) {
	c := New()
	_, err := c.Get("missing")
	require.Error(t, err)
}

func TestGet_DetectsCycle(t *testing.T) {
	c := New()
	c.Register("a", func(c *Container) (any, error) {
		return c.Get("b")
	}, true)
	c.Register("b", func(c *Container) (any, error) {
		return c.Get("a")
	}, true)

	_, err := c.Get("a")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestRegisterInstance_ReturnsSameValue(t *testing.T) {
	c := New()
	w := &widget{n: 7}
	c.RegisterInstance("existing", w)

	got, err := c.Get("existing")
	require.NoError(t, err)
	require.Same(t, w, got)
}

func TestHasAndList(t *testing.T) {
	c := New()
	c.RegisterInstance("a", 1)
	c.RegisterInstance("b", 2)

	require.True(t, c.Has("a"))
	require.False(t, c.Has("z"))
	require.ElementsMatch(t, []string{"a", "b"}, c.List())
}
