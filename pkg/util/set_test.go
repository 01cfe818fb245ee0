package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/remedy/pkg/util"
)

func TestSetOf(t *testing.T) {
	s := util.SetOf("a", "b", "c", "a")
	assert.Len(t, s, 3)
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("c"))
	assert.False(t, s.Contains("d"))
}

func TestAddRemove(t *testing.T) {
	s := util.Set[int]{}
	assert.True(t, s.Add(1))
	assert.True(t, s.Add(2))
	assert.False(t, s.Add(1))
	assert.Len(t, s, 2)

	assert.True(t, s.Remove(1))
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))
	assert.False(t, s.Remove(42))
	assert.Len(t, s, 1)
}

func TestValues(t *testing.T) {
	s := util.SetOf(3, 1, 2)
	vals := s.Values()
	assert.ElementsMatch(t, []int{1, 2, 3}, vals)

	s.Add(4)
	assert.Len(t, vals, 3)
	assert.Empty(t, util.Set[string]{}.Values())
}
