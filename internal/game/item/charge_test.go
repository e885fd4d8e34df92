package item_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/emberwild/emberwild/internal/game/item"
)

func TestUncounted_NeverConsumesOrEmpties(t *testing.T) {
	c := item.Uncounted()
	assert.False(t, c.IsCounted())
	assert.False(t, c.IsEmpty())
	for i := 0; i < 100; i++ {
		next, ok := c.Consume()
		assert.True(t, ok)
		c = next
	}
	assert.False(t, c.IsEmpty())
}

func TestCounted_ConsumeDecrements(t *testing.T) {
	c := item.Counted(2)
	c, ok := c.Consume()
	assert.True(t, ok)
	n, counted := c.Count()
	assert.True(t, counted)
	assert.Equal(t, 1, n)

	c, ok = c.Consume()
	assert.True(t, ok)
	assert.True(t, c.IsEmpty())

	_, ok = c.Consume()
	assert.False(t, ok)
}

func TestCounted_PanicsOnNegative(t *testing.T) {
	assert.Panics(t, func() { item.Counted(-1) })
}

func TestCharge_AddCapsAtCapacity(t *testing.T) {
	c := item.Counted(3).Add(10, 6)
	n, _ := c.Count()
	assert.Equal(t, 6, n)
}

func TestCharge_AddOnUncountedPanics(t *testing.T) {
	assert.Panics(t, func() { item.Uncounted().Add(1, 5) })
}

func TestCharge_String(t *testing.T) {
	assert.Equal(t, "∞", item.Uncounted().String())
	assert.Equal(t, "4", item.Counted(4).String())
}

func TestCharge_Property_NeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.IntRange(0, 50).Draw(rt, "start")
		consumes := rapid.IntRange(0, 100).Draw(rt, "consumes")
		c := item.Counted(start)
		for i := 0; i < consumes; i++ {
			next, ok := c.Consume()
			if !ok {
				break
			}
			c = next
		}
		n, counted := c.Count()
		assert.True(rt, counted)
		assert.GreaterOrEqual(rt, n, 0)
	})
}
