package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/emberwild/emberwild/internal/game/geometry"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Cell
		want int
	}{
		{"same cell", geometry.Cell{0, 0}, geometry.Cell{0, 0}, 0},
		{"orthogonal", geometry.Cell{0, 0}, geometry.Cell{5, 0}, 5},
		{"diagonal", geometry.Cell{0, 0}, geometry.Cell{3, 3}, 3},
		{"mixed", geometry.Cell{0, 0}, geometry.Cell{2, 7}, 7},
		{"negative coords", geometry.Cell{-2, -2}, geometry.Cell{1, 1}, 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, geometry.Distance(tc.a, tc.b), tc.name)
	}
}

func TestDistance_Property_Symmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := geometry.Cell{X: rapid.IntRange(-50, 50).Draw(rt, "ax"), Y: rapid.IntRange(-50, 50).Draw(rt, "ay")}
		b := geometry.Cell{X: rapid.IntRange(-50, 50).Draw(rt, "bx"), Y: rapid.IntRange(-50, 50).Draw(rt, "by")}
		assert.Equal(rt, geometry.Distance(a, b), geometry.Distance(b, a))
		assert.GreaterOrEqual(rt, geometry.Distance(a, b), 0)
	})
}

func TestAligned(t *testing.T) {
	tests := []struct {
		name string
		a, b geometry.Cell
		want bool
	}{
		{"horizontal", geometry.Cell{0, 0}, geometry.Cell{4, 0}, true},
		{"vertical", geometry.Cell{2, 1}, geometry.Cell{2, 9}, true},
		{"diagonal", geometry.Cell{0, 0}, geometry.Cell{3, 3}, true},
		{"anti-diagonal", geometry.Cell{0, 0}, geometry.Cell{3, -3}, true},
		{"same cell", geometry.Cell{1, 1}, geometry.Cell{1, 1}, true},
		{"knight move", geometry.Cell{0, 0}, geometry.Cell{2, 1}, false},
		{"off diagonal", geometry.Cell{0, 0}, geometry.Cell{5, 3}, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, geometry.Aligned(tc.a, tc.b), tc.name)
	}
}

func TestLineCells_ExcludesStartIncludesEnd(t *testing.T) {
	a := geometry.Cell{0, 0}
	b := geometry.Cell{3, 0}
	cells := geometry.LineCells(a, b)
	assert.Equal(t, []geometry.Cell{{1, 0}, {2, 0}, {3, 0}}, cells)
}

func TestLineCells_Diagonal(t *testing.T) {
	cells := geometry.LineCells(geometry.Cell{0, 0}, geometry.Cell{2, 2})
	assert.Equal(t, []geometry.Cell{{1, 1}, {2, 2}}, cells)
}

func TestLineCells_SameCell(t *testing.T) {
	assert.Empty(t, geometry.LineCells(geometry.Cell{4, 4}, geometry.Cell{4, 4}))
}

func TestLineCells_Property_EndpointAndLength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := geometry.Cell{X: rapid.IntRange(-20, 20).Draw(rt, "ax"), Y: rapid.IntRange(-20, 20).Draw(rt, "ay")}
		b := geometry.Cell{X: rapid.IntRange(-20, 20).Draw(rt, "bx"), Y: rapid.IntRange(-20, 20).Draw(rt, "by")}
		if a == b {
			return
		}
		cells := geometry.LineCells(a, b)
		assert.Equal(rt, b, cells[len(cells)-1])
		assert.Equal(rt, geometry.Distance(a, b), len(cells))
		assert.NotContains(rt, cells, a)
	})
}

func TestHasLOS_Clear(t *testing.T) {
	clear := func(loc string, x, y int) bool { return false }
	assert.True(t, geometry.HasLOS("glade", geometry.Cell{0, 0}, geometry.Cell{5, 0}, clear))
}

func TestHasLOS_IntermediateBlocker(t *testing.T) {
	blocks := func(loc string, x, y int) bool { return x == 2 && y == 0 }
	assert.False(t, geometry.HasLOS("glade", geometry.Cell{0, 0}, geometry.Cell{5, 0}, blocks))
}

func TestHasLOS_TargetCellExempt(t *testing.T) {
	// The target's own cell blocking LOS must not hide the target.
	blocks := func(loc string, x, y int) bool { return x == 5 && y == 0 }
	assert.True(t, geometry.HasLOS("glade", geometry.Cell{0, 0}, geometry.Cell{5, 0}, blocks))
}

func TestHasLOS_AdjacentAlwaysVisible(t *testing.T) {
	everything := func(loc string, x, y int) bool { return true }
	assert.True(t, geometry.HasLOS("glade", geometry.Cell{0, 0}, geometry.Cell{1, 1}, everything))
}
