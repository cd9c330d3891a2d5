// Package treasure places treasures and the exit for a play round.
package treasure

import (
	"errors"
	"math/rand/v2"

	"github.com/beka-birhanu/vinom-claim-maze/game/maze"
)

var ErrInvalidValueRange = errors.New("treasure value range must be positive and ordered")

// Treasure is a collectible worth Value gold, at most one per cell.
type Treasure struct {
	Col       int   `json:"col"`
	Row       int   `json:"row"`
	Collected bool  `json:"collected"`
	Value     int64 `json:"value"`
}

// Rules controls how many treasures a round gets and what they are worth.
type Rules struct {
	// DensityPercent is the share of cells holding a treasure.
	DensityPercent int
	MinValue       int64
	MaxValue       int64
}

// DefaultRules matches the observed game: one treasure per ten cells worth
// 5 to 74 gold.
func DefaultRules() Rules {
	return Rules{DensityPercent: 10, MinValue: 5, MaxValue: 74}
}

// Field is the set of treasures for a round.
type Field struct {
	items []Treasure
}

// NewField wraps a copy of items.
func NewField(items []Treasure) *Field {
	f := &Field{items: make([]Treasure, len(items))}
	copy(f.items, items)
	return f
}

// Generate scatters treasures over a size×size grid at distinct cells.
func Generate(size int, r Rules, rng *rand.Rand) (*Field, error) {
	if r.MinValue <= 0 || r.MaxValue < r.MinValue {
		return nil, ErrInvalidValueRange
	}
	intN := rand.IntN
	int64N := rand.Int64N
	if rng != nil {
		intN = rng.IntN
		int64N = rng.Int64N
	}

	cells := size * size
	count := cells * r.DensityPercent / 100
	count = max(0, min(count, cells))

	taken := make(map[int]struct{}, count)
	items := make([]Treasure, 0, count)
	for len(items) < count {
		i := intN(cells)
		if _, ok := taken[i]; ok {
			continue
		}
		taken[i] = struct{}{}
		items = append(items, Treasure{
			Col:   i % size,
			Row:   i / size,
			Value: r.MinValue + int64N(r.MaxValue-r.MinValue+1),
		})
	}
	return &Field{items: items}, nil
}

// Items returns a copy of every treasure.
func (f *Field) Items() []Treasure {
	if f == nil {
		return nil
	}
	out := make([]Treasure, len(f.items))
	copy(out, f.items)
	return out
}

// Collect marks the treasure at (col, row) collected and returns it.
func (f *Field) Collect(col, row int) (Treasure, bool) {
	if f == nil {
		return Treasure{}, false
	}
	for i := range f.items {
		t := &f.items[i]
		if t.Col == col && t.Row == row && !t.Collected {
			t.Collected = true
			return *t, true
		}
	}
	return Treasure{}, false
}

// Remaining counts uncollected treasures.
func (f *Field) Remaining() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, t := range f.items {
		if !t.Collected {
			n++
		}
	}
	return n
}

// PlaceExit picks a random cell on the outer edge of a size×size grid: first
// a side, then a position along it.
func PlaceExit(size int, rng *rand.Rand) maze.Position {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	last := size - 1
	along := intN(size)
	switch maze.Directions[intN(4)] {
	case maze.Up:
		return maze.Position{Col: along, Row: 0}
	case maze.Right:
		return maze.Position{Col: last, Row: along}
	case maze.Down:
		return maze.Position{Col: along, Row: last}
	default:
		return maze.Position{Col: 0, Row: along}
	}
}
