// Package grid keeps the claim grid: who owns each cell, the tag shown on
// it and what it costs to claim. It performs no funds checks.
package grid

import (
	"errors"
)

// Grid-related errors.
var (
	ErrAlreadyClaimed = errors.New("cell is already claimed")
	ErrOutOfBounds    = errors.New("cell is outside the grid")
	ErrEmptyOwner     = errors.New("owner must not be empty")
	ErrInvalidSize    = errors.New("grid size must be positive")
)

// Default claim prices.
const (
	DefaultEdgePrice     int64 = 20000
	DefaultInteriorPrice int64 = 2000
)

// Cell is one claimable grid position. An empty Owner means unclaimed.
type Cell struct {
	Owner string `json:"owner,omitempty"`
	Tag   string `json:"tag"`
}

// Pricing sets claim prices for outer-ring and interior cells.
type Pricing struct {
	Edge     int64
	Interior int64
}

// Ledger is a fixed-size square ownership grid indexed as [row][col].
type Ledger struct {
	size    int
	pricing Pricing
	cells   [][]Cell
}

// NewLedger returns an all-unclaimed size×size grid.
func NewLedger(size int, pricing Pricing) (*Ledger, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	l := &Ledger{size: size, pricing: pricing}
	l.Reset()
	return l, nil
}

// Size returns the number of rows (and columns).
func (l *Ledger) Size() int { return l.size }

// InBound reports whether (col, row) lies on the grid.
func (l *Ledger) InBound(col, row int) bool {
	return col >= 0 && row >= 0 && col < l.size && row < l.size
}

// IsEdge reports whether (col, row) sits on the outer ring.
func (l *Ledger) IsEdge(col, row int) bool {
	last := l.size - 1
	return col == 0 || row == 0 || col == last || row == last
}

// PriceOf returns the claim price of (col, row).
func (l *Ledger) PriceOf(col, row int) int64 {
	if l.IsEdge(col, row) {
		return l.pricing.Edge
	}
	return l.pricing.Interior
}

// Claim assigns (col, row) to owner with the given display tag.
func (l *Ledger) Claim(col, row int, owner, tag string) error {
	if !l.InBound(col, row) {
		return ErrOutOfBounds
	}
	if owner == "" {
		return ErrEmptyOwner
	}
	if l.cells[row][col].Owner != "" {
		return ErrAlreadyClaimed
	}
	l.cells[row][col] = Cell{Owner: owner, Tag: tag}
	return nil
}

// Release clears a single cell. It is used to roll back a claim whose
// payment failed.
func (l *Ledger) Release(col, row int) {
	if l.InBound(col, row) {
		l.cells[row][col] = Cell{}
	}
}

// IsClaimed reports whether (col, row) has an owner.
func (l *Ledger) IsClaimed(col, row int) bool {
	return l.OwnerOf(col, row) != ""
}

// OwnerOf returns the owner of (col, row), or "" when unclaimed or out of
// bounds.
func (l *Ledger) OwnerOf(col, row int) string {
	if !l.InBound(col, row) {
		return ""
	}
	return l.cells[row][col].Owner
}

// At returns the cell at (col, row).
func (l *Ledger) At(col, row int) (Cell, bool) {
	if !l.InBound(col, row) {
		return Cell{}, false
	}
	return l.cells[row][col], true
}

// FirstOwnedBy scans in row-major order and returns the first cell owned by
// owner.
func (l *Ledger) FirstOwnedBy(owner string) (col, row int, ok bool) {
	if owner == "" {
		return 0, 0, false
	}
	for r := range l.cells {
		for c := range l.cells[r] {
			if l.cells[r][c].Owner == owner {
				return c, r, true
			}
		}
	}
	return 0, 0, false
}

// Reset clears every owner and tag.
func (l *Ledger) Reset() {
	cells := make([][]Cell, l.size)
	for r := range cells {
		cells[r] = make([]Cell, l.size)
	}
	l.cells = cells
}

// Cells returns a copy of the grid.
func (l *Ledger) Cells() [][]Cell {
	out := make([][]Cell, len(l.cells))
	for r := range l.cells {
		out[r] = make([]Cell, len(l.cells[r]))
		copy(out[r], l.cells[r])
	}
	return out
}
