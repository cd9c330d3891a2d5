// Package maze generates perfect mazes over a rectangular grid and answers
// wall queries for movement.
package maze

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Maze-related errors.
var (
	ErrNotBigEnoughDimension = errors.New("dimension is not big enough")
	ErrCellCountMismatch     = errors.New("cell count does not match dimensions")
	ErrCellOutOfPlace        = errors.New("cell coordinates do not match its index")
	ErrAsymmetricWalls       = errors.New("walls between neighbours are not symmetric")
)

const minDimension = 1

// Direction is one of the four orthogonal moves. Opposite directions are two
// steps apart, so (d+2)%4 is the reverse of d.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists every direction in index order.
var Directions = [4]Direction{Up, Right, Down, Left}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Delta returns the column and row offsets of one step in d.
func (d Direction) Delta() (dc, dr int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection converts "up", "down", "left" or "right" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "right":
		return Right, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Position addresses a cell by column and row.
type Position struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// DirectionTo reports the direction of a one-step orthogonal move from p to
// q. ok is false when q is not an orthogonal neighbour of p.
func (p Position) DirectionTo(q Position) (d Direction, ok bool) {
	dc, dr := q.Col-p.Col, q.Row-p.Row
	switch {
	case dc == 0 && dr == -1:
		return Up, true
	case dc == 1 && dr == 0:
		return Right, true
	case dc == 0 && dr == 1:
		return Down, true
	case dc == -1 && dr == 0:
		return Left, true
	}
	return 0, false
}

// Walls marks which sides of a cell are closed.
type Walls struct {
	Top    bool `json:"top"`
	Right  bool `json:"right"`
	Bottom bool `json:"bottom"`
	Left   bool `json:"left"`
}

// Has reports whether the wall facing d is present.
func (w Walls) Has(d Direction) bool {
	switch d {
	case Up:
		return w.Top
	case Right:
		return w.Right
	case Down:
		return w.Bottom
	case Left:
		return w.Left
	}
	return true
}

func (w *Walls) set(d Direction, closed bool) {
	switch d {
	case Up:
		w.Top = closed
	case Right:
		w.Right = closed
	case Down:
		w.Bottom = closed
	case Left:
		w.Left = closed
	}
}

// Cell is a single maze cell. Visited is only meaningful while a maze is
// being carved and is always false on a returned maze.
type Cell struct {
	Col     int   `json:"col"`
	Row     int   `json:"row"`
	Walls   Walls `json:"walls"`
	Visited bool  `json:"visited"`
}

// Maze is a width×height grid of cells stored in row-major order.
type Maze struct {
	width  int
	height int
	cells  []Cell
}

// New returns a maze with every wall present.
func New(width, height int) (*Maze, error) {
	if width < minDimension || height < minDimension {
		return nil, ErrNotBigEnoughDimension
	}

	cells := make([]Cell, 0, width*height)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			cells = append(cells, Cell{
				Col:   c,
				Row:   r,
				Walls: Walls{Top: true, Right: true, Bottom: true, Left: true},
			})
		}
	}
	return &Maze{width: width, height: height, cells: cells}, nil
}

// FromCells rebuilds a maze from a flat row-major cell list, as received in a
// shared snapshot. The cells are copied and checked for wall symmetry.
func FromCells(width, height int, cells []Cell) (*Maze, error) {
	if width < minDimension || height < minDimension {
		return nil, ErrNotBigEnoughDimension
	}
	if len(cells) != width*height {
		return nil, ErrCellCountMismatch
	}

	m := &Maze{width: width, height: height, cells: make([]Cell, len(cells))}
	copy(m.cells, cells)
	for i := range m.cells {
		c := &m.cells[i]
		if c.Col != i%width || c.Row != i/width {
			return nil, ErrCellOutOfPlace
		}
		c.Visited = false
	}
	if !m.Symmetric() {
		return nil, ErrAsymmetricWalls
	}
	return m, nil
}

// Width returns the number of columns.
func (m *Maze) Width() int { return m.width }

// Height returns the number of rows.
func (m *Maze) Height() int { return m.height }

// InBound reports whether (col, row) lies inside the maze.
func (m *Maze) InBound(col, row int) bool {
	return col >= 0 && row >= 0 && col < m.width && row < m.height
}

// At returns the cell at (col, row).
func (m *Maze) At(col, row int) (Cell, bool) {
	if !m.InBound(col, row) {
		return Cell{}, false
	}
	return m.cells[m.index(col, row)], true
}

// Cells returns a copy of all cells in row-major order.
func (m *Maze) Cells() []Cell {
	out := make([]Cell, len(m.cells))
	copy(out, m.cells)
	return out
}

// Open reports whether a step from p in direction d crosses no wall and
// stays inside the maze.
func (m *Maze) Open(p Position, d Direction) bool {
	c, ok := m.At(p.Col, p.Row)
	if !ok {
		return false
	}
	dc, dr := d.Delta()
	if !m.InBound(p.Col+dc, p.Row+dr) {
		return false
	}
	return !c.Walls.Has(d)
}

// Passages counts open walls between neighbouring cells. A perfect maze has
// exactly width*height-1 passages.
func (m *Maze) Passages() int {
	n := 0
	for _, c := range m.cells {
		if c.Col+1 < m.width && !c.Walls.Right {
			n++
		}
		if c.Row+1 < m.height && !c.Walls.Bottom {
			n++
		}
	}
	return n
}

// Symmetric reports whether every shared wall agrees on both sides.
func (m *Maze) Symmetric() bool {
	for _, c := range m.cells {
		if c.Col+1 < m.width {
			right := m.cells[m.index(c.Col+1, c.Row)]
			if c.Walls.Right != right.Walls.Left {
				return false
			}
		}
		if c.Row+1 < m.height {
			below := m.cells[m.index(c.Col, c.Row+1)]
			if c.Walls.Bottom != below.Walls.Top {
				return false
			}
		}
	}
	return true
}

// Reachable returns how many cells can be reached from (col, row) through
// open walls.
func (m *Maze) Reachable(col, row int) int {
	if !m.InBound(col, row) {
		return 0
	}
	seen := make([]bool, len(m.cells))
	queue := []int{m.index(col, row)}
	seen[queue[0]] = true
	count := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		count++
		p := Position{Col: m.cells[i].Col, Row: m.cells[i].Row}
		for _, d := range Directions {
			if !m.Open(p, d) {
				continue
			}
			dc, dr := d.Delta()
			j := m.index(p.Col+dc, p.Row+dr)
			if !seen[j] {
				seen[j] = true
				queue = append(queue, j)
			}
		}
	}
	return count
}

func (m *Maze) index(col, row int) int {
	return row*m.width + col
}

// carve removes the wall between cell i and its neighbour in direction d on
// both sides.
func (m *Maze) carve(i int, d Direction) int {
	c := &m.cells[i]
	dc, dr := d.Delta()
	j := m.index(c.Col+dc, c.Row+dr)
	c.Walls.set(d, false)
	m.cells[j].Walls.set(d.Opposite(), false)
	return j
}

// Generate carves a perfect maze with a randomized depth-first backtracker.
// A nil rng falls back to the global random source.
func Generate(width, height int, rng *rand.Rand) (*Maze, error) {
	m, err := New(width, height)
	if err != nil {
		return nil, err
	}
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	start := intN(len(m.cells))
	m.cells[start].Visited = true
	stack := []int{start}
	candidates := make([]Direction, 0, 4)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		c := m.cells[cur]

		candidates = candidates[:0]
		for _, d := range Directions {
			dc, dr := d.Delta()
			nc, nr := c.Col+dc, c.Row+dr
			if m.InBound(nc, nr) && !m.cells[m.index(nc, nr)].Visited {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := m.carve(cur, candidates[intN(len(candidates))])
		m.cells[next].Visited = true
		stack = append(stack, next)
	}

	for i := range m.cells {
		m.cells[i].Visited = false
	}
	return m, nil
}

// GenerateSeeded is Generate with a deterministic source derived from seed.
func GenerateSeeded(width, height int, seed uint64) (*Maze, error) {
	return Generate(width, height, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}
