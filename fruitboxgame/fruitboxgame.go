package fruitboxgame

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Grid dimensions of the Fruit Box puzzle.
const (
	GridHeight = 10
	GridWidth  = 17
)

// TargetSum is the value a selected rectangle must sum to.
const TargetSum = 10

// MaxMoves is an upper bound on the number of moves any game can have:
// every valid rectangle removes at least two tiles (values are 1-9, so
// no single tile sums to 10 on its own).
const MaxMoves = GridHeight*GridWidth/2 + 1

// Grid represents the puzzle board. Cell values are 0 (empty/consumed)
// or 1-9 (a tile of that value). Grid is a value type: assignment
// copies the whole board, which makes copy-before-mutate trivial.
type Grid [GridHeight][GridWidth]int

// Box is an axis-aligned rectangle selection identified by its top-left
// corner and extent. A Box records where a move was made, not its score.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Strategy is an ordered sequence of boxes plus the cumulative score
// they yield when applied in order.
type Strategy struct {
	Boxes []Box `json:"boxes"`
	Score int   `json:"score"`
}

// MoveResult describes one step of a replayed strategy.
type MoveResult struct {
	Index      int `json:"index"`
	Box        Box `json:"box"`
	Removed    int `json:"removed"`
	Cumulative int `json:"cumulative"`
}

// Clone returns a deep copy of the strategy.
func (s Strategy) Clone() Strategy {
	boxes := make([]Box, len(s.Boxes))
	copy(boxes, s.Boxes)
	return Strategy{Boxes: boxes, Score: s.Score}
}

// InBounds reports whether the box lies entirely inside the grid and
// has positive extent.
func (g Grid) InBounds(b Box) bool {
	return b.Width >= 1 && b.Height >= 1 &&
		b.X >= 0 && b.Y >= 0 &&
		b.X+b.Width <= GridWidth && b.Y+b.Height <= GridHeight
}

// Apply returns a copy of the grid with every cell inside the box
// zeroed. The receiver is unchanged.
func (g Grid) Apply(b Box) Grid {
	for i := b.Y; i < b.Y+b.Height; i++ {
		for j := b.X; j < b.X+b.Width; j++ {
			g[i][j] = 0
		}
	}
	return g
}

// CountNonZero returns the number of non-empty cells inside the box.
func (g Grid) CountNonZero(b Box) int {
	count := 0
	for i := b.Y; i < b.Y+b.Height; i++ {
		for j := b.X; j < b.X+b.Width; j++ {
			if g[i][j] > 0 {
				count++
			}
		}
	}
	return count
}

// Total returns the sum of all cell values on the grid.
func (g Grid) Total() int {
	total := 0
	for i := 0; i < GridHeight; i++ {
		for j := 0; j < GridWidth; j++ {
			total += g[i][j]
		}
	}
	return total
}

// String renders the grid one row per line, matching the problem file
// format.
func (g Grid) String() string {
	var sb strings.Builder
	for i := 0; i < GridHeight; i++ {
		for j := 0; j < GridWidth; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(g[i][j]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrefixSum is a 2D cumulative-sum table over a grid. The sum of any
// axis-aligned rectangle is computable in O(1) via inclusion-exclusion.
type PrefixSum [GridHeight + 1][GridWidth + 1]int

// NewPrefixSum builds the cumulative-sum table for a grid.
func NewPrefixSum(g Grid) PrefixSum {
	var ps PrefixSum
	for i := 0; i < GridHeight; i++ {
		for j := 0; j < GridWidth; j++ {
			ps[i+1][j+1] = ps[i+1][j] + ps[i][j+1] - ps[i][j] + g[i][j]
		}
	}
	return ps
}

// BoxSum returns the sum of the cell values inside the box.
func (ps *PrefixSum) BoxSum(b Box) int {
	return ps[b.Y+b.Height][b.X+b.Width] -
		ps[b.Y+b.Height][b.X] -
		ps[b.Y][b.X+b.Width] +
		ps[b.Y][b.X]
}

// ParseGrid reads a problem as whitespace-separated integers, one row
// per line. It rejects input whose dimensions do not match the puzzle
// exactly or whose values fall outside [0, 9].
func ParseGrid(r io.Reader) (Grid, error) {
	var g Grid
	scanner := bufio.NewScanner(r)
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if row >= GridHeight {
			return Grid{}, fmt.Errorf("too many rows: expected %d", GridHeight)
		}
		fields := strings.Fields(line)
		if len(fields) != GridWidth {
			return Grid{}, fmt.Errorf("row %d: expected %d columns, got %d", row, GridWidth, len(fields))
		}
		for col, field := range fields {
			value, err := strconv.Atoi(field)
			if err != nil {
				return Grid{}, fmt.Errorf("row %d col %d: %w", row, col, err)
			}
			if value < 0 || value > 9 {
				return Grid{}, fmt.Errorf("row %d col %d: value %d out of range [0, 9]", row, col, value)
			}
			g[row][col] = value
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return Grid{}, err
	}
	if row != GridHeight {
		return Grid{}, fmt.Errorf("expected %d rows, got %d", GridHeight, row)
	}
	return g, nil
}

// Replay re-applies a strategy move by move against a copy of the grid,
// verifying that each box is in bounds and sums to exactly TargetSum at
// the moment it is applied, and that the recomputed cumulative score
// matches the stored score.
func Replay(g Grid, s Strategy) ([]MoveResult, error) {
	results := make([]MoveResult, 0, len(s.Boxes))
	cumulative := 0
	current := g
	for i, b := range s.Boxes {
		if !current.InBounds(b) {
			return nil, fmt.Errorf("move %d: box %+v out of bounds", i, b)
		}
		ps := NewPrefixSum(current)
		if sum := ps.BoxSum(b); sum != TargetSum {
			return nil, fmt.Errorf("move %d: box %+v sums to %d, want %d", i, b, sum, TargetSum)
		}
		removed := current.CountNonZero(b)
		cumulative += removed
		current = current.Apply(b)
		results = append(results, MoveResult{
			Index:      i,
			Box:        b,
			Removed:    removed,
			Cumulative: cumulative,
		})
	}
	if cumulative != s.Score {
		return nil, fmt.Errorf("replayed score %d does not match stored score %d", cumulative, s.Score)
	}
	return results, nil
}

// RandomGrid generates a board filled with uniform values 1-9 from a
// seeded source, so callers get reproducible problems.
func RandomGrid(seed int64) Grid {
	r := rand.New(rand.NewSource(seed))
	var g Grid
	for i := 0; i < GridHeight; i++ {
		for j := 0; j < GridWidth; j++ {
			g[i][j] = r.Intn(9) + 1
		}
	}
	return g
}

// Solver is the capability every solving strategy exposes. A solver
// must be safe for concurrent Solve calls: all per-invocation state is
// local to one call.
type Solver interface {
	Name() string
	Solve(ctx context.Context, g Grid) (Strategy, error)
}

// Registry holds the available solving strategies, selectable by name.
type Registry struct {
	mutex   sync.RWMutex
	solvers map[string]Solver
}

// NewRegistry creates an empty solver registry.
func NewRegistry() *Registry {
	return &Registry{solvers: make(map[string]Solver)}
}

// Register adds a solver under its own name, replacing any previous
// solver with that name.
func (r *Registry) Register(s Solver) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.solvers[s.Name()] = s
}

// Lookup returns the solver registered under name.
func (r *Registry) Lookup(name string) (Solver, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	s, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver %q", name)
	}
	return s, nil
}

// Names returns the registered solver names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
