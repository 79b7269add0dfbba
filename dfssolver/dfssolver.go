// Package dfssolver implements the depth-first branch-and-bound search
// for the Fruit Box puzzle. The search is bounded structurally rather
// than by wall clock: the branching factor caps how many candidate
// rectangles each node expands, and the visited-state cap limits the
// total number of explored nodes.
package dfssolver

import (
	"context"
	"math"
	"sort"
	"sync"

	"fruitbox/fruitboxgame"
)

// Config contains the structural caps of the search.
type Config struct {
	// BranchFactor is the maximum number of candidate rectangles
	// expanded per node.
	BranchFactor int
	// VisitedCap limits the number of distinct grid fingerprints
	// remembered per solve. Once reached, every further node prunes.
	VisitedCap int
}

// DefaultConfig returns the search parameters of the reference
// implementation.
func DefaultConfig() Config {
	return Config{
		BranchFactor: 4,
		VisitedCap:   1000,
	}
}

// Stats counts the work one Solve call performed.
type Stats struct {
	NodesVisited    int64
	BoundPruned     int64
	DuplicatePruned int64
	CapPruned       int64
	BestUpdates     int64
}

// Candidate is a sum-10 rectangle found during enumeration, paired with
// the number of non-empty cells it would remove.
type Candidate struct {
	Box     fruitboxgame.Box
	Removed int
}

// Solver is the branch-and-bound strategy. One Solver may serve many
// concurrent Solve calls; all search state is local to each call.
type Solver struct {
	config     Config
	stats      Stats
	statsMutex sync.Mutex
}

// New creates a solver, filling zero config fields with defaults.
func New(config Config) *Solver {
	def := DefaultConfig()
	if config.BranchFactor <= 0 {
		config.BranchFactor = def.BranchFactor
	}
	if config.VisitedCap <= 0 {
		config.VisitedCap = def.VisitedCap
	}
	return &Solver{config: config}
}

// Name identifies the solver in the strategy registry.
func (s *Solver) Name() string {
	return "dfs"
}

// Stats returns the work counters accumulated across Solve calls.
func (s *Solver) Stats() Stats {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()
	return s.stats
}

// search carries the state of one solve invocation. It is created per
// call and never shared, which keeps concurrent Solve calls isolated.
type search struct {
	config  Config
	visited map[uint64]struct{}
	// floors[d] is the lowest running score ever accepted at depth d.
	// A branch whose running score falls below the floor of the
	// previous depth is cut. This compares against history, not an
	// admissible bound, so it can discard optimal branches; it is kept
	// as the intended behavior of the search.
	floors  []int
	current fruitboxgame.Strategy
	best    fruitboxgame.Strategy
	stats   Stats
}

// Solve runs the search to completion and returns the best strategy
// found. It is deterministic for a fixed grid and config. The context
// is checked only on entry; the search itself has no cancellation
// points and terminates through its structural caps.
func (s *Solver) Solve(ctx context.Context, g fruitboxgame.Grid) (fruitboxgame.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return fruitboxgame.Strategy{}, err
	}

	sc := &search{
		config:  s.config,
		visited: make(map[uint64]struct{}),
		floors:  make([]int, fruitboxgame.MaxMoves),
		best:    fruitboxgame.Strategy{Boxes: []fruitboxgame.Box{}},
	}
	for i := range sc.floors {
		sc.floors[i] = math.MaxInt
	}

	sc.recurse(g, 0)

	s.statsMutex.Lock()
	s.stats.NodesVisited += sc.stats.NodesVisited
	s.stats.BoundPruned += sc.stats.BoundPruned
	s.stats.DuplicatePruned += sc.stats.DuplicatePruned
	s.stats.CapPruned += sc.stats.CapPruned
	s.stats.BestUpdates += sc.stats.BestUpdates
	s.statsMutex.Unlock()

	return sc.best, nil
}

func (sc *search) recurse(g fruitboxgame.Grid, depth int) {
	sc.stats.NodesVisited++

	// A shorter sequence with a higher score wins, so the best-so-far
	// is updated at every node, not only at leaves.
	if sc.current.Score > sc.best.Score {
		sc.best = sc.current.Clone()
		sc.stats.BestUpdates++
	}

	if depth > 0 && sc.current.Score < sc.floors[depth-1] {
		sc.stats.BoundPruned++
		return
	}
	if sc.current.Score < sc.floors[depth] {
		sc.floors[depth] = sc.current.Score
	}

	fp := Fingerprint(g)
	if _, seen := sc.visited[fp]; seen {
		sc.stats.DuplicatePruned++
		return
	}
	if len(sc.visited) > sc.config.VisitedCap {
		sc.stats.CapPruned++
		return
	}
	sc.visited[fp] = struct{}{}

	for _, cand := range Enumerate(g, sc.config.BranchFactor) {
		child := g.Apply(cand.Box)
		sc.current.Boxes = append(sc.current.Boxes, cand.Box)
		sc.current.Score += cand.Removed

		sc.recurse(child, depth+1)

		sc.current.Boxes = sc.current.Boxes[:len(sc.current.Boxes)-1]
		sc.current.Score -= cand.Removed
	}
}

// Fingerprint folds the grid into a positional polynomial hash:
// acc = acc*11 + value over the cells in row-major order. Two distinct
// grids can collide; the search accepts false-positive pruning in
// exchange for O(H*W) hashing with no auxiliary structure.
func Fingerprint(g fruitboxgame.Grid) uint64 {
	var acc uint64
	for i := 0; i < fruitboxgame.GridHeight; i++ {
		for j := 0; j < fruitboxgame.GridWidth; j++ {
			acc = acc*11 + uint64(g[i][j])
		}
	}
	return acc
}

// Enumerate finds every rectangle summing to exactly the target and
// narrows them to the limit candidates removing the fewest cells.
// Rectangles removing fewer cells are preferred as branching candidates
// because they waste fewer future opportunities. The scan always runs
// in lexicographic (y, x, h, w) order, so for an unmodified grid the
// result is identical across calls; ties on the removed count keep the
// first rectangle found.
func Enumerate(g fruitboxgame.Grid, limit int) []Candidate {
	ps := fruitboxgame.NewPrefixSum(g)
	var candidates []Candidate
	for y := 0; y < fruitboxgame.GridHeight; y++ {
		for x := 0; x < fruitboxgame.GridWidth; x++ {
			for h := 1; h <= fruitboxgame.GridHeight-y; h++ {
				for w := 1; w <= fruitboxgame.GridWidth-x; w++ {
					b := fruitboxgame.Box{X: x, Y: y, Width: w, Height: h}
					if ps.BoxSum(b) != fruitboxgame.TargetSum {
						continue
					}
					removed := g.CountNonZero(b)
					if len(candidates) < limit {
						candidates = append(candidates, Candidate{Box: b, Removed: removed})
						sort.SliceStable(candidates, func(i, j int) bool {
							return candidates[i].Removed < candidates[j].Removed
						})
					} else if removed < candidates[len(candidates)-1].Removed {
						candidates[len(candidates)-1] = Candidate{Box: b, Removed: removed}
						sort.SliceStable(candidates, func(i, j int) bool {
							return candidates[i].Removed < candidates[j].Removed
						})
					}
				}
			}
		}
	}
	return candidates
}
