// Package greedysolver provides a baseline solving strategy: repeatedly
// take the sum-10 rectangle removing the most tiles until none remain.
// It explores no alternatives, so it runs in a handful of grid scans and
// serves as a floor for the search-based solvers.
package greedysolver

import (
	"context"

	"fruitbox/fruitboxgame"
)

// Solver is the greedy strategy. It is stateless and safe for
// concurrent use.
type Solver struct{}

// New creates a greedy solver.
func New() *Solver {
	return &Solver{}
}

// Name identifies the solver in the strategy registry.
func (s *Solver) Name() string {
	return "greedy"
}

// Solve applies the highest-yield valid rectangle until the grid has no
// sum-10 rectangle left. Ties keep the first rectangle found in
// lexicographic (y, x, h, w) scan order, so the result is deterministic.
func (s *Solver) Solve(ctx context.Context, g fruitboxgame.Grid) (fruitboxgame.Strategy, error) {
	strategy := fruitboxgame.Strategy{Boxes: []fruitboxgame.Box{}}
	for {
		if err := ctx.Err(); err != nil {
			return fruitboxgame.Strategy{}, err
		}
		box, removed, ok := bestMove(g)
		if !ok {
			return strategy, nil
		}
		strategy.Boxes = append(strategy.Boxes, box)
		strategy.Score += removed
		g = g.Apply(box)
	}
}

func bestMove(g fruitboxgame.Grid) (fruitboxgame.Box, int, bool) {
	ps := fruitboxgame.NewPrefixSum(g)
	var best fruitboxgame.Box
	bestRemoved := 0
	found := false
	for y := 0; y < fruitboxgame.GridHeight; y++ {
		for x := 0; x < fruitboxgame.GridWidth; x++ {
			for h := 1; h <= fruitboxgame.GridHeight-y; h++ {
				for w := 1; w <= fruitboxgame.GridWidth-x; w++ {
					b := fruitboxgame.Box{X: x, Y: y, Width: w, Height: h}
					if ps.BoxSum(b) != fruitboxgame.TargetSum {
						continue
					}
					removed := g.CountNonZero(b)
					if !found || removed > bestRemoved {
						best = b
						bestRemoved = removed
						found = true
					}
				}
			}
		}
	}
	return best, bestRemoved, found
}
