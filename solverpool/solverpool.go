// Package solverpool runs several solving strategies on the same grid
// concurrently and keeps the best result. Every solver invocation owns
// its search state, so the portfolio needs no coordination beyond
// fan-out and fan-in.
package solverpool

import (
	"context"
	"errors"
	"sync"

	"fruitbox/fruitboxgame"
)

// Result pairs a solver's name with the strategy it produced.
type Result struct {
	Solver   string
	Strategy fruitboxgame.Strategy
	Err      error
}

// Pool is a portfolio of solving strategies.
type Pool struct {
	solvers []fruitboxgame.Solver
}

// New creates a portfolio over the given solvers.
func New(solvers ...fruitboxgame.Solver) *Pool {
	return &Pool{solvers: solvers}
}

// Name identifies the portfolio in the strategy registry.
func (p *Pool) Name() string {
	return "pool"
}

// Solve runs every solver concurrently and returns the highest-scoring
// strategy. Ties keep the solver registered first, so the result is
// deterministic for deterministic members. An error is returned only
// when every member fails.
func (p *Pool) Solve(ctx context.Context, g fruitboxgame.Grid) (fruitboxgame.Strategy, error) {
	results := p.SolveAll(ctx, g)

	best := fruitboxgame.Strategy{Boxes: []fruitboxgame.Box{}}
	found := false
	var firstErr error
	for _, r := range results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		if !found || r.Strategy.Score > best.Score {
			best = r.Strategy
			found = true
		}
	}
	if !found {
		if firstErr != nil {
			return fruitboxgame.Strategy{}, firstErr
		}
		return fruitboxgame.Strategy{}, errors.New("pool has no solvers")
	}
	return best, nil
}

// SolveAll runs every solver concurrently and returns the per-solver
// results in registration order.
func (p *Pool) SolveAll(ctx context.Context, g fruitboxgame.Grid) []Result {
	results := make([]Result, len(p.solvers))

	var wg sync.WaitGroup
	for i, solver := range p.solvers {
		wg.Add(1)
		go func(i int, solver fruitboxgame.Solver) {
			defer wg.Done()
			strategy, err := solver.Solve(ctx, g)
			results[i] = Result{Solver: solver.Name(), Strategy: strategy, Err: err}
		}(i, solver)
	}
	wg.Wait()

	return results
}
