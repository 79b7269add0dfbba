package dfssolver

import (
	"context"
	"reflect"
	"testing"

	"fruitbox/fruitboxgame"
)

func TestNewDefaults(t *testing.T) {
	solver := New(Config{})

	if solver.config.BranchFactor != 4 {
		t.Errorf("expected default branch factor 4, got %d", solver.config.BranchFactor)
	}
	if solver.config.VisitedCap != 1000 {
		t.Errorf("expected default visited cap 1000, got %d", solver.config.VisitedCap)
	}
	if solver.Name() != "dfs" {
		t.Errorf("expected name dfs, got %s", solver.Name())
	}
}

func TestSolveSingleRun(t *testing.T) {
	// A lone horizontal run [1 2 3 4]: the only tiles on the board, and
	// together they sum to exactly 10.
	var grid fruitboxgame.Grid
	values := []int{1, 2, 3, 4}
	for i, v := range values {
		grid[3][5+i] = v
	}

	solver := New(Config{})
	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if strategy.Score != 4 {
		t.Errorf("expected score 4, got %d", strategy.Score)
	}
	if len(strategy.Boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(strategy.Boxes))
	}
	if got := grid.CountNonZero(strategy.Boxes[0]); got != 4 {
		t.Errorf("box should cover all 4 tiles, covers %d", got)
	}
	if _, err := fruitboxgame.Replay(grid, strategy); err != nil {
		t.Errorf("strategy failed replay: %v", err)
	}
}

func TestSolveTwoByFiveOnes(t *testing.T) {
	var grid fruitboxgame.Grid
	for i := 4; i < 6; i++ {
		for j := 6; j < 11; j++ {
			grid[i][j] = 1
		}
	}

	solver := New(Config{})
	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if strategy.Score != 10 {
		t.Errorf("expected score 10, got %d", strategy.Score)
	}
	if len(strategy.Boxes) != 1 {
		t.Errorf("expected 1 box, got %d", len(strategy.Boxes))
	}
	if _, err := fruitboxgame.Replay(grid, strategy); err != nil {
		t.Errorf("strategy failed replay: %v", err)
	}
}

func TestSolveAllZeroGrid(t *testing.T) {
	var grid fruitboxgame.Grid

	solver := New(Config{})
	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if strategy.Score != 0 {
		t.Errorf("expected score 0, got %d", strategy.Score)
	}
	if len(strategy.Boxes) != 0 {
		t.Errorf("expected no boxes, got %d", len(strategy.Boxes))
	}
}

func TestSolveDeterministic(t *testing.T) {
	grid := fruitboxgame.RandomGrid(123)
	solver := New(Config{})

	first, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("first solve failed: %v", err)
	}
	second, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("second solve failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical grid and config should produce identical strategies")
	}
}

func TestSolveMonotonicity(t *testing.T) {
	// At least one sum-10 rectangle exists, so the score must be > 0.
	var grid fruitboxgame.Grid
	grid[0][0] = 9
	grid[0][1] = 1

	solver := New(Config{})
	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if strategy.Score == 0 {
		t.Error("score should be positive when a valid rectangle exists")
	}
}

func TestSolveProducesValidStrategiesOnRandomGrids(t *testing.T) {
	solver := New(Config{})
	for _, seed := range []int64{1, 2, 3, 17, 1000} {
		grid := fruitboxgame.RandomGrid(seed)
		strategy, err := solver.Solve(context.Background(), grid)
		if err != nil {
			t.Fatalf("seed %d: Solve failed: %v", seed, err)
		}
		if _, err := fruitboxgame.Replay(grid, strategy); err != nil {
			t.Errorf("seed %d: strategy failed replay: %v", seed, err)
		}
	}
}

func TestSolveRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := New(Config{})
	if _, err := solver.Solve(ctx, fruitboxgame.RandomGrid(1)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSolveWithTinyVisitedCap(t *testing.T) {
	grid := fruitboxgame.RandomGrid(5)
	solver := New(Config{VisitedCap: 1})

	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if _, err := fruitboxgame.Replay(grid, strategy); err != nil {
		t.Errorf("strategy failed replay: %v", err)
	}

	stats := solver.Stats()
	if stats.NodesVisited == 0 {
		t.Error("expected some nodes visited")
	}
	if stats.CapPruned == 0 {
		t.Error("expected cap pruning with a cap of 1")
	}
}

func TestEnumerateIdempotent(t *testing.T) {
	grid := fruitboxgame.RandomGrid(7)

	first := Enumerate(grid, 4)
	second := Enumerate(grid, 4)

	if !reflect.DeepEqual(first, second) {
		t.Error("enumeration on an unmodified grid should be idempotent")
	}
	if len(first) > 4 {
		t.Errorf("expected at most 4 candidates, got %d", len(first))
	}
}

func TestEnumerateOrdersByRemovedCount(t *testing.T) {
	grid := fruitboxgame.RandomGrid(11)

	candidates := Enumerate(grid, 4)
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Removed < candidates[i-1].Removed {
			t.Fatalf("candidates out of order: %+v", candidates)
		}
	}
	for _, cand := range candidates {
		ps := fruitboxgame.NewPrefixSum(grid)
		if sum := ps.BoxSum(cand.Box); sum != fruitboxgame.TargetSum {
			t.Errorf("candidate %+v sums to %d", cand, sum)
		}
		if got := grid.CountNonZero(cand.Box); got != cand.Removed {
			t.Errorf("candidate %+v reports %d removed, actual %d", cand, cand.Removed, got)
		}
	}
}

func TestEnumerateEmptyGrid(t *testing.T) {
	var grid fruitboxgame.Grid
	if candidates := Enumerate(grid, 4); len(candidates) != 0 {
		t.Errorf("expected no candidates on an empty grid, got %d", len(candidates))
	}
}

func TestEnumeratePrefersSmallerRemovals(t *testing.T) {
	var grid fruitboxgame.Grid
	// Two disjoint sum-10 groups: a pair (9+1) and a 2x5 block of ones.
	grid[0][0] = 9
	grid[0][1] = 1
	for i := 5; i < 7; i++ {
		for j := 10; j < 15; j++ {
			grid[i][j] = 1
		}
	}

	candidates := Enumerate(grid, 1)
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Removed != 2 {
		t.Errorf("expected the 2-tile pair to win, got %+v", candidates[0])
	}
}

func TestFingerprint(t *testing.T) {
	a := fruitboxgame.RandomGrid(1)
	b := a
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("equal grids must have equal fingerprints")
	}

	b[0][0] = (b[0][0] % 9) + 1 // guaranteed different value
	if b[0][0] == a[0][0] {
		t.Fatal("test setup failed to change the grid")
	}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("grids differing in one cell should fingerprint differently")
	}

	var zero fruitboxgame.Grid
	if Fingerprint(zero) != 0 {
		t.Error("all-zero grid should fingerprint to 0")
	}
}

func BenchmarkSolve(b *testing.B) {
	grid := fruitboxgame.RandomGrid(42)
	solver := New(Config{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := solver.Solve(ctx, grid); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEnumerate(b *testing.B) {
	grid := fruitboxgame.RandomGrid(42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Enumerate(grid, 4)
	}
}
