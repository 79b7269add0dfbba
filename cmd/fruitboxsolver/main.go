// Command fruitboxsolver solves Fruit Box puzzles: sum-10 rectangles
// are removed from a 10x17 grid of digits, scoring one point per tile.
//
// Usage:
//
//	fruitboxsolver -file problem.txt                 solve a problem file
//	fruitboxsolver -file problem.txt -algorithm pool run every solver
//	fruitboxsolver -seed 42                          solve a random problem
//	fruitboxsolver -serve :8080                      run the solve service
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"fruitbox/dfssolver"
	"fruitbox/fruitboxgame"
	"fruitbox/greedysolver"
	"fruitbox/runlogger"
	"fruitbox/solverpool"
	"fruitbox/solveserver"
)

func main() {
	var (
		file      = flag.String("file", "", "path to a problem file")
		algorithm = flag.String("algorithm", "dfs", "solver to use (dfs, greedy, pool)")
		serve     = flag.String("serve", "", "run the solve service on this address instead")
		seed      = flag.Int64("seed", 0, "seed for a random problem when no file is given")
		logDir    = flag.String("logdir", "logs", "base directory for run logs")
	)
	flag.Parse()

	registry := newRegistry()

	if *serve != "" {
		runServer(*serve, registry)
		return
	}

	grid, problemName, err := loadProblem(*file, *seed)
	if err != nil {
		log.Fatalf("load problem: %v", err)
	}

	if err := run(registry, grid, problemName, *algorithm, *logDir); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRegistry() *fruitboxgame.Registry {
	registry := fruitboxgame.NewRegistry()
	dfs := dfssolver.New(dfssolver.Config{})
	greedy := greedysolver.New()
	registry.Register(dfs)
	registry.Register(greedy)
	registry.Register(solverpool.New(dfs, greedy))
	return registry
}

func loadProblem(file string, seed int64) (fruitboxgame.Grid, string, error) {
	if file == "" {
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return fruitboxgame.RandomGrid(seed), fmt.Sprintf("random-%d", seed), nil
	}
	f, err := os.Open(file)
	if err != nil {
		return fruitboxgame.Grid{}, "", err
	}
	defer f.Close()
	grid, err := fruitboxgame.ParseGrid(f)
	if err != nil {
		return fruitboxgame.Grid{}, "", fmt.Errorf("%s: %w", file, err)
	}
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return grid, name, nil
}

func run(registry *fruitboxgame.Registry, grid fruitboxgame.Grid, problemName, algorithm, logDir string) error {
	solver, err := registry.Lookup(algorithm)
	if err != nil {
		return err
	}

	rl, err := runlogger.New(logDir, problemName, true)
	if err != nil {
		return fmt.Errorf("create run log: %w", err)
	}
	if err := rl.SaveProblem(grid); err != nil {
		return err
	}

	rl.Logf("Problem loaded, total tile sum: %d", grid.Total())
	rl.Logf("%s", grid)
	rl.Logf("Starting strategy search with %s...", solver.Name())

	start := time.Now()
	strategy, err := solver.Solve(context.Background(), grid)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}
	elapsed := time.Since(start)
	rl.Logf("Strategy found with score %d in %v", strategy.Score, elapsed)

	if err := rl.SaveStrategy(strategy); err != nil {
		return err
	}

	moves, err := fruitboxgame.Replay(grid, strategy)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	final := grid
	for _, move := range moves {
		rl.Logf("Move %d/%d: (%d, %d) width %d height %d, score %d/%d",
			move.Index+1, len(moves), move.Box.X, move.Box.Y,
			move.Box.Width, move.Box.Height, move.Cumulative, strategy.Score)
		final = final.Apply(move.Box)
	}
	rl.Logf("Final score: %d", strategy.Score)

	if err := rl.SaveFinalGrid(final); err != nil {
		return err
	}
	if err := rl.Finalize(strategy.Score); err != nil {
		return err
	}
	fmt.Printf("Run artifacts saved to %s\n", rl.Dir())
	return nil
}

func runServer(addr string, registry *fruitboxgame.Registry) {
	server := solveserver.New(solveserver.Config{Addr: addr, EnableLogging: true}, registry)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("solve service listening on %s", server.Addr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	if err := server.Stop(); err != nil {
		log.Printf("stop server: %v", err)
	}
}
