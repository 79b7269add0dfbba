// Package runlogger handles per-run directory bookkeeping: every solve
// run gets a directory under the logs base holding a transcript and the
// problem, strategy and final-grid artifacts. Finalize renames the
// directory so the achieved score is part of its name.
package runlogger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"fruitbox/fruitboxgame"
)

// RunLogger writes one run's transcript and artifacts.
type RunLogger struct {
	baseDir   string
	dir       string
	name      string
	logFile   *os.File
	logger    *log.Logger
	alsoPrint bool
}

// New creates the run directory logs/<timestamp>-<name>/ and opens its
// transcript. When alsoPrint is set, every message is echoed to stdout.
func New(baseDir, name string, alsoPrint bool) (*RunLogger, error) {
	if baseDir == "" {
		baseDir = "logs"
	}
	timestamp := time.Now().Format("20060102-1504")
	dir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", timestamp, name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	logFile, err := os.Create(filepath.Join(dir, "game_log.txt"))
	if err != nil {
		return nil, err
	}
	return &RunLogger{
		baseDir:   baseDir,
		dir:       dir,
		name:      name,
		logFile:   logFile,
		logger:    log.New(logFile, "", log.LstdFlags),
		alsoPrint: alsoPrint,
	}, nil
}

// Dir returns the current run directory.
func (rl *RunLogger) Dir() string {
	return rl.dir
}

// Logf records a message in the transcript.
func (rl *RunLogger) Logf(format string, args ...interface{}) {
	if rl.alsoPrint {
		fmt.Printf(format+"\n", args...)
	}
	rl.logger.Printf(format, args...)
}

// SaveProblem writes the input grid as problem.txt.
func (rl *RunLogger) SaveProblem(g fruitboxgame.Grid) error {
	return os.WriteFile(filepath.Join(rl.dir, "problem.txt"), []byte(g.String()), 0o644)
}

// SaveStrategy writes a human-readable listing of the strategy as
// strategy.txt.
func (rl *RunLogger) SaveStrategy(s fruitboxgame.Strategy) error {
	f, err := os.Create(filepath.Join(rl.dir, "strategy.txt"))
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(f, "Score: %d\n", s.Score)
	fmt.Fprintf(f, "Number of boxes: %d\n\n", len(s.Boxes))
	fmt.Fprintln(f, "Boxes:")
	for i, b := range s.Boxes {
		fmt.Fprintf(f, "Box %d: x=%d, y=%d, width=%d, height=%d\n",
			i+1, b.X, b.Y, b.Width, b.Height)
	}
	return nil
}

// SaveFinalGrid writes the post-replay grid as final_grid.txt.
func (rl *RunLogger) SaveFinalGrid(g fruitboxgame.Grid) error {
	return os.WriteFile(filepath.Join(rl.dir, "final_grid.txt"), []byte(g.String()), 0o644)
}

// Finalize closes the transcript and renames the run directory to
// include the achieved score.
func (rl *RunLogger) Finalize(score int) error {
	if err := rl.logFile.Close(); err != nil {
		return err
	}
	finalDir := fmt.Sprintf("%s-%d", rl.dir, score)
	if err := os.Rename(rl.dir, finalDir); err != nil {
		return err
	}
	rl.dir = finalDir
	return nil
}
