package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (waypoint count, stages)
	LevelLive    = 2 // Live info (areas processed, run progress)
	LevelVerbose = 3 // Verbose (spacing, bounds, battery figures)
	LevelTrace   = 4 // Trace (per sweep line, per sample)
)

var (
	mu     sync.Mutex
	level  int
	out    io.Writer = os.Stdout
	logger *log.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (grid, waypoint count, stages)
// 2 = live info (areas processed, run progress)
// 3 = verbose (spacing, bounds, battery model figures)
// 4 = trace (every sweep line)
func Init(debugLevel int) {
	mu.Lock()
	defer mu.Unlock()
	level = debugLevel
	if level > LevelOff {
		logger = log.New(out, "[FlyGo] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		logger = nil
	}
}

// SetOutput redirects debug output. It is safe to call before or after Init.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Output returns the writer debug output currently goes to.
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	MaxSizeMb  int
	MaxBackups int
}

// AttachFile tees debug output into a size-rotated log file. The returned
// closer releases the file.
func AttachFile(opts FileOptions) (io.Closer, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMb,
		MaxBackups: opts.MaxBackups,
	}
	SetOutput(io.MultiWriter(Output(), lj))
	return lj, nil
}

// Level returns the current debug level.
func Level() int {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return Level() >= minLevel
}

func printf(minLevel int, format string, args ...interface{}) {
	mu.Lock()
	l, lvl := logger, level
	mu.Unlock()
	if lvl >= minLevel && l != nil {
		l.Printf(format, args...)
	}
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	printf(LevelInfo, "[INFO] "+format, args...)
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	printf(LevelInfo, "═══════════════════════════════════════")
	printf(LevelInfo, "  %s", title)
	printf(LevelInfo, "═══════════════════════════════════════")
}

// Grid prints the outcome of a grid generation (level 1).
func Grid(lines, waypoints int) {
	printf(LevelInfo, "[INFO] Grid: %d sweep lines -> %d waypoints", lines, waypoints)
}

// Stage prints a closed mission stage (level 1).
func Stage(i, start, end int, batteryPct float64) {
	printf(LevelInfo, "[INFO] Stage %d: waypoints %d..%d (battery %.1f%%)", i+1, start, end, batteryPct)
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	printf(LevelLive, "[LIVE] "+format, args...)
}

// Area prints progress over a multi-area mission (level 2).
func Area(i, total, count int) {
	printf(LevelLive, "[LIVE] Area %d/%d: %d waypoints", i+1, total, count)
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	printf(LevelVerbose, "[VERBOSE] "+format, args...)
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	printf(LevelVerbose, "[VERBOSE] %s: %+v", name, v)
}

// Section prints a section separator (level 3).
func Section(name string) {
	printf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	printf(LevelVerbose, "  %s", name)
	printf(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	printf(LevelVerbose, "[VERBOSE] Step %d: %s", num, description)
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	printf(LevelInfo, "[INFO]   %s = %v", name, value)
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace).
func Trace(format string, args ...interface{}) {
	printf(LevelTrace, "[TRACE] "+format, args...)
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	printf(LevelInfo, "[ERROR] %v", err)
}

// Fmt is a helper function that returns a formatted string
// only if debug is enabled (to avoid unnecessary allocations).
func Fmt(format string, args ...interface{}) string {
	if Level() > 0 {
		return fmt.Sprintf(format, args...)
	}
	return ""
}
