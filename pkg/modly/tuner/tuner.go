// Package tuner sizes the scanner's directory walker pool from the
// detected CPU count and memory.
package tuner

import (
	"runtime"

	"github.com/N1nj4lxl/Modly/pkg/modly/logging"
)

var logger = logging.Get("tuner")

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes. Zero when unknown.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes, possibly an estimate.
	AvailableRAM int64
}

// Worker limits for the directory walker.
const (
	maxWorkers = 32
	minWorkers = 4

	// lowMemory is the total RAM below which the pool stays at minWorkers.
	lowMemory = 4 * 1024 * 1024 * 1024
)

// ScanWorkers returns the walker pool size for r. A positive override
// wins, capped at maxWorkers.
func ScanWorkers(r SystemResources, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}
	if r.TotalRAM > 0 && r.TotalRAM < lowMemory {
		return minWorkers
	}
	return min(max(r.CPUCores, minWorkers), maxWorkers)
}

// Workers detects resources and returns the walker pool size. Detection
// failures fall back to the CPU count alone.
func Workers(override int) int {
	r, err := Detect()
	if err != nil {
		logger.Debug("resource detection failed", "error", err)
		r = SystemResources{CPUCores: runtime.NumCPU()}
	}
	n := ScanWorkers(r, override)
	logger.Debug("walker pool sized", "cpus", r.CPUCores, "total_ram", r.TotalRAM, "workers", n)
	return n
}
