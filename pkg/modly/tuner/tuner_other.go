//go:build !linux && !darwin

package tuner

import "runtime"

// Detect reports the CPU count. Memory is left unknown, which sizes the
// pool from the CPU count alone.
func Detect() (SystemResources, error) {
	return SystemResources{CPUCores: runtime.NumCPU()}, nil
}
