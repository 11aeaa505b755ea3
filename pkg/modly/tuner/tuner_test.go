package tuner

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d (runtime.NumCPU())", resources.CPUCores, runtime.NumCPU())
	}
	if resources.TotalRAM < 0 {
		t.Errorf("TotalRAM = %d, want >= 0", resources.TotalRAM)
	}
	if resources.TotalRAM > 0 && resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM (%d) > TotalRAM (%d)", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestScanWorkers(t *testing.T) {
	const gib = 1024 * 1024 * 1024

	tests := []struct {
		name      string
		resources SystemResources
		override  int
		want      int
	}{
		{"small cpu count raised to minimum", SystemResources{CPUCores: 2, TotalRAM: 8 * gib}, 0, minWorkers},
		{"cpu count used", SystemResources{CPUCores: 12, TotalRAM: 16 * gib}, 0, 12},
		{"large machine capped", SystemResources{CPUCores: 128, TotalRAM: 256 * gib}, 0, maxWorkers},
		{"low memory stays at minimum", SystemResources{CPUCores: 16, TotalRAM: 2 * gib}, 0, minWorkers},
		{"unknown memory uses cpus", SystemResources{CPUCores: 8}, 0, 8},
		{"override wins", SystemResources{CPUCores: 16, TotalRAM: 2 * gib}, 6, 6},
		{"override capped", SystemResources{CPUCores: 4}, 500, maxWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScanWorkers(tt.resources, tt.override); got != tt.want {
				t.Errorf("ScanWorkers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkers(t *testing.T) {
	n := Workers(0)
	if n < minWorkers || n > maxWorkers {
		t.Errorf("Workers(0) = %d, want between %d and %d", n, minWorkers, maxWorkers)
	}
	if got := Workers(3); got != 3 {
		t.Errorf("Workers(3) = %d, want 3", got)
	}
}
