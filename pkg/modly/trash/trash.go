// Package trash moves displaced mod files to the system trash. Where no
// trash is available the file is deleted permanently and the caller is
// told so.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Methods reported by MoveToTrash.
const (
	MethodTrash     = "trash"
	MethodPermanent = "permanent"
)

// commandTimeout is the maximum time to wait for a trash command.
const commandTimeout = 30 * time.Second

// runCommand runs an external trash tool.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// lookPath finds an external trash tool.
var lookPath = exec.LookPath

// MoveToTrash moves a file to the system trash. On macOS it asks Finder;
// on Linux it tries gio, then trash-put. Without a working trash the file
// is removed and the method is MethodPermanent.
func MoveToTrash(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("cannot trash %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	for _, cmd := range commands(runtime.GOOS, absPath) {
		bin, err := lookPath(cmd[0])
		if err != nil {
			continue
		}
		if err := runCommand(ctx, bin, cmd[1:]...); err == nil {
			return MethodTrash, nil
		}
	}
	return fallbackDelete(absPath)
}

// commands lists the trash tools to try for goos, in order.
func commands(goos, path string) [][]string {
	switch goos {
	case "darwin":
		// Finder keeps "Put Back" working.
		script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
		return [][]string{{"osascript", "-e", script}}
	case "linux":
		return [][]string{
			{"gio", "trash", path},
			{"trash-put", path},
		}
	default:
		return nil
	}
}

// fallbackDelete permanently removes a file.
func fallbackDelete(path string) (string, error) {
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return MethodPermanent, nil
}
