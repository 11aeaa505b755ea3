package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLock(t *testing.T) {
	root := t.TempDir()

	l, err := Lock(root)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if _, err := Lock(root); !errors.Is(err, ErrLocked) {
		t.Errorf("second Lock() error = %v, want ErrLocked", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Errorf("lock file still present: %v", err)
	}

	l, err = Lock(root)
	if err != nil {
		t.Fatalf("Lock() after Unlock error = %v", err)
	}
	_ = l.Unlock()
}

func TestLockStale(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"dead pid", "999999999"},
		{"garbage", "not-a-pid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := filepath.Join(root, LockName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			l, err := Lock(root)
			if err != nil {
				t.Fatalf("Lock() over stale lock error = %v", err)
			}
			defer l.Unlock()

			pid, err := readPID(path)
			if err != nil || pid != os.Getpid() {
				t.Errorf("lock pid = %d, %v; want %d", pid, err, os.Getpid())
			}
		})
	}
}
