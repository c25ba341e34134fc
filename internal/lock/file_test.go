package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bashhack/fslock/internal/common"
	lockErrors "github.com/bashhack/fslock/internal/errors"
	"github.com/bashhack/fslock/internal/logger"
)

func TestCreateRaceFree(t *testing.T) {
	tests := map[string]struct {
		setup      func(t *testing.T, path string)
		wantErr    error
		wantExists bool
	}{
		"CreatesNewFile": {
			setup:      func(t *testing.T, path string) {},
			wantErr:    nil,
			wantExists: true,
		},
		"ExistingFileUntouched": {
			setup: func(t *testing.T, path string) {
				if err := os.WriteFile(path, []byte("keep me"), 0644); err != nil {
					t.Fatalf("Failed to seed file: %v", err)
				}
				old := time.Now().Add(-time.Hour)
				if err := os.Chtimes(path, old, old); err != nil {
					t.Fatalf("Failed to age file: %v", err)
				}
			},
			wantErr:    lockErrors.ErrAlreadyExists,
			wantExists: true,
		},
		"MissingDirectory": {
			setup: func(t *testing.T, path string) {
				if err := os.RemoveAll(filepath.Dir(path)); err != nil {
					t.Fatalf("Failed to remove dir: %v", err)
				}
			},
			wantErr:    lockErrors.ErrNotFound,
			wantExists: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", "lock.file")
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				t.Fatalf("Failed to create dir: %v", err)
			}
			test.setup(t, path)

			var before []byte
			var beforeMod time.Time
			if test.wantErr == lockErrors.ErrAlreadyExists {
				before, _ = os.ReadFile(path)
				if info, err := os.Stat(path); err == nil {
					beforeMod = info.ModTime()
				}
			}

			err := CreateRaceFree(path)
			if test.wantErr == nil {
				if err != nil {
					t.Fatalf("CreateRaceFree() error = %v", err)
				}
			} else if !lockErrors.Is(err, test.wantErr) {
				t.Fatalf("CreateRaceFree() error = %v, want %v", err, test.wantErr)
			}

			info, statErr := os.Stat(path)
			if exists := statErr == nil; exists != test.wantExists {
				t.Fatalf("Expected exists=%t, got %t", test.wantExists, exists)
			}

			if test.wantErr == nil && info.Size() != 0 {
				t.Errorf("Expected an empty lock file, got %d bytes", info.Size())
			}
			if before != nil {
				after, _ := os.ReadFile(path)
				if string(after) != string(before) {
					t.Errorf("Existing file was modified: %q -> %q", before, after)
				}
				if !info.ModTime().Equal(beforeMod) {
					t.Errorf("Existing file mtime changed: %s -> %s", beforeMod, info.ModTime())
				}
				if !lockErrors.Is(err, os.ErrExist) {
					t.Errorf("Expected error to also match os.ErrExist, got %v", err)
				}
			}
		})
	}
}

func TestRemoveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.file")

	removed, err := RemoveLock(path)
	if err != nil {
		t.Fatalf("RemoveLock() on absent file error = %v", err)
	}
	if removed {
		t.Error("Expected RemoveLock() to report false for an absent file")
	}

	if err := CreateRaceFree(path); err != nil {
		t.Fatalf("CreateRaceFree() error = %v", err)
	}
	removed, err = RemoveLock(path)
	if err != nil {
		t.Fatalf("RemoveLock() error = %v", err)
	}
	if !removed {
		t.Error("Expected RemoveLock() to report true for a present file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected lock file to be gone, stat error = %v", err)
	}
}

func TestCreateLockSecure_CreatesMissingDirectory(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "new", "deeper", "data.yaml")
	lockPath := LockPath(target)

	w := NewWaiter(nil, nil)
	if err := w.createLockSecure(context.Background(), lockPath, target, time.Second); err != nil {
		t.Fatalf("createLockSecure() error = %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Expected lock file to exist: %v", err)
	}
}

func TestCreateLockSecure_WaitsForRelease(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.yaml")
	lockPath := LockPath(target)
	if err := CreateRaceFree(lockPath); err != nil {
		t.Fatalf("CreateRaceFree() error = %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = RemoveLock(lockPath)
	}()

	w := NewWaiter(nil, nil)
	if err := w.createLockSecure(context.Background(), lockPath, target, 5*time.Second); err != nil {
		t.Fatalf("createLockSecure() error = %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Expected lock file to be recreated: %v", err)
	}
}

// unlockHookLogger calls onUnlock whenever the waiter reports a lock gone.
type unlockHookLogger struct {
	common.Logger
	onUnlock func()
}

func (l *unlockHookLogger) Info(format string, args ...interface{}) {
	if strings.HasPrefix(fmt.Sprintf(format, args...), "File unlocked") {
		l.onUnlock()
	}
}

func TestCreateLockSecure_RetriesAfterLosingRace(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.yaml")
	lockPath := LockPath(target)
	if err := CreateRaceFree(lockPath); err != nil {
		t.Fatalf("CreateRaceFree() error = %v", err)
	}

	// Another process takes the lock right after our wait sees it gone,
	// once, and releases it again on our next poll.
	grabbed := false
	log := &unlockHookLogger{Logger: logger.Nop(), onUnlock: func() {
		if !grabbed {
			grabbed = true
			if err := CreateRaceFree(lockPath); err != nil {
				t.Errorf("Failed to grab lock: %v", err)
			}
		}
	}}

	w := NewWaiter(log, nil)
	polls := 0
	w.sleep = func(ctx context.Context, d time.Duration) error {
		polls++
		_, err := RemoveLock(lockPath)
		return err
	}

	lostBefore := testutil.ToFloat64(raceLostCounter)
	if err := w.createLockSecure(context.Background(), lockPath, target, 5*time.Second); err != nil {
		t.Fatalf("createLockSecure() error = %v", err)
	}

	if !grabbed {
		t.Fatal("Expected the competing create to happen")
	}
	if got := testutil.ToFloat64(raceLostCounter) - lostBefore; got != 1 {
		t.Errorf("Expected one lost race, got %v", got)
	}
	if polls != 2 {
		t.Errorf("Expected a second wait after the lost race, got %d polls", polls)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Expected lock file to be ours after the retry: %v", err)
	}
}
