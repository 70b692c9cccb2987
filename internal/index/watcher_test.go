package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/daybook/internal/storage"
)

// watcherTestEnv sets up a journal dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, ".org")
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestSync(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "a.org"), []byte("* 2025\n** 2025-07 July\n*** 2025-07-29 Tuesday\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644)

	if err := Sync(db, store, nil, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	days, _ := db.Days(DayQuery{})
	if len(days) != 1 || days[0].Path != "a.org" || days[0].Date != "2025-07-29" {
		t.Fatalf("days = %+v", days)
	}

	_ = os.Remove(filepath.Join(dir, "a.org"))
	if err := Sync(db, store, nil, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("a.org"); cs != "" {
		t.Error("stale file still indexed")
	}
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, nil, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.org"), []byte("* 2025\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.org")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.org" {
				return true
			}
		}
		return false
	}, "expected created:new.org callback")
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, nil, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# hi"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "j.org"), []byte("* 2025\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("j.org")
		return cs != ""
	}, "journal file not indexed")
	if cs, _ := db.GetChecksum("readme.md"); cs != "" {
		t.Error("non-journal file indexed")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, nil, quietLogger(), nil)

	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(dir, "work")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.org"), []byte("* 2025\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("work/deep.org")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.org"), []byte("* 2025\n"), 0o644)
	_ = Sync(db, store, nil, quietLogger())

	if cs, _ := db.GetChecksum("del.org"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, nil, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.org"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.org")
		return cs == ""
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "old.org"), []byte("* 2025\n"), 0o644)
	_ = Sync(db, store, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, nil, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.org"), filepath.Join(dir, "renamed.org"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.org")
		newCS, _ := db.GetChecksum("renamed.org")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

func TestWatcher_UnchangedWriteIsSilent(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	content := []byte("* 2025\n** 2025-07 July\n*** 2025-07-29 Tuesday\n")
	_ = os.WriteFile(filepath.Join(dir, "same.org"), content, 0o644)
	_ = Sync(db, store, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, db, store, nil, quietLogger(), func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	// Rewrite identical bytes, then touch another file as a marker.
	_ = os.WriteFile(filepath.Join(dir, "same.org"), content, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "marker.org"), []byte("* 2025\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:marker.org" {
				return true
			}
		}
		return false
	}, "marker file not reported")

	mu.Lock()
	defer mu.Unlock()
	for _, e := range events {
		if e == "updated:same.org" {
			t.Errorf("unchanged write reported: %v", events)
		}
	}
}

func TestWatcher_BurstCoalesced(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	count := 0
	go Watch(ctx, db, store, nil, quietLogger(), func(kind, path string) {
		if path == "burst.org" {
			mu.Lock()
			count++
			mu.Unlock()
		}
	})
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "burst.org")
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(path, []byte("* 2025\n"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("burst.org")
		return cs != ""
	}, "burst file not indexed")
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("callbacks = %d, want 1", count)
	}
}
