package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/daybook/internal/checksum"
	"github.com/starford/daybook/internal/outline"
	"github.com/starford/daybook/internal/storage"
)

// Watcher event kinds.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Delays before pending work is flushed. Editors often emit several events
// per save.
const (
	settleDelay    = 100 * time.Millisecond
	reconcileDelay = 200 * time.Millisecond
)

// EventCallback is called after a watcher-driven index change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, path string)

// timer is a resettable one-shot whose channel is nil while idle.
type timer struct {
	t *time.Timer
	C <-chan time.Time
}

func (d *timer) schedule(after time.Duration) {
	if d.t == nil {
		d.t = time.NewTimer(after)
		d.C = d.t.C
		return
	}
	d.t.Reset(after)
}

func (d *timer) stop() {
	if d.t != nil {
		d.t.Stop()
	}
}

type syncer struct {
	db      DayIndex
	store   storage.Provider
	grammar *outline.Grammar
	logger  *slog.Logger
	notify  EventCallback
}

// Watch starts an fsnotify watcher on the journal root and keeps the index
// in sync until ctx is cancelled. cb (if non-nil) runs after each index
// change; writes that leave a document's checksum unchanged, such as the
// service's own saves, produce no callback.
//
// New directories created at runtime are added to the watch list. Renames
// and new directories trigger a reconciliation pass over the whole tree.
func Watch(ctx context.Context, db DayIndex, store storage.Provider, grammar *outline.Grammar, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s := &syncer{db: db, store: store, grammar: grammar, logger: logger, notify: cb}
	if s.notify == nil {
		s.notify = func(string, string) {}
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]struct{})
	var settle, reconcile timer
	defer settle.stop()
	defer reconcile.stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-settle.C:
			for rel := range pending {
				s.refresh(rel)
			}
			clear(pending)

		case <-reconcile.C:
			if err := s.reconcile(); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may land before the directory is watched.
					reconcile.schedule(reconcileDelay)
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, store.Extension()) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || strings.HasPrefix(filepath.Base(rel), ".") {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			settle.schedule(settleDelay)
			if ev.Op&fsnotify.Rename != 0 {
				// Only the old name is reported; the new one may sit in an
				// unwatched place.
				reconcile.schedule(reconcileDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// refresh brings one document's index entry in line with the disk.
func (s *syncer) refresh(rel string) {
	prev, _ := s.db.GetChecksum(rel)
	data, err := s.store.Read(rel)
	if errors.Is(err, fs.ErrNotExist) {
		if prev == "" {
			return
		}
		if delErr := s.db.DeleteFile(rel); delErr != nil {
			s.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
			return
		}
		s.logger.Debug("watcher: deleted", slog.String("path", rel))
		s.notify(EventDeleted, rel)
		return
	}
	if err != nil {
		s.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if prev == checksum.Sum(data) {
		return
	}
	if err := IndexFile(s.db, s.grammar, rel, data); err != nil {
		s.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := EventUpdated
	if prev == "" {
		kind = EventCreated
	}
	s.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	s.notify(kind, rel)
}

// reconcile removes index entries without a file on disk and indexes
// on-disk files whose checksum differs from the index.
func (s *syncer) reconcile() error {
	checksums, err := s.db.AllChecksums()
	if err != nil {
		return fmt.Errorf("index: reconcile: %w", err)
	}
	metas, err := s.store.List("")
	if err != nil {
		return fmt.Errorf("index: reconcile: %w", err)
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			s.refresh(p)
		}
	}
	for p, cs := range disk {
		if checksums[p] != cs {
			s.refresh(p)
		}
	}
	return nil
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
