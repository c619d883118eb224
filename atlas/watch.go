package atlas

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

const watchOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watch watches dir, the host directory atlases are loaded from, for changes.
// When a cached atlas file changes, the atlas is released, its texture queued
// for deletion by Sweep, and the next call to Atlas reloads it.
//
// Watching stops when ctx is done or the Manager is closed.
func (m *Manager) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return xerrors.Errorf("watch %s: %w", dir, err)
	}
	if err = w.Add(dir); err != nil {
		w.Close()
		return xerrors.Errorf("watch %s: %w", dir, err)
	}
	m.m.Lock()
	m.watchers = append(m.watchers, w)
	m.m.Unlock()

	go m.watch(ctx, w, dir)
	return nil
}

func (m *Manager) watch(ctx context.Context, w *fsnotify.Watcher, dir string) {
	defer w.Close()
	log := m.log.With(zap.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&watchOps == 0 {
				continue
			}
			rel, err := filepath.Rel(dir, ev.Name)
			if err != nil {
				continue
			}
			if m.invalidate(filepath.ToSlash(rel)) {
				log.Info("Atlas changed on disk", zap.String("name", rel), zap.Stringer("op", ev.Op))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}

// invalidate drops the atlas with the given name, relative to the atlas path.
func (m *Manager) invalidate(name string) bool {
	m.m.Lock()
	defer m.m.Unlock()
	return m.drop(Asset{KindAtlas, name})
}
