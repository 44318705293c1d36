package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch follows path's directory so editors that replace the file on save
// still trigger a reload.
func (s *Session) watch(path string) error {
	dir := filepath.Dir(path)
	if s.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		s.watcher = w
	}
	if s.watchDir == dir {
		return nil
	}
	if s.watchDir != "" {
		_ = s.watcher.Remove(s.watchDir)
	}
	if err := s.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	s.watchDir = dir
	s.logger.Debug("watching image directory", "dir", dir)
	return nil
}

// Nil channels block forever, which disables their select cases.
func (s *Session) watchEvents() <-chan fsnotify.Event {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Events
}

func (s *Session) watchErrors() <-chan error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Errors
}

func (s *Session) handleWatchEvent(ctx context.Context, ev fsnotify.Event) {
	if s.imagePath == "" || filepath.Clean(ev.Name) != filepath.Clean(s.imagePath) {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	s.logger.Info("reference image changed, reloading", "path", s.imagePath)
	s.LoadImage(ctx, s.imagePath)
}
