package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bastiangx/wordsep/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads configPath whenever it changes and applies it to the
// server. It blocks until ctx is done. The parent directory is watched so
// that editors replacing the file by rename are seen too.
func (s *Server) WatchConfig(ctx context.Context, configPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(configPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	log.Debugf("Watching config file %s", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := config.LoadConfig(target)
			if err != nil {
				log.Warnf("Config reload from %s failed: %v", target, err)
				continue
			}
			s.ApplyConfig(cfg)
			log.Infof("Reloaded config from %s", target)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Config watcher error: %v", err)
		}
	}
}
