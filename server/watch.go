package server

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig re-reads the config file whenever it changes and applies the
// runtime tunables (answer timeout, typing pace, pending policy) to the
// running server. Address and model identity changes require a restart and
// are ignored with a warning. The returned stop function ends the watch.
func (s *Server) WatchConfig(path string) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}

	// Watch the directory: editors and config management tools replace
	// the file rather than writing it in place.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.reloadConfig(abs)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

func (s *Server) reloadConfig(path string) {
	cfg, err := LoadConfig(path)
	if err != nil {
		s.logger.Warn("config reload failed, keeping previous settings", zap.Error(err))
		return
	}

	if cfg.Listen != s.config.Listen || cfg.ModelID != s.config.ModelID {
		s.logger.Warn("listen address and model identity changes require a restart")
	}

	s.SetAnswerTimeout(cfg.AnswerTimeout)
	s.SetTypingPace(cfg.TypingPace)
	s.exchange.SetPolicy(cfg.PendingPolicy)

	s.logger.Info("config reloaded",
		zap.Duration("answer_timeout", cfg.AnswerTimeout),
		zap.Duration("typing_pace", cfg.TypingPace),
		zap.String("pending_policy", string(cfg.PendingPolicy)),
	)
}
