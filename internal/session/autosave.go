package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/starford/procforge/internal/metrics"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/storage"
)

// DefaultAutosaveInterval is the autosave period when none is configured.
const DefaultAutosaveInterval = 30 * time.Second

// Autosave writes the current snapshot to the state store. Nothing is saved
// while both title and objective are empty. Failures are logged only.
func (s *Session) Autosave() bool {
	if s.state == nil {
		return false
	}
	s.mu.RLock()
	p := s.snapshot()
	s.mu.RUnlock()

	if p.Title == "" && p.Objective == "" {
		s.countAutosave(metrics.ResultSkipped)
		return false
	}
	return s.write(p) == nil
}

// Save writes the current snapshot even when title and objective are
// empty. One-shot commands use it so that the next run restores exactly
// what they left behind.
func (s *Session) Save() error {
	if s.state == nil {
		return nil
	}
	s.mu.RLock()
	p := s.snapshot()
	s.mu.RUnlock()
	return s.write(p)
}

func (s *Session) write(p models.Procedure) error {
	if err := storage.SaveJSON(s.state, storage.KeyAutosave, p); err != nil {
		s.logger.Warn("session: autosave failed", slog.String("error", err.Error()))
		s.countAutosave(metrics.ResultError)
		return err
	}
	s.countAutosave(metrics.ResultOK)
	s.logger.Debug("session: autosaved", slog.String("title", p.Title))
	return nil
}

// RestoreAutosave loads the autosaved procedure, if any. The ledger keeps
// its own persisted history. An unreadable autosave is ignored.
func (s *Session) RestoreAutosave() bool {
	if s.state == nil {
		return false
	}
	var p models.Procedure
	if err := storage.LoadJSON(s.state, storage.KeyAutosave, &p); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("session: autosave unreadable", slog.String("error", err.Error()))
		}
		return false
	}

	s.mu.Lock()
	s.tree.Load(p)
	s.mu.Unlock()

	s.logger.Info("session: autosave restored", slog.String("title", p.Title))
	s.notify(ChangeImported, "autosave")
	return true
}

// RunAutosave saves every interval until ctx is cancelled.
func (s *Session) RunAutosave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("autosave: started", slog.String("interval", interval.String()))
	for {
		select {
		case <-ctx.Done():
			s.Autosave()
			s.logger.Info("autosave: stopped")
			return nil
		case <-ticker.C:
			s.Autosave()
		}
	}
}

func (s *Session) countAutosave(result string) {
	if s.metrics != nil {
		s.metrics.Autosave.WithLabelValues(result).Inc()
	}
}
