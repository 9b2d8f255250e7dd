// Package ledger tracks the semantic version of the procedure and keeps the
// append-only history of version bumps.
//
// A Ledger is a plain state machine and is not safe for concurrent use; the
// session serialises access to it.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/starford/procforge/internal/apperr"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/storage"
)

const (
	dateLayout      = "02/01/2006"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// State is the persisted form of a ledger.
type State struct {
	CurrentVersion models.SemVer  `json:"currentVersion"`
	History        []models.Entry `json:"history"`
}

// Ledger owns the current version and the ordered bump history.
type Ledger struct {
	current models.SemVer
	history []models.Entry

	store  storage.StateStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New creates a ledger and restores any state found in store. A nil store
// keeps the ledger in memory only.
func New(store storage.StateStore, opts ...Option) *Ledger {
	l := &Ledger{
		current: models.InitialVersion,
		store:   store,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.load()
	return l
}

// Bump advances the version by changeType, records the transition and
// persists the new state. Empty author or comment is rejected without
// touching the ledger.
func (l *Ledger) Bump(changeType models.ChangeType, author, comment string) (models.Entry, error) {
	author = strings.TrimSpace(author)
	comment = strings.TrimSpace(comment)
	if author == "" || comment == "" {
		return models.Entry{}, fmt.Errorf("ledger: author and comment are required: %w", apperr.ErrValidation)
	}
	switch changeType {
	case models.ChangeMajor, models.ChangeMinor, models.ChangePatch:
	default:
		changeType = models.ChangePatch
	}

	previous := l.current
	l.current = previous.Next(changeType)

	now := l.now()
	entry := models.Entry{
		Version:         l.current.String(),
		PreviousVersion: previous.String(),
		Author:          author,
		Date:            now.Local().Format(dateLayout),
		Timestamp:       now.UTC().Format(timestampLayout),
		Comment:         comment,
		ChangeType:      changeType,
	}
	l.history = append(l.history, entry)
	l.save()

	l.logger.Info("version bumped",
		slog.String("version", entry.Version),
		slog.String("previous", entry.PreviousVersion),
		slog.String("author", author),
		slog.String("change_type", string(changeType)))
	return entry, nil
}

// CurrentVersion returns the current semantic version.
func (l *Ledger) CurrentVersion() models.SemVer {
	return l.current
}

// CurrentVersionString returns the current version as "major.minor.patch".
func (l *Ledger) CurrentVersionString() string {
	return l.current.String()
}

// History returns a copy of the entries in chronological order.
func (l *Ledger) History() []models.Entry {
	out := make([]models.Entry, len(l.history))
	copy(out, l.history)
	return out
}

// HistoryView returns a copy of the entries, most recent first.
func (l *Ledger) HistoryView() []models.Entry {
	out := make([]models.Entry, len(l.history))
	for i, e := range l.history {
		out[len(l.history)-1-i] = e
	}
	return out
}

// LastAuthor returns the author of the most recent entry.
func (l *Ledger) LastAuthor() (string, bool) {
	if len(l.history) == 0 {
		return "", false
	}
	return l.history[len(l.history)-1].Author, true
}

// Reset restores version 1.0.0 with an empty history and persists it.
func (l *Ledger) Reset() {
	l.current = models.InitialVersion
	l.history = nil
	l.save()
}

// State returns a detached copy of the ledger state.
func (l *Ledger) State() State {
	return State{CurrentVersion: l.current, History: l.History()}
}

// Restore replaces the ledger state and persists it.
func (l *Ledger) Restore(st State) {
	l.current = st.CurrentVersion
	l.history = append([]models.Entry(nil), st.History...)
	l.save()
}

// Adopt takes over the history carried by an imported procedure. The current
// version follows the newest entry so later bumps stay ordered; without
// history the imported version string is used when it parses.
func (l *Ledger) Adopt(version string, history []models.Entry) {
	st := State{CurrentVersion: l.current, History: history}
	if n := len(history); n > 0 {
		if v, err := models.ParseSemVer(history[n-1].Version); err == nil {
			st.CurrentVersion = v
		}
	} else if v, err := models.ParseSemVer(version); err == nil {
		st.CurrentVersion = v
	}
	l.Restore(st)
}

func (l *Ledger) save() {
	if l.store == nil {
		return
	}
	if err := storage.SaveJSON(l.store, storage.KeyVersionHistory, l.State()); err != nil {
		l.logger.Warn("ledger: save failed", slog.String("error", err.Error()))
	}
}

// load restores persisted state. Any failure leaves the default state.
func (l *Ledger) load() {
	if l.store == nil {
		return
	}
	var raw struct {
		CurrentVersion *models.SemVer `json:"currentVersion"`
		History        []models.Entry `json:"history"`
	}
	if err := storage.LoadJSON(l.store, storage.KeyVersionHistory, &raw); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("ledger: load failed, using defaults", slog.String("error", err.Error()))
		}
		return
	}
	if raw.CurrentVersion != nil {
		l.current = *raw.CurrentVersion
	}
	l.history = raw.History
}
