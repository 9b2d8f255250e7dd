// Package session holds the application state of one editing session: the
// procedure tree, the version ledger and the stores they persist to.
//
// Every operation takes the session lock, so HTTP handlers, the autosave
// loop, the inbox watcher and MCP tools can share one Session.
package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/procforge/internal/archive"
	"github.com/starford/procforge/internal/document"
	"github.com/starford/procforge/internal/ledger"
	"github.com/starford/procforge/internal/metrics"
	"github.com/starford/procforge/internal/models"
	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/storage"
)

// Date layout of creationDate and revisionDate.
const dateLayout = "02/01/2006"

// Change kinds passed to listeners.
const (
	ChangeUpdated  = "updated"
	ChangeExported = "exported"
	ChangeImported = "imported"
	ChangeReset    = "reset"
	ChangeLogo     = "logo"
	ChangeVersion  = "version"
)

// Change describes a state change.
type Change struct {
	Kind    string `json:"kind"`
	Version string `json:"version"`
	Detail  string `json:"detail,omitempty"`
}

// Session is the explicit application state.
type Session struct {
	mu     sync.RWMutex
	tree   *procedure.Tree
	ledger *ledger.Ledger

	state   storage.StateStore
	files   storage.Provider
	archive archive.Store
	metrics *metrics.Metrics
	logo    LogoPolicy

	logger    *slog.Logger
	now       func() time.Time
	listeners []func(Change)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithFiles writes every export to the exports/ directory of the provider.
func WithFiles(files storage.Provider) Option {
	return func(s *Session) { s.files = files }
}

// WithArchive records every export in the archive.
func WithArchive(a archive.Store) Option {
	return func(s *Session) { s.archive = a }
}

// WithMetrics enables the session counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithLogoPolicy overrides the accepted logo types and size.
func WithLogoPolicy(p LogoPolicy) Option {
	return func(s *Session) { s.logo = p }
}

// New creates a session with an empty procedure. The ledger restores its
// history from state; a nil state keeps everything in memory.
func New(state storage.StateStore, opts ...Option) *Session {
	s := &Session{
		tree:   procedure.New(),
		state:  state,
		logo:   DefaultLogoPolicy(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = ledger.New(state, ledger.WithClock(s.now), ledger.WithLogger(s.logger))
	s.observeHistory()
	return s
}

// OnChange registers a listener called after every state change. Listeners
// run outside the session lock.
func (s *Session) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(kind, detail string) {
	s.mu.RLock()
	c := Change{Kind: kind, Version: s.ledger.CurrentVersionString(), Detail: detail}
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()

	if s.metrics != nil {
		s.metrics.Changes.WithLabelValues(kind).Inc()
	}
	for _, fn := range listeners {
		fn(c)
	}
}

// observeHistory refreshes the history gauge. Callers hold the lock or own
// the session exclusively.
func (s *Session) observeHistory() {
	if s.metrics != nil {
		s.metrics.History.Set(float64(len(s.ledger.History())))
	}
}

// Snapshot returns the current procedure with the ledger's version and
// history.
func (s *Session) Snapshot() models.Procedure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Session) snapshot() models.Procedure {
	p := s.tree.Snapshot()
	p.Version = s.ledger.CurrentVersionString()
	p.VersionHistory = s.ledger.History()
	if p.VersionHistory == nil {
		p.VersionHistory = []models.Entry{}
	}
	today := s.now().Format(dateLayout)
	if p.CreationDate == "" {
		p.CreationDate = today
	}
	p.RevisionDate = today
	return p
}

// Preview assembles the document without bumping the version.
func (s *Session) Preview() document.Document {
	p := s.Snapshot()
	return document.Assemble(p, document.Options{PrintedAt: s.now()})
}

// View runs fn with read access to the tree.
func (s *Session) View(fn func(t *procedure.Tree) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tree)
}

// Edit runs fn with write access to the tree and notifies listeners when it
// succeeds.
func (s *Session) Edit(fn func(t *procedure.Tree) error) error {
	s.mu.Lock()
	err := fn(s.tree)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(ChangeUpdated, "")
	return nil
}

// SetField writes one scalar field.
func (s *Session) SetField(f procedure.FieldID, value string) error {
	return s.Edit(func(t *procedure.Tree) error {
		return t.SetField(f, value)
	})
}

// AddStep appends a step and returns its id.
func (s *Session) AddStep() procedure.StepID {
	var id procedure.StepID
	_ = s.Edit(func(t *procedure.Tree) error {
		id = t.AddStep()
		return nil
	})
	return id
}

// CurrentVersion returns the current version string.
func (s *Session) CurrentVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CurrentVersionString()
}

// History returns the version history, most recent first.
func (s *Session) History() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.HistoryView()
}

// HistoryTable returns the display rows of the version history.
func (s *Session) HistoryTable() []ledger.TableRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledger.Table(s.ledger.History())
}

// Reset replaces the procedure with an empty one, resets the ledger and
// drops the autosave.
func (s *Session) Reset() {
	s.mu.Lock()
	s.tree = procedure.New()
	s.ledger.Reset()
	s.observeHistory()
	if s.state != nil {
		if err := s.state.DeleteState(storage.KeyAutosave); err != nil {
			s.logger.Warn("session: drop autosave failed", slog.String("error", err.Error()))
		}
	}
	s.mu.Unlock()
	s.notify(ChangeReset, "")
}

// LoadExample replaces the procedure with the built-in example. The ledger
// is left untouched.
func (s *Session) LoadExample() {
	s.mu.Lock()
	s.tree.Load(procedure.Example())
	s.mu.Unlock()
	s.notify(ChangeImported, "example")
}
