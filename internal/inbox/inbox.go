// Package inbox imports procedure files dropped into a watched directory.
//
// Files whose name matches one of the configured doublestar patterns are
// imported into the session and then moved to processed/ or failed/.
// Events are debounced per file so that a file still being written is only
// read once it has settled.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/starford/procforge/internal/procedure"
	"github.com/starford/procforge/internal/storage"
)

// Destination directories, relative to the inbox root.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 200 * time.Millisecond

// DefaultPatterns are the file names picked up when none are configured.
var DefaultPatterns = []string{"*.json", "*.yaml", "*.yml"}

// Importer receives the content of every matched file.
type Importer interface {
	Import(data []byte, f procedure.Format) error
}

// Result describes one processed file.
type Result struct {
	Name string
	Dest string
	Err  error
}

// Callback is called after each processed file.
type Callback func(Result)

// Inbox watches one directory.
type Inbox struct {
	root     string
	store    storage.Provider
	importer Importer
	patterns []string
	debounce time.Duration
	logger   *slog.Logger
	now      func() time.Time
	cb       Callback
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithPatterns replaces DefaultPatterns.
func WithPatterns(patterns ...string) Option {
	return func(i *Inbox) { i.patterns = patterns }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(i *Inbox) { i.debounce = d }
}

// WithLogger sets the inbox logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inbox) { i.logger = logger }
}

// WithClock overrides the time source used to stamp moved files.
func WithClock(now func() time.Time) Option {
	return func(i *Inbox) { i.now = now }
}

// WithCallback registers a callback run after each processed file.
func WithCallback(cb Callback) Option {
	return func(i *Inbox) { i.cb = cb }
}

// New creates an inbox rooted at root. store must be rooted at the same
// directory.
func New(root string, store storage.Provider, importer Importer, opts ...Option) (*Inbox, error) {
	i := &Inbox{
		root:     root,
		store:    store,
		importer: importer,
		patterns: DefaultPatterns,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	for _, p := range i.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("inbox: invalid pattern %q", p)
		}
	}
	return i, nil
}

// Match reports whether a top-level file name is picked up.
func (i *Inbox) Match(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "/") {
		return false
	}
	for _, p := range i.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Drain processes every matching file already in the inbox, in name order.
func (i *Inbox) Drain() error {
	entries, err := os.ReadDir(i.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("inbox: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !i.Match(e.Name()) {
			continue
		}
		i.process(e.Name())
	}
	return nil
}

// Watch drains the inbox and then processes new files until ctx is
// cancelled.
func (i *Inbox) Watch(ctx context.Context) error {
	if err := os.MkdirAll(i.root, 0o755); err != nil {
		return fmt.Errorf("inbox: mkdir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(i.root); err != nil {
		return err
	}

	i.logger.Info("inbox: started", slog.String("root", i.root), slog.Any("patterns", i.patterns))
	if err := i.Drain(); err != nil {
		i.logger.Warn("inbox: drain failed", slog.String("error", err.Error()))
	}

	timers := make(map[string]*time.Timer)
	ready := make(chan string, 64)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("inbox: stopped")
			return nil

		case name := <-ready:
			delete(timers, name)
			i.process(name)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(i.root) || !i.Match(name) {
				continue
			}
			if t, ok := timers[name]; ok {
				t.Reset(i.debounce)
				continue
			}
			timers[name] = time.AfterFunc(i.debounce, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			i.logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// process imports one file and moves it out of the inbox.
func (i *Inbox) process(name string) {
	data, err := i.store.Read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		i.logger.Warn("inbox: read failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}

	importErr := i.importer.Import(data, procedure.DetectFormat(name, data))
	dir := ProcessedDir
	if importErr != nil {
		dir = FailedDir
	}
	dest := i.destination(dir, name)
	if err := i.store.Move(name, dest); err != nil {
		i.logger.Warn("inbox: move failed", slog.String("file", name), slog.String("error", err.Error()))
		dest = ""
	}

	if importErr != nil {
		i.logger.Warn("inbox: import failed", slog.String("file", name), slog.String("error", importErr.Error()))
	} else {
		i.logger.Info("inbox: imported", slog.String("file", name), slog.String("moved_to", dest))
	}
	if i.cb != nil {
		i.cb(Result{Name: name, Dest: dest, Err: importErr})
	}
}

// destination returns a free path in dir for name, stamped with the current
// second and numbered when that name is already taken.
func (i *Inbox) destination(dir, name string) string {
	stamp := i.now().UTC().Format("20060102T150405")
	dest := path.Join(dir, stamp+"_"+name)
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(i.root, filepath.FromSlash(dest))); errors.Is(err, fs.ErrNotExist) {
			return dest
		}
		dest = path.Join(dir, fmt.Sprintf("%s-%d_%s", stamp, n, name))
	}
}
