// Package watch reports projects appearing in or disappearing from the
// workspace root. It only logs and publishes events; nothing it holds is
// read by request handling.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"syntaxia/internal/logging"
	"syntaxia/internal/sandbox"
)

// eventBuffer bounds undelivered events. Older events are dropped when no one
// reads them.
const eventBuffer = 32

// Op is the kind of a project change.
type Op int

const (
	ProjectAdded Op = iota + 1
	ProjectRemoved
)

func (o Op) String() string {
	switch o {
	case ProjectAdded:
		return "added"
	case ProjectRemoved:
		return "removed"
	}
	return "unknown"
}

// Event is one project change.
type Event struct {
	Op      Op
	Project string
}

// Watcher observes the workspace root without recursing into projects.
type Watcher struct {
	validator *sandbox.Validator
	logger    *slog.Logger
	events    chan Event
	done      chan struct{}

	mu      sync.Mutex
	current *fsnotify.Watcher
}

// New creates a Watcher for the root of v.
func New(v *sandbox.Validator, logger *slog.Logger) *Watcher {
	return &Watcher{
		validator: v,
		logger:    logging.Component(logger, "watch"),
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
	}
}

// Events delivers project changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Start begins watching. Setup is synchronous; events are processed in the
// background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		return fmt.Errorf("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(w.validator.Root()); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("failed to close watcher after add error", "error", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", w.validator.Root(), err)
	}
	w.current = fsw

	w.logger.Info("watching workspace", "root", w.validator.Root())
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Warn("failed to close watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Dir(event.Name) != w.validator.Root() {
		return
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		rp, ok := w.validator.Check(event.Name, false)
		if !ok || !rp.IsProject() {
			return
		}
		w.logger.Info("project added", "project", name)
		w.publish(Event{Op: ProjectAdded, Project: name})
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.logger.Info("project removed", "project", name)
		w.publish(Event{Op: ProjectRemoved, Project: name})
	}
}

func (w *Watcher) publish(e Event) {
	select {
	case w.events <- e:
	default:
		w.logger.Debug("dropping watch event", "project", e.Project, "op", e.Op.String())
	}
}
