package watch

import (
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"

	"spechub/internal/notify"
	"spechub/internal/template"
)

// Watcher observes the registry and catalog directories and nudges the
// cache engine when a source file changes. It is advisory only: the
// engine re-verifies mtimes on the next access, the watcher just makes
// sure a quick rewrite within mtime resolution is not missed, and the
// hub lets open UI sessions know something moved.
type Watcher struct {
	fs     *fsnotify.Watcher
	engine *template.Engine
	hub    *notify.Hub
	done   chan struct{}
}

func New(engine *template.Engine, hub *notify.Hub, dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return &Watcher{fs: fsw, engine: engine, hub: hub, done: make(chan struct{})}, nil
}

// Run blocks consuming events until Close is called.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			log.Printf("[watch] %s %s", ev.Op, ev.Name)
			w.engine.MarkStale()
			if w.hub != nil {
				w.hub.Broadcast(notify.Event{Type: notify.EventCatalogChanged})
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("[watch] error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}

// relevant filters the noise: only finished writes to .json files
// matter, not tmp files mid-rename and not backups.
func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := ev.Name
	return strings.HasSuffix(name, ".json") &&
		!strings.HasSuffix(name, ".tmp") &&
		!strings.HasSuffix(name, ".bak")
}
