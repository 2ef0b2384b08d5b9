package filestore

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/tourvista/go-tour-client/session"
)

var _ session.Watcher = (*Watcher)(nil)

// Watcher reports writes to the credentials file made by other client
// instances. Events are coalesced into an advisory signal; subscribers
// re-read the file rather than trusting the event itself.
type Watcher struct {
	fw      *fsnotify.Watcher
	changes chan struct{}
}

// NewWatcher watches the credentials file at path. The parent directory
// is watched because the store replaces the file by rename.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.NewWatcher] fsnotify")
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrap(err, "[filestore.NewWatcher] watch directory")
	}

	w := &Watcher{
		fw:      fw,
		changes: make(chan struct{}, 1),
	}
	go w.run(filepath.Base(path))
	return w, nil
}

func (w *Watcher) run(name string) {
	defer close(w.changes)
	for event := range w.fw.Events {
		if filepath.Base(event.Name) != name {
			continue
		}
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
			!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
			continue
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	}
}

func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}
