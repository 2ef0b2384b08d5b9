package storefake

import (
	"sync"

	"github.com/tourvista/go-tour-client/session"
)

var (
	_ session.Storage = (*FakeStorage)(nil)
	_ session.Watcher = (*FakeStorage)(nil)
)

// FakeStorage is an in-memory session.Storage that doubles as a
// session.Watcher: ExternalSet/ExternalDelete simulate another client
// instance mutating the shared storage and fire the change channel.
type FakeStorage struct {
	mu      sync.RWMutex
	values  map[string]string
	setErrs map[string]error
	changes chan struct{}
	closed  bool
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values:  make(map[string]string),
		setErrs: make(map[string]error),
		changes: make(chan struct{}, 8),
	}
}

func (f *FakeStorage) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FakeStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setErrs[key]; err != nil {
		return err
	}
	f.values[key] = value
	return nil
}

func (f *FakeStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

// FailSetFor makes subsequent Sets of key fail with err. Pass a nil err
// to clear the failure.
func (f *FakeStorage) FailSetFor(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.setErrs, key)
		return
	}
	f.setErrs[key] = err
}

// ExternalSet writes a value as if another client instance did it and
// fires the change signal.
func (f *FakeStorage) ExternalSet(key, value string) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
	f.notify()
}

// ExternalDelete removes a value as if another client instance did it
// and fires the change signal.
func (f *FakeStorage) ExternalDelete(key string) {
	f.mu.Lock()
	delete(f.values, key)
	f.mu.Unlock()
	f.notify()
}

func (f *FakeStorage) Changes() <-chan struct{} {
	return f.changes
}

func (f *FakeStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.changes)
	}
	return nil
}

func (f *FakeStorage) notify() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.changes <- struct{}{}:
	default:
	}
}
