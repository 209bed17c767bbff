package config

// #region imports
import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// #endregion

// #region store

// Store holds the active configuration snapshot. The snapshot pointer is
// swapped atomically; readers between reloads always see one consistent
// document. An fsnotify watcher marks the snapshot dirty when the backing
// file changes, and the next MaybeReload picks it up lazily.
type Store struct {
	path    string
	current atomic.Pointer[Config]
	dirty   atomic.Bool
	watcher *fsnotify.Watcher
}

// NewStore loads the document once and starts watching the file.
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(cfg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// No watcher: explicit Reload still works.
		log.Printf("[agent] config watcher unavailable: %v", err)
		return s, nil
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		log.Printf("[agent] config watch %s failed: %v", path, err)
		return s, nil
	}
	s.watcher = watcher
	go s.watch()
	return s, nil
}

func (s *Store) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				s.dirty.Store(true)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[agent] config watcher error: %v", err)
		}
	}
}

// Snapshot returns the current immutable config.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// MaybeReload reloads when the backing file changed since the last snapshot.
// A document that fails to parse leaves the previous snapshot in place.
func (s *Store) MaybeReload() *Config {
	if !s.dirty.Swap(false) {
		return s.current.Load()
	}
	cfg, err := Load(s.path)
	if err != nil {
		log.Printf("[agent] config reload failed, keeping previous snapshot: %v", err)
		return s.current.Load()
	}
	s.current.Store(cfg)
	log.Printf("[agent] config reloaded from %s", s.path)
	return cfg
}

// Reload forces a synchronous reload.
func (s *Store) Reload() (*Config, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	s.current.Store(cfg)
	s.dirty.Store(false)
	return cfg, nil
}

// Close stops the watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// #endregion store
