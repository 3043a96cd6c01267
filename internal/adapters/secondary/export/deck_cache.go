package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// deckCache keeps one rendered HTML file per presentation: the latest
// revision and theme seen. A newer revision replaces the file; the old one
// is removed as soon as no capture is reading it.
type deckCache struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	decks map[string]*deckEntry // presentation id -> latest rendering
}

type deckEntry struct {
	key   string
	path  string
	refs  int
	stale bool
}

func newDeckCache(dir string, logger *slog.Logger) *deckCache {
	return &deckCache{dir: dir, logger: logger, decks: make(map[string]*deckEntry)}
}

// acquire returns the file for key, rendering it when the presentation has
// no file for key yet. release must be called once the file is no longer
// read.
func (c *deckCache) acquire(presentationID, key string, render func() ([]byte, error)) (path string, release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.decks[presentationID]; ok && e.key == key {
		e.refs++
		return e.path, c.releaser(e), nil
	}

	html, err := render()
	if err != nil {
		return "", nil, fmt.Errorf("rendering deck: %w", err)
	}
	path, err = c.write(html)
	if err != nil {
		return "", nil, err
	}

	if old, ok := c.decks[presentationID]; ok {
		old.stale = true
		if old.refs == 0 {
			c.remove(old.path)
		}
	}
	e := &deckEntry{key: key, path: path, refs: 1}
	c.decks[presentationID] = e
	return path, c.releaser(e), nil
}

func (c *deckCache) releaser(e *deckEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.refs--
			if e.stale && e.refs == 0 {
				c.remove(e.path)
			}
		})
	}
}

func (c *deckCache) write(html []byte) (string, error) {
	f, err := os.CreateTemp(c.dir, "slidecraft-deck-*.html")
	if err != nil {
		return "", fmt.Errorf("creating deck file: %w", err)
	}
	if _, err := f.Write(html); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("writing deck file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("closing deck file: %w", err)
	}
	return f.Name(), nil
}

// remove is called with c.mu held.
func (c *deckCache) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("removing rendered deck", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// len reports how many presentations have a file.
func (c *deckCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.decks)
}

// clear removes every file not currently being read and forgets them all.
// Files still in use are removed by their release.
func (c *deckCache) clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for id, e := range c.decks {
		e.stale = true
		if e.refs == 0 {
			if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("removing %s: %w", e.path, err))
			}
		}
		delete(c.decks, id)
	}
	return errors.Join(errs...)
}
