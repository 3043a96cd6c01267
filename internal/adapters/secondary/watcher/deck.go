package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Change reports that a watched deck file was edited or removed.
type Change struct {
	Path    string
	Removed bool
	At      time.Time
}

// fileState is the last observed version of a file
type fileState struct {
	size     int64
	modTime  time.Time
	checksum string
}

// DeckPoller watches deck files by polling. Content hashes filter out
// touches that leave the file unchanged.
type DeckPoller struct {
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	states map[string]fileState

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewDeckPoller creates a poller that checks every interval and reports at
// most one change per debounce window.
func NewDeckPoller(interval, debounce time.Duration, logger *slog.Logger) *DeckPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckPoller{
		interval: interval,
		debounce: debounce,
		logger:   logger,
		states:   make(map[string]fileState),
		stopCh:   make(chan struct{}),
	}
}

// Watch reports changes to path until ctx is done or Stop is called, then
// closes the returned channel.
func (p *DeckPoller) Watch(ctx context.Context, path string) (<-chan Change, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	state, err := readState(absPath)
	if err != nil {
		return nil, fmt.Errorf("initial scan: %w", err)
	}
	p.mu.Lock()
	p.states[absPath] = state
	p.mu.Unlock()

	changes := make(chan Change, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(changes)
		p.poll(ctx, absPath, changes)
	}()

	return changes, nil
}

// Stop ends every watch and waits for the pollers to exit.
func (p *DeckPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *DeckPoller) poll(ctx context.Context, path string, changes chan<- Change) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastSent time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
		}

		change, changed, err := p.check(path)
		if err != nil {
			p.logger.Warn("checking deck file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if !changed || time.Since(lastSent) < p.debounce {
			continue
		}

		select {
		case changes <- change:
			lastSent = time.Now()
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		}
	}
}

// check compares the file with its last observed state and records the new
// one when it differs.
func (p *DeckPoller) check(path string) (Change, bool, error) {
	p.mu.Lock()
	previous, known := p.states[path]
	p.mu.Unlock()

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		if !known {
			return Change{}, false, nil
		}
		p.mu.Lock()
		delete(p.states, path)
		p.mu.Unlock()
		return Change{Path: path, Removed: true, At: time.Now()}, true, nil
	}
	if err != nil {
		return Change{}, false, fmt.Errorf("stat file: %w", err)
	}

	// Skip hashing when size and mtime are unchanged
	if known && previous.size == info.Size() && previous.modTime.Equal(info.ModTime()) {
		return Change{}, false, nil
	}

	current, err := readState(path)
	if err != nil {
		return Change{}, false, err
	}

	p.mu.Lock()
	p.states[path] = current
	p.mu.Unlock()

	if known && previous.checksum == current.checksum {
		return Change{}, false, nil
	}
	return Change{Path: path, At: time.Now()}, true, nil
}

func readState(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, fmt.Errorf("stat file: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - path is the user's deck file
	if err != nil {
		return fileState{}, err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileState{}, fmt.Errorf("hashing file: %w", err)
	}

	return fileState{
		size:     info.Size(),
		modTime:  info.ModTime(),
		checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}
