// Package filesystem provides the local directory image source.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.ImageSource = (*Connector)(nil)

// changeBuffer is the capacity of the watch channel.
const changeBuffer = 64

// Connector enumerates and watches photo files on the local filesystem.
type Connector struct {
	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// New creates a filesystem connector.
func New() *Connector {
	return &Connector{}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Discover lists photo files under root in lexical order.
// Unreadable subdirectories are logged and skipped.
func (c *Connector) Discover(
	ctx context.Context, root string, opts driven.DiscoverOptions,
) ([]driven.DiscoveredImage, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	var images []driven.DiscoveredImage
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		if !opts.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !matchesExtension(path, opts.Extensions) || !isRegularFile(path, d) {
			return nil
		}

		images = append(images, driven.DiscoveredImage{Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return images, nil
}

// Watch emits a change for every photo created, written, removed or renamed
// under root. The channel closes when ctx is cancelled.
func (c *Connector) Watch(
	ctx context.Context, root string, opts driven.DiscoverOptions,
) (<-chan domain.ImageChange, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("connector closed")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	w := &dirWatch{root: root, opts: opts, watcher: watcher}
	if err := w.addTree(root); err != nil {
		c.release(watcher)
		return nil, err
	}

	changes := make(chan domain.ImageChange, changeBuffer)
	go func() {
		defer close(changes)
		defer c.release(watcher)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := w.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops all active watchers. It is idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, w := range c.watchers {
		w.Close()
	}
	c.watchers = nil
	return nil
}

func (c *Connector) release(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.watchers {
		if w == watcher {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
	watcher.Close()
}

// dirWatch tracks one watched tree.
type dirWatch struct {
	root    string
	opts    driven.DiscoverOptions
	watcher *fsnotify.Watcher
}

// addTree watches dir and, when recursive, every visible subdirectory.
func (w *dirWatch) addTree(dir string) error {
	if !w.opts.Recursive {
		return w.watcher.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && !w.opts.IncludeHidden && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent converts an fsnotify event into an image change.
// It returns nil for events that do not concern a photo.
func (w *dirWatch) handleFsEvent(event fsnotify.Event) *domain.ImageChange {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	if !w.opts.IncludeHidden && isHidden(rel) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		if !matchesExtension(event.Name, w.opts.Extensions) {
			return nil
		}
		return &domain.ImageChange{Type: domain.ChangeDeleted, Path: event.Name}

	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if w.opts.Recursive {
				if err := w.addTree(event.Name); err != nil {
					logger.Warn("Cannot watch %s: %v", event.Name, err)
				}
			}
			return nil
		}
		if !matchesExtension(event.Name, w.opts.Extensions) {
			return nil
		}
		return &domain.ImageChange{Type: domain.ChangeCreated, Path: event.Name}

	case event.Op.Has(fsnotify.Write):
		if !matchesExtension(event.Name, w.opts.Extensions) {
			return nil
		}
		return &domain.ImageChange{Type: domain.ChangeUpdated, Path: event.Name}
	}
	return nil
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", root)
	}
	return nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// matchesExtension reports whether path has one of exts, ignoring case.
// An empty list matches domain.DefaultExtensions.
func matchesExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		exts = domain.DefaultExtensions
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// isRegularFile follows symlinks so linked photos are included.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
