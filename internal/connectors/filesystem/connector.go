// Package filesystem reads career documents from a local directory tree.
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

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/logger"
)

var _ driven.DocumentSource = (*Connector)(nil)

// Connector walks and watches a directory. Hidden files and directories
// are skipped. MIME detection is left to the normaliser registry.
type Connector struct {
	root       string
	collection string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a connector rooted at root. Documents carry the given
// collection; empty uses the default collection.
func New(root, collection string) *Connector {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Connector{root: root, collection: collection}
}

// Root returns the directory the connector reads.
func (c *Connector) Root() string {
	return c.root
}

// Validate checks the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewNotFound(c.root)
		}
		return fmt.Errorf("stat %s: %w", c.root, err)
	}
	if !info.IsDir() {
		return domain.NewValidation(c.root, errors.New("not a directory"))
	}
	return nil
}

// Walk emits every visible regular file under the root in lexical order.
// A file that cannot be read is reported on the error channel and the
// walk continues. Both channels close when the walk ends; callers must
// drain both.
func (c *Connector) Walk(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return c.report(ctx, errs, path, err)
			}
			if path != c.root && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			raw, err := c.read(path)
			if err != nil {
				return c.report(ctx, errs, path, err)
			}

			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			logger.Warn("walk %s: %v", c.root, walkErr)
		}
	}()

	return docs, errs
}

func (c *Connector) report(ctx context.Context, errs chan<- error, path string, err error) error {
	select {
	case errs <- &domain.Error{Kind: domain.ErrInfrastructure, Stage: "read", Path: path, Err: err}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connector) read(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &domain.RawDocument{
		Collection: c.collection,
		URI:        path,
		Content:    content,
	}, nil
}

// Watch reports file changes under the root until ctx is cancelled.
// Directories created after the watch starts are watched too.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.root); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.watcher != nil {
		c.watcher.Close()
	}
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !c.hidden(event.Name) {
						if err := c.addTree(watcher, event.Name); err != nil {
							logger.Warn("watch %s: %v", event.Name, err)
						}
						continue
					}
				}
				change := c.handleFsEvent(event)
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
				logger.Warn("watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent maps an fsnotify event to a change. Directories, hidden
// paths and attribute-only changes yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hidden(event.Name) {
		return nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{Collection: c.collection, URI: event.Name},
		}
	}

	var kind domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		kind = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		kind = domain.ChangeUpdated
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	raw, err := c.read(event.Name)
	if err != nil {
		logger.Warn("read %s: %v", event.Name, err)
		return nil
	}
	return &domain.RawDocumentChange{Type: kind, Document: *raw}
}

// Close stops any active watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// hidden checks path relative to the root, so a root that itself lives
// under a dot directory is still readable.
func (c *Connector) hidden(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		rel = path
	}
	return isHidden(rel)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
