// Package filesystem provides local file access for ingestion: listing,
// reading and watching folders.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.FileSource  = (*Source)(nil)
	_ driven.FileWatcher = (*Source)(nil)
)

// Source reads files from the local filesystem. Hidden files and
// directories are ignored.
type Source struct{}

// New creates a filesystem source.
func New() *Source {
	return &Source{}
}

// List recursively returns the sorted paths under root with an allowed extension.
// A root that is itself a file is returned when its extension is allowed.
func (s *Source) List(ctx context.Context, root string, extensions []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("folder %q: %w", root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("root path error: %w", err)
	}

	allowed := extensionSet(extensions)
	if !info.IsDir() {
		if allowed.has(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && allowed.has(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Read returns the content of a file.
func (s *Source) Read(_ context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return content, nil
}

// Watch watches root and every non-hidden directory below it, including
// directories created after the watch starts.
func (s *Source) Watch(ctx context.Context, root string, extensions []string) (<-chan domain.FileEvent, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("folder %q: %w", root, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrValidation, root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan domain.FileEvent)
	allowed := extensionSet(extensions)
	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				event, ok := handleFsEvent(watcher, root, allowed, ev)
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", root, err)
			}
		}
	}()

	return events, nil
}

// handleFsEvent maps an fsnotify event to a file event. Newly created
// directories are added to the watch and produce no event.
func handleFsEvent(watcher *fsnotify.Watcher, root string, allowed extensions, ev fsnotify.Event) (domain.FileEvent, bool) {
	if isHiddenBelow(root, ev.Name) {
		return domain.FileEvent{}, false
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if !allowed.has(ev.Name) {
			return domain.FileEvent{}, false
		}
		return domain.FileEvent{Path: ev.Name, Op: domain.FileRemoved}, true
	}

	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return domain.FileEvent{}, false
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return domain.FileEvent{}, false
	}
	if info.IsDir() {
		if watcher != nil {
			if err := addTree(watcher, ev.Name); err != nil {
				logger.Warn("watch %s: %v", ev.Name, err)
			}
		}
		return domain.FileEvent{}, false
	}
	if !allowed.has(ev.Name) {
		return domain.FileEvent{}, false
	}
	return domain.FileEvent{Path: ev.Name, Op: domain.FileChanged}, true
}

// addTree adds dir and its non-hidden subdirectories to the watcher.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// extensions is a set of lower-cased extensions without the dot.
// An empty set allows every file.
type extensions map[string]bool

func extensionSet(exts []string) extensions {
	set := make(extensions, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return set
}

func (e extensions) has(path string) bool {
	if len(e) == 0 {
		return true
	}
	return e[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
}

// isHidden reports whether a single path element is hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// isHiddenBelow reports whether any element of path below root is hidden.
func isHiddenBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
