// Package watch reloads the document index when files under the corpus root
// change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zmre/mbr-markdown-browser-sub000/internal/docindex"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changed corpus paths, batched by a quiet period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func(changed []string)
	done     chan struct{}
	once     sync.Once
}

// New watches every directory under root except the default excludes.
// onChange receives the slash-separated relative paths touched since the
// previous call.
func New(root string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		root:     abs,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(abs); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers batches until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			w.onChange(changed)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			rel, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						log.Printf("watch: adding %s: %v", rel, err)
					}
				}
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && docindex.IsExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// relevant maps an event to its corpus-relative path, dropping chmod-only
// events and anything under an excluded directory.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if docindex.IsExcludedDir(seg) {
			return "", false
		}
	}
	return rel, true
}

// Refresher returns an onChange callback that reloads the corpus into x.
func Refresher(x *docindex.Index, cfg docindex.LoaderConfig) func(changed []string) {
	return func(changed []string) {
		log.Printf("watch: %d path(s) changed, reloading %s", len(changed), cfg.RootDir)
		if err := docindex.Refresh(x, cfg); err != nil {
			log.Printf("watch: reload failed: %v", err)
		}
	}
}
