package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long a file must stay quiet before it is rebuilt.
const watchDebounce = 200 * time.Millisecond

// fileWatcher calls back when a watched file is written, once per burst of
// events.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	callback func(string)
	debounce time.Duration
	timers   map[string]*time.Timer
	started  bool
	done     chan struct{}
}

func newFileWatcher(debounce time.Duration, callback func(string)) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &fileWatcher{
		watcher:  w,
		callback: callback,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Watch adds file to the watch list. Its directory is watched so editors that
// replace the file on save are followed.
func (fw *fileWatcher) Watch(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", file, err)
	}
	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return "", fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	fw.mu.Lock()
	fw.timers[abs] = nil
	fw.mu.Unlock()
	return abs, nil
}

// Start handles events until Close.
func (fw *fileWatcher) Start() {
	fw.started = true
	go func() {
		defer close(fw.done)
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					fw.changed(event.Name)
				}
			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Watcher error: %v", err)
			}
		}
	}()
}

func (fw *fileWatcher) changed(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	t, watched := fw.timers[path]
	if !watched {
		return
	}
	if t != nil {
		t.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() { fw.callback(path) })
}

// Close stops the watcher and any pending callback.
func (fw *fileWatcher) Close() error {
	err := fw.watcher.Close()
	if fw.started {
		<-fw.done
	}
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for _, t := range fw.timers {
		if t != nil {
			t.Stop()
		}
	}
	return err
}

// watchUntilInterrupt reruns run whenever file changes, until SIGINT.
func watchUntilInterrupt(file string, run func() error) error {
	fw, err := newFileWatcher(watchDebounce, func(path string) {
		log.Printf("%s changed, rebuilding", path)
		if err := run(); err != nil {
			log.Printf("rebuild failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	if _, err := fw.Watch(file); err != nil {
		fw.Close()
		return err
	}
	fw.Start()
	log.Printf("watching %s, press Ctrl-C to stop", file)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	signal.Stop(sig)
	return fw.Close()
}
