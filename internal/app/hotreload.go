package app

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// FileWatcher polls a file's modification time and calls back when the file
// becomes newer than its baseline. It watches the dataset file for edits made
// by other tools, and the executable for rebuilds during development.
type FileWatcher struct {
	mu            sync.Mutex
	path          string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func()
	once          bool
}

// NewFileWatcher watches path. A missing file has a zero baseline, so its
// creation counts as a change.
func NewFileWatcher(path string, checkInterval time.Duration) *FileWatcher {
	w := &FileWatcher{
		path:          path,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
	if info, err := os.Stat(path); err == nil {
		w.baseline = info.ModTime()
	}
	return w
}

// NewHotReloader watches the running executable and stops after the first
// rebuild it sees. Returns nil if the executable path cannot be determined.
func NewHotReloader(checkInterval time.Duration) *FileWatcher {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build replaces the file behind a symlink
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}
	if _, err := os.Stat(execPath); err != nil {
		return nil
	}
	w := NewFileWatcher(execPath, checkInterval)
	w.once = true
	return w
}

// OnChange sets the callback. It runs on the watcher goroutine.
func (w *FileWatcher) OnChange(callback func()) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watcher goroutine.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) watchLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.Check() && w.once {
				return
			}
		}
	}
}

// Check compares the file against the baseline. On a change it moves the
// baseline forward, runs the callback and returns true.
func (w *FileWatcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	if !info.ModTime().After(w.baseline) {
		w.mu.Unlock()
		return false
	}
	w.baseline = info.ModTime()
	cb := w.onChange
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}

// Baseline returns the modification time changes are measured against.
func (w *FileWatcher) Baseline() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.baseline
}

// ResetBaseline updates the baseline to the file's current modification
// time. Call it after writing the file yourself.
func (w *FileWatcher) ResetBaseline() {
	if info, err := os.Stat(w.path); err == nil {
		w.mu.Lock()
		w.baseline = info.ModTime()
		w.mu.Unlock()
	}
}

// RestartProcess replaces the current process with a new instance of the
// specified executable, preserving command line arguments and environment.
// This function does not return on success.
func RestartProcess(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
