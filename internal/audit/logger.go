package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger appends one JSON event per line to a run log. A nil Logger or
// an empty path silently discards events, so callers never guard.
type Logger struct {
	path string
	mu   sync.Mutex
}

// Event records one step of a repository update run.
type Event struct {
	Timestamp string `json:"timestamp"`
	Operation string `json:"operation"`          // update|plan|verify|init
	Phase     string `json:"phase"`              // start|package|manifest|done
	Status    string `json:"status"`             // ok|failed
	Addon     string `json:"addon,omitempty"`    // add-on id for package events
	Version   string `json:"version,omitempty"`  // packaged version
	Archive   string `json:"archive,omitempty"`  // archive file name
	Checksum  string `json:"checksum,omitempty"` // archive content hash
	Message   string `json:"message,omitempty"`
}

func New(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}
