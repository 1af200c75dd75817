package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/device"
)

// Entry is a single audit record, one JSON line per executed or dropped
// command.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Source    string    `json:"source"`
	Category  string    `json:"category"`
	Channel   string    `json:"channel"`
	Action    string    `json:"action"`
	Value     int       `json:"value"`
	Outcome   string    `json:"outcome"`
	Code      string    `json:"code"`
}

// Logger appends audit entries to a JSONL file.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
}

// NewLogger creates an audit logger writing to logDir/audit.jsonl.
func NewLogger(logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(logDir, "audit.jsonl")

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
	}, nil
}

// LogCommand records the outcome of a queued command.
func (l *Logger) LogCommand(cmd command.Command, outcome string, err error) {
	l.writeEntry(Entry{
		Timestamp: time.Now().UTC(),
		Source:    cmd.SourceID,
		Category:  cmd.Category.String(),
		Channel:   cmd.Channel.String(),
		Action:    cmd.Kind.String() + "/" + cmd.Op.String(),
		Value:     cmd.Value,
		Outcome:   outcome,
		Code:      codeFromError(err),
	})
}

// LogAction records a non-queued controller action (timed effects,
// maintenance sends).
func (l *Logger) LogAction(action string, channel device.Channel, value int, outcome string, err error) {
	l.writeEntry(Entry{
		Timestamp: time.Now().UTC(),
		Source:    "controller",
		Channel:   channel.String(),
		Action:    action,
		Value:     value,
		Outcome:   outcome,
		Code:      codeFromError(err),
	})
}

// writeEntry appends one JSON line, syncing so records survive a crash.
func (l *Logger) writeEntry(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}

	if _, err := l.file.Write(append(jsonData, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
		return
	}

	if err := l.file.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync audit log: %v\n", err)
	}
}

// codeFromError maps device errors to standardized audit codes.
func codeFromError(err error) string {
	switch {
	case err == nil:
		return "SUCCESS"
	case errors.Is(err, device.ErrInvalidRange):
		return "INVALID_RANGE"
	case errors.Is(err, device.ErrBusy):
		return "BUSY"
	case errors.Is(err, device.ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "ERROR"
	}
}

// Close closes the audit logger and its file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// FilePath returns the path to the audit log file.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Rotate renames the current log file with a timestamp suffix and starts a
// fresh one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	timestamp := time.Now().Format("20060102-150405")
	rotatedPath := fmt.Sprintf("%s.%s", l.filePath, timestamp)

	if err := os.Rename(l.filePath, rotatedPath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.file = file
	return nil
}
