// Package audit records instance lifecycle events as JSON Lines files, one
// per instance, under the state directory.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventCreate      EventType = "create"      // instance created from an offer
	EventTemplate    EventType = "template"    // template created
	EventProvisioned EventType = "provisioned" // completion marker observed
	EventExec        EventType = "exec"        // remote command run
	EventDestroy     EventType = "destroy"
	EventError       EventType = "error"
)

// Event is a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Instance  string    `json:"instance"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads audit events.
// Events live in {stateDir}/instances/{id}.events.jsonl.
type Logger struct {
	stateDir string
}

// NewLogger creates an audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

func (l *Logger) eventPath(instance string) string {
	return filepath.Join(l.stateDir, "instances", instance+".events.jsonl")
}

// Log appends an event to the instance's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	path := l.eventPath(event.Instance)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent creates and logs an event in one call.
func (l *Logger) LogEvent(eventType EventType, instance, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Instance:  instance,
		Details:   details,
	})
}

// Events returns all events for an instance in chronological order. A
// missing log is not an error.
func (l *Logger) Events(instance string) ([]Event, error) {
	path := l.eventPath(instance)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}
	return events, nil
}

// Remove deletes the audit log for an instance.
func (l *Logger) Remove(instance string) error {
	path := l.eventPath(instance)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
