package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Sink receives discrete pipeline telemetry events (stage started, stage
// completed, fallback triggered). Components report through it instead of
// writing console lines; tests can assert on what was recorded.
type Sink interface {
	Event(runID string, stage State, event string, fields map[string]any)
}

var traceRunIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// TraceEvent is a structured run trace event persisted as JSON.
type TraceEvent struct {
	Timestamp string         `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Stage     string         `json:"stage"`
	Event     string         `json:"event"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// TraceLogger persists run-scoped trace events into JSONL files.
type TraceLogger struct {
	dir string
	mu  sync.Mutex
}

func defaultRunTraceDir() string {
	return filepath.Join("tmp", "run_logs")
}

// NewTraceLogger creates a JSONL trace sink rooted at dir.
func NewTraceLogger(dir string) *TraceLogger {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = defaultRunTraceDir()
	}
	_ = os.MkdirAll(trimmed, 0o755)
	return &TraceLogger{dir: trimmed}
}

func sanitizeRunID(runID string) string {
	id := strings.TrimSpace(runID)
	if id == "" {
		return "unknown"
	}
	id = traceRunIDSanitizer.ReplaceAllString(id, "_")
	if id == "" {
		return "unknown"
	}
	return id
}

func (l *TraceLogger) filePath(runID string) string {
	return filepath.Join(l.dir, sanitizeRunID(runID)+".jsonl")
}

// Event writes one trace line for the run.
func (l *TraceLogger) Event(runID string, stage State, event string, fields map[string]any) {
	if l == nil || strings.TrimSpace(runID) == "" {
		return
	}
	entry := TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     strings.TrimSpace(runID),
		Stage:     string(stage),
		Event:     strings.TrimSpace(event),
	}
	if len(fields) > 0 {
		entry.Fields = fields
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	raw = append(raw, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(l.dir, 0o755)
	f, err := os.OpenFile(l.filePath(runID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(raw)
}

// Read returns all persisted trace events for a run.
func (l *TraceLogger) Read(runID string) ([]TraceEvent, error) {
	if l == nil {
		return nil, nil
	}
	path := l.filePath(runID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []TraceEvent{}, nil
		}
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	out := make([]TraceEvent, 0, 64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev TraceEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan trace file: %w", err)
	}
	return out, nil
}

// MemorySink records trace events in memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	Events []TraceEvent
}

func (m *MemorySink) Event(runID string, stage State, event string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, TraceEvent{
		RunID:  runID,
		Stage:  string(stage),
		Event:  event,
		Fields: fields,
	})
}

// Recorded returns a snapshot of the events seen so far.
func (m *MemorySink) Recorded() []TraceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TraceEvent, len(m.Events))
	copy(out, m.Events)
	return out
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Event(string, State, string, map[string]any) {}
