// Package session records delegated runs as ordered event logs and
// persists them as JSONL files, one per run.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Status constants for runs.
const (
	StatusRunning   = "running"
	StatusComplete  = "complete"
	StatusFailed    = "failed"
	StatusTimedOut  = "timed_out"
	StatusCancelled = "cancelled"
)

// Event types for the run log.
const (
	EventStarted    = "started"     // Run began
	EventUser       = "user"        // Task prompt sent to the model
	EventAssistant  = "assistant"   // Model response
	EventToolCall   = "tool_call"   // Tool invocation started
	EventToolResult = "tool_result" // Tool completed
	EventConflict   = "conflict"    // Overlapping write detected
	EventRetry      = "retry"       // Attempt failed, retrying
	EventCompleted  = "completed"   // Run finished
)

// Session is the record of one delegated run.
type Session struct {
	ID              string    `json:"id"`
	Agent           string    `json:"agent"`
	Task            string    `json:"task"`
	ParentRequestID string    `json:"parent_request_id,omitempty"`
	Status          string    `json:"status"`
	Result          string    `json:"result,omitempty"`
	Error           string    `json:"error,omitempty"`
	Events          []Event   `json:"events"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	seqCounter uint64
	mu         sync.Mutex
}

// Event is a single entry in the run log. SeqID is monotonic within
// a session so consumers can rely on ordering without timestamps.
type Event struct {
	SeqID     uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Agent string `json:"agent,omitempty"`

	Content string                 `json:"content,omitempty"`
	Tool    string                 `json:"tool,omitempty"`
	Args    map[string]interface{} `json:"args,omitempty"`

	Success    *bool  `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`

	Meta *EventMeta `json:"meta,omitempty"`
}

// EventMeta carries structured detail that only some events need.
type EventMeta struct {
	// Model interaction
	Model     string `json:"model,omitempty"`
	TokensIn  int    `json:"tokens_in,omitempty"`
	TokensOut int    `json:"tokens_out,omitempty"`

	// Conflict detail
	Path          string `json:"path,omitempty"`
	Severity      string `json:"severity,omitempty"`
	PreviousAgent string `json:"previous_agent,omitempty"`

	// Retry detail
	Attempt int `json:"attempt,omitempty"`
}

func (s *Session) nextSeqID() uint64 {
	return atomic.AddUint64(&s.seqCounter, 1)
}

// CurrentSeqID returns the last assigned sequence ID, 0 when empty.
func (s *Session) CurrentSeqID() uint64 {
	return atomic.LoadUint64(&s.seqCounter)
}

// AddEvent appends an event with automatic sequencing and returns its
// sequence ID.
func (s *Session) AddEvent(event Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.SeqID = s.nextSeqID()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.Events = append(s.Events, event)
	s.UpdatedAt = time.Now()
	return event.SeqID
}

// Store is the interface for run persistence.
type Store interface {
	Save(sess *Session) error
	Load(id string) (*Session, error)
}

// Manager creates and updates persisted runs.
type Manager struct {
	store Store
	mu    sync.Mutex
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Create starts a new run record for the given agent and task. The id
// is caller-supplied so it matches the orchestrator's sub-session ID;
// pass "" to generate one.
func (m *Manager) Create(id, agent, task string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = generateID()
	}
	now := time.Now()
	sess := &Session{
		ID:        id,
		Agent:     agent,
		Task:      task,
		Status:    StatusRunning,
		Events:    []Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get retrieves a run by ID.
func (m *Manager) Get(id string) (*Session, error) {
	return m.store.Load(id)
}

// Update saves changes to a run.
func (m *Manager) Update(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.UpdatedAt = time.Now()
	return m.store.Save(sess)
}

func generateID() string {
	return uuid.NewString()
}

// JSONL record types for the streaming file format.
const (
	RecordTypeHeader = "header"
	RecordTypeEvent  = "event"
	RecordTypeFooter = "footer"
)

// JSONLRecord wraps JSONL lines with type discrimination.
type JSONLRecord struct {
	RecordType string `json:"_type"`

	// Header fields
	ID              string    `json:"id,omitempty"`
	Agent           string    `json:"agent_name,omitempty"`
	Task            string    `json:"task,omitempty"`
	ParentRequestID string    `json:"parent_request_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`

	// Event fields
	*Event `json:",omitempty"`

	// Footer fields
	Status    string    `json:"status,omitempty"`
	Result    string    `json:"result,omitempty"`
	RunError  string    `json:"run_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// FileStore implements Store on the filesystem, one JSONL file per run.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save persists a run to disk in JSONL format.
func (s *FileStore) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	path := filepath.Join(s.dir, sess.ID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	header := JSONLRecord{
		RecordType:      RecordTypeHeader,
		ID:              sess.ID,
		Agent:           sess.Agent,
		Task:            sess.Task,
		ParentRequestID: sess.ParentRequestID,
		CreatedAt:       sess.CreatedAt,
	}
	if err := s.writeLine(f, header); err != nil {
		return err
	}

	for _, evt := range sess.Events {
		evtCopy := evt
		if err := s.writeLine(f, JSONLRecord{RecordType: RecordTypeEvent, Event: &evtCopy}); err != nil {
			return err
		}
	}

	footer := JSONLRecord{
		RecordType: RecordTypeFooter,
		Status:     sess.Status,
		Result:     sess.Result,
		RunError:   sess.Error,
		UpdatedAt:  sess.UpdatedAt,
	}
	return s.writeLine(f, footer)
}

func (s *FileStore) writeLine(f *os.File, record JSONLRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		return err
	}
	return nil
}

// Load reads a run from disk.
func (s *FileStore) Load(id string) (*Session, error) {
	path := filepath.Join(s.dir, id+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sess := &Session{Events: []Event{}}

	// bufio.Reader rather than Scanner: no line length limits.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) > 0 {
					if parseErr := s.parseLine(line, sess); parseErr != nil {
						return nil, parseErr
					}
				}
				break
			}
			return nil, fmt.Errorf("error reading session log: %w", err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := s.parseLine(line, sess); err != nil {
			return nil, err
		}
	}

	// Restore sequence counter from last event.
	if len(sess.Events) > 0 {
		sess.seqCounter = sess.Events[len(sess.Events)-1].SeqID
	}
	return sess, nil
}

func (s *FileStore) parseLine(line []byte, sess *Session) error {
	var record JSONLRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return fmt.Errorf("failed to parse session log line: %w", err)
	}

	switch record.RecordType {
	case RecordTypeHeader:
		sess.ID = record.ID
		sess.Agent = record.Agent
		sess.Task = record.Task
		sess.ParentRequestID = record.ParentRequestID
		sess.CreatedAt = record.CreatedAt
	case RecordTypeEvent:
		if record.Event != nil {
			sess.Events = append(sess.Events, *record.Event)
		}
	case RecordTypeFooter:
		sess.Status = record.Status
		sess.Result = record.Result
		sess.Error = record.RunError
		sess.UpdatedAt = record.UpdatedAt
	}
	return nil
}

// List returns the IDs of persisted runs, newest first by mtime.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	type item struct {
		id  string
		mod time.Time
	}
	var items []item
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".jsonl")]
		items = append(items, item{id: id, mod: info.ModTime()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].mod.After(items[j].mod) })
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids, nil
}
