// Package audit is an append-only JSONL sink for hook decisions: one record
// per evaluated command, written with a single os.File.Write so a record is
// never torn across a crash mid-write.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/anthropics/longline/internal/evaluator"
	"github.com/anthropics/longline/internal/hookio"
	"github.com/anthropics/longline/internal/redact"
)

// Record is one audited decision.
type Record struct {
	ID               string `json:"id"`
	SessionID        string `json:"session_id,omitempty"`
	Cwd              string `json:"cwd,omitempty"`
	Command          string `json:"command,omitempty"`
	Decision         string `json:"decision"`
	OriginalDecision string `json:"original_decision,omitempty"`
	RuleID           string `json:"rule_id,omitempty"`
	Message          string `json:"message,omitempty"`
	ParseOK          bool   `json:"parse_ok"`
}

// Logger appends Records to a JSONL file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// Open opens (creating if needed) the JSONL audit log at path for
// appending.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Logger{file: f}, nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Write appends one Record to the log as a single newline-terminated JSON
// write, redacting anything in the command text that looks like a secret
// before it ever reaches disk.
func (l *Logger) Write(rec Record) error {
	rec.Command = redact.Redact(rec.Command)
	rec.Message = redact.Redact(rec.Message)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.file.Write(data)
	return err
}

// FromDecision builds a Record from a hookio.Input and the evaluator.Result
// it produced, for use as a hookio.Options.AuditFn.
func FromDecision(in hookio.Input, result evaluator.Result) Record {
	rec := Record{
		SessionID: in.SessionID,
		Cwd:       in.Cwd,
		Command:   in.ToolInput.Command,
		Decision:  string(result.Action),
		RuleID:    result.Source,
		Message:   result.Message,
		ParseOK:   true,
	}
	if result.Original != "" {
		rec.OriginalDecision = string(result.Original)
	}
	return rec
}
