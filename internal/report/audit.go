package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jenkinsator/jenkinsator/internal/ir"
)

// AuditEntry is one line of the audit log, written per invocation.
type AuditEntry struct {
	Timestamp    string        `json:"timestamp"`
	InvocationID string        `json:"invocationId"`
	Operation    string        `json:"operation"` // "job.enable", "node.list-nodes", "script.run-script"
	User         string        `json:"user"`
	Server       string        `json:"server"`
	DryRun       bool          `json:"dryRun"`
	Targets      []AuditTarget `json:"targets,omitempty"`
	Summary      ir.Summary    `json:"summary"`
	Error        string        `json:"error,omitempty"`
}

// AuditTarget records the outcome for a single item.
type AuditTarget struct {
	Name   string    `json:"name"`
	Status ir.Status `json:"status"`
}

// NewInvocationID returns a fresh identifier for correlating log lines.
func NewInvocationID() string {
	return uuid.NewString()
}

// NewAuditEntry fills an entry from a finished batch.
func NewAuditEntry(id, operation, server string, mode ir.Mode, results []ir.Result, runErr error) AuditEntry {
	entry := AuditEntry{
		InvocationID: id,
		Operation:    operation,
		Server:       server,
		DryRun:       mode == ir.ModeDryRun,
		Summary:      ir.Summarize(results),
	}
	for _, r := range results {
		entry.Targets = append(entry.Targets, AuditTarget{Name: r.Target, Status: r.Status})
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	return entry
}

// WriteAuditLog appends entry as a JSON line to path.
func WriteAuditLog(path string, entry AuditEntry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if entry.User == "" {
		entry.User = currentUser()
	}
	if entry.InvocationID == "" {
		entry.InvocationID = NewInvocationID()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("USERNAME"); user != "" {
		return user
	}
	return "unknown"
}
