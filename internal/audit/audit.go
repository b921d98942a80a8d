// Package audit keeps a tamper-evident record of system-changing actions.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vvyiloff/post-install/internal/config"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("audit")

// FileName is the active log inside the data dir.
const FileName = "audit.jsonl"

// Event types for audit logging.
const (
	EventInstallRun      = "install_run"
	EventInstallOutcome  = "install_outcome"
	EventUninstall       = "uninstall"
	EventDNSSet          = "dns_set"
	EventDNSRollback     = "dns_rollback"
	EventRebootScheduled = "reboot_scheduled"
	EventCatalogUpdated  = "catalog_updated"
	EventLogRotated      = "log_rotated"
)

const genesisHash = "genesis"

// criticalEvents are event types that require fsync after writing.
var criticalEvents = map[string]bool{
	EventDNSSet:          true,
	EventDNSRollback:     true,
	EventRebootScheduled: true,
}

// Entry is a single audit log record.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"eventType"`
	RunID     string         `json:"runId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	PrevHash  string         `json:"prevHash"`
	EntryHash string         `json:"entryHash"`
}

// Logger writes JSONL audit logs with a SHA-256 hash chain. On rotation a
// sentinel entry (EventLogRotated) starts the new file, linking to the last
// entry of the old one. Reopening an existing log continues its chain.
type Logger struct {
	mu         sync.Mutex
	file       *os.File
	filePath   string
	maxSize    int64
	maxBackups int
	written    int64
	prevHash   string
	dropped    atomic.Int64
}

// NewLogger creates an audit logger writing to {dataDir}/audit.jsonl.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return Open(config.GetDataDir(), cfg.AuditMaxSizeMB, cfg.AuditMaxBackups)
}

// Open creates an audit logger writing to dir/audit.jsonl.
func Open(dir string, maxSizeMB, maxBackups int) (*Logger, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create audit data dir: %w", err)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}

	l := &Logger{
		filePath:   filepath.Join(dir, FileName),
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
		prevHash:   genesisHash,
	}
	if last, err := lastEntryHash(l.filePath); err != nil {
		log.Warn("cannot resume audit chain, starting a new one", logging.KeyError, err.Error())
	} else if last != "" {
		l.prevHash = last
	}

	if err := l.openFile(); err != nil {
		return nil, err
	}
	log.Debug("audit logger started", "path", l.filePath)
	return l, nil
}

// Path returns the active log file.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Log writes a single audit entry. The chain only advances after a
// successful write, so a failed entry leaves no gap.
// Safe to call on a nil receiver (no-op).
func (l *Logger) Log(eventType string, runID string, details map[string]any) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		EventType: eventType,
		RunID:     runID,
		Details:   details,
		PrevHash:  l.prevHash,
	}

	data, err := seal(&entry)
	if err != nil {
		log.Error("failed to encode audit entry", logging.KeyError, err.Error(), "eventType", eventType)
		l.dropped.Add(1)
		return
	}

	if l.written+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil {
			log.Error("audit log rotation failed", logging.KeyError, err.Error())
			l.dropped.Add(1)
			return
		}
		// the sentinel moved the chain head
		entry.PrevHash = l.prevHash
		if data, err = seal(&entry); err != nil {
			l.dropped.Add(1)
			return
		}
	}

	n, err := l.file.Write(data)
	if err != nil {
		log.Error("failed to write audit entry", logging.KeyError, err.Error(), "eventType", eventType)
		l.dropped.Add(1)
		return
	}
	l.written += int64(n)
	l.prevHash = entry.EntryHash

	if criticalEvents[eventType] {
		if err := l.file.Sync(); err != nil {
			log.Error("failed to fsync critical audit entry", logging.KeyError, err.Error(), "eventType", eventType)
		}
	}
}

// Close flushes and closes the audit log file.
// Safe to call on a nil receiver (no-op).
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// DroppedCount returns the number of audit entries that failed to write,
// or -1 for a nil logger.
func (l *Logger) DroppedCount() int64 {
	if l == nil {
		return -1
	}
	return l.dropped.Load()
}

// seal computes the entry hash and returns the encoded JSONL line.
func seal(entry *Entry) ([]byte, error) {
	h, err := computeHash(*entry)
	if err != nil {
		return nil, err
	}
	entry.EntryHash = h
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// computeHash produces the SHA-256 hash for an audit entry. Fields are
// length-prefixed so no field value can mimic a field boundary.
func computeHash(entry Entry) (string, error) {
	h := sha256.New()
	for _, field := range []string{entry.Timestamp, entry.EventType, entry.RunID, entry.PrevHash} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	if entry.Details != nil {
		detailBytes, err := json.Marshal(entry.Details)
		if err != nil {
			return "", fmt.Errorf("marshal details for hash: %w", err)
		}
		fmt.Fprintf(h, "%d:", len(detailBytes))
		h.Write(detailBytes)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (l *Logger) openFile() error {
	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat audit log: %w", err)
	}

	l.file = f
	l.written = info.Size()
	return nil
}

func (l *Logger) rotate() error {
	prevHashBeforeRotation := l.prevHash

	if l.file != nil {
		l.file.Close()
	}

	// Shift existing backups: .3 → delete, .2 → .3, .1 → .2
	for i := l.maxBackups; i >= 2; i-- {
		src := l.backupName(i - 1)
		dst := l.backupName(i)
		if i == l.maxBackups {
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				log.Warn("audit rotation: cannot remove oldest backup", "path", dst, logging.KeyError, err.Error())
			}
		}
		if err := os.Rename(src, dst); err != nil && !os.IsNotExist(err) {
			log.Warn("audit rotation: cannot rename backup", "src", src, "dst", dst, logging.KeyError, err.Error())
		}
	}

	if err := os.Rename(l.filePath, l.backupName(1)); err != nil && !os.IsNotExist(err) {
		log.Warn("audit rotation: cannot rename current log", logging.KeyError, err.Error())
	}

	if err := l.openFile(); err != nil {
		return err
	}

	sentinel := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		EventType: EventLogRotated,
		PrevHash:  prevHashBeforeRotation,
		Details: map[string]any{
			"previousFile": l.backupName(1),
		},
	}
	data, err := seal(&sentinel)
	if err == nil {
		var n int
		n, err = l.file.Write(data)
		l.written += int64(n)
	}
	if err != nil {
		// rotation itself succeeded; the chain restarts from a marker
		log.Error("rotation sentinel not written, hash chain broken", logging.KeyError, err.Error())
		l.dropped.Add(1)
		l.prevHash = "chain-broken"
		return nil
	}
	l.prevHash = sentinel.EntryHash
	return nil
}

func (l *Logger) backupName(index int) string {
	if index == 0 {
		return l.filePath
	}
	return fmt.Sprintf("%s.%d", l.filePath, index)
}

// lastEntryHash returns the hash of the final entry in path, or "" when
// the file does not exist or is empty.
func lastEntryHash(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			last = scanner.Text()
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if last == "" {
		return "", nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(last), &e); err != nil {
		return "", fmt.Errorf("decode last audit entry: %w", err)
	}
	return e.EntryHash, nil
}

// ChainError reports the first entry that breaks the hash chain.
type ChainError struct {
	Line   int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain broken at line %d: %s", e.Line, e.Reason)
}

// Verify checks every entry hash in path and the links between
// consecutive entries. It returns the number of entries checked.
func Verify(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	count := 0
	prev := ""
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return count, &ChainError{Line: line, Reason: "malformed entry"}
		}
		want, err := computeHash(e)
		if err != nil {
			return count, &ChainError{Line: line, Reason: err.Error()}
		}
		if want != e.EntryHash {
			return count, &ChainError{Line: line, Reason: "entry hash mismatch"}
		}
		if prev != "" && e.PrevHash != prev {
			return count, &ChainError{Line: line, Reason: "prevHash does not match previous entry"}
		}
		prev = e.EntryHash
		count++
	}
	return count, scanner.Err()
}
