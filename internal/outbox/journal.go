// Package outbox keeps publishes that could not reach the broker so they can
// be delivered later. The database write they announce has already committed.
package outbox

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// Entry is one undelivered publish
type Entry struct {
	ID        string          `json:"id"`
	Channel   string          `json:"channel"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Journal is an append-only JSON-lines file of undelivered publishes
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func NewJournal(filePath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append stores a publish and syncs it to disk
func (j *Journal) Append(channel, event string, payload any) (Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Channel:   channel,
		Event:     event,
		Payload:   data,
		Timestamp: time.Now(),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(line, '\n')); err != nil {
		logger.Log.Error("Outbox: failed to write entry",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err),
		)
		return Entry{}, err
	}
	if err := j.file.Sync(); err != nil {
		return Entry{}, err
	}

	logger.Log.Debug("Outbox: entry journaled",
		zap.String("entry_id", entry.ID),
		zap.String("channel", channel),
		zap.String("event", event),
	)

	return entry, nil
}

// Entries returns every pending entry in append order
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.readAllUnsafe()
}

// Remove drops delivered entries by rewriting the file without them
func (j *Journal) Remove(deliveredIDs []string) error {
	if len(deliveredIDs) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	all, err := j.readAllUnsafe()
	if err != nil {
		return err
	}

	delivered := make(map[string]struct{}, len(deliveredIDs))
	for _, id := range deliveredIDs {
		delivered[id] = struct{}{}
	}

	tempFile := j.filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	remaining := 0
	for _, entry := range all {
		if _, ok := delivered[entry.ID]; ok {
			continue
		}
		line, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			return err
		}
		w.Write(line)
		w.WriteByte('\n')
		remaining++
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	f.Close()

	if err := j.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tempFile, j.filePath); err != nil {
		return err
	}

	// reopen with the same flags, later appends must land in the new file
	file, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	j.file = file

	logger.Log.Info("Outbox: delivered entries removed",
		zap.Int("removed", len(all)-remaining),
		zap.Int("remaining", remaining),
	)

	return nil
}

func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
