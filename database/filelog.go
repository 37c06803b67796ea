package database

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// FileLog - One identifier per line in a flat text file
type FileLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenFileLog - Open the log for appending, the file is created empty if missing
func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open registry file: %w", err)
	}
	if err := terminateLastLine(path, f); err != nil {
		f.Close()
		return nil, err
	}
	return &FileLog{path: path, file: f}, nil
}

// terminateLastLine - Older files end without a trailing newline
func terminateLastLine(path string, f *os.File) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read registry file: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}
	return nil
}

// Append - Write a single record, one write call per record so lines never interleave
func (l *FileLog) Append(id string) error {
	if !validID(id) {
		return fmt.Errorf("invalid anchor id %q", id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.WriteString(id + "\n"); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}
	return l.file.Sync()
}

// Load - Read all records, blank lines are skipped
func (l *FileLog) Load() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan registry file: %w", err)
	}
	return ids, nil
}

// Close - Close the underlying file
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
