package repl

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	baseHistory = "history.utf8"

	// maxHistory bounds the number of entries kept in the history file.
	maxHistory = 1000
)

// HistoryEntry is one submitted input with the mode it was entered in.
// Lines of a multi-line block are joined with "\n".
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History manages input history with file persistence.
//
// Each entry is stored on one line as a mode prefix ("E:" or "C:") followed
// by the Go-quoted input when it spans lines, or the raw input otherwise.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory creates a new History instance with the given file path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load reads history entries from the history file. A missing file is an
// empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if entry, ok := decodeEntry(scanner.Text()); ok {
			h.entries = append(h.entries, entry)
		}
	}

	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
	}

	return scanner.Err()
}

func decodeEntry(line string) (HistoryEntry, bool) {
	mode := modeEval

	if s, ok := strings.CutPrefix(line, "C:"); ok {
		mode, line = modeCtrl, s
	} else if s, ok := strings.CutPrefix(line, "E:"); ok {
		line = s
	}

	if strings.HasPrefix(line, `"`) {
		if s, err := strconv.Unquote(line); err == nil {
			line = s
		}
	}

	if strings.TrimSpace(line) == "" {
		return HistoryEntry{}, false
	}

	return HistoryEntry{Line: line, Mode: mode}, true
}

func encodeEntry(entry HistoryEntry) string {
	prefix := "E:"
	if entry.Mode == modeCtrl {
		prefix = "C:"
	}

	line := entry.Line
	if strings.ContainsAny(line, "\r\n") || strings.HasPrefix(line, `"`) {
		line = strconv.Quote(line)
	}

	return prefix + line + "\n"
}

// WriteWithMode appends a new entry to the history with the specified mode.
// An earlier identical entry is moved to the end.
func (h *History) WriteWithMode(entry string, mode inputMode) (int, error) {
	entry = strings.TrimRight(entry, " \t\r\n")
	if strings.TrimSpace(entry) == "" {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	item := HistoryEntry{Line: entry, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == item {
		return len(entry), nil
	}

	rewrite := false

	for i, e := range h.entries {
		if e == item {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			rewrite = true

			break
		}
	}

	h.entries = append(h.entries, item)

	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
		rewrite = true
	}

	if rewrite {
		return h.rewriteFile()
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.WriteString(encodeEntry(item))
}

// GetEntry retrieves a historic entry by index. Index 0 is the oldest entry.
func (h *History) GetEntry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all history entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]HistoryEntry, len(h.entries))
	copy(result, h.entries)

	return result
}

// rewriteFile rewrites the entire history file. Must be called with h.mu held.
func (h *History) rewriteFile() (int, error) {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	total := 0

	for _, entry := range h.entries {
		n, err := w.WriteString(encodeEntry(entry))
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, w.Flush()
}
