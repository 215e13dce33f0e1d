// Package eventlog records structured ruler and movement events.
package eventlog

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one recorded event.
type Entry struct {
	Seq      int
	Token    string  // token id, or "--" for ruler-wide events
	Category string  // pathfind, move, ruler, config
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[#007] tok1     move      position         (100,0) → (200,0)
func (e Entry) String() string {
	return fmt.Sprintf("[#%03d] %-8s %-9s %-16s %s",
		e.Seq, e.Token, e.Category, e.Key, e.Value)
}

// Log collects events. The zero value is not usable; call New.
// A nil *Log discards everything, so callers need not guard.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	verbose bool
	sink    func(Entry)
}

// New creates a Log. If verbose is true, AddVerbose entries are kept too.
func New(verbose bool) *Log {
	return &Log{verbose: verbose}
}

// SetSink installs a callback invoked for every stored entry (e.g. an on-screen panel).
func (l *Log) SetSink(fn func(Entry)) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.sink = fn
	l.mu.Unlock()
}

// Add records a new entry.
func (l *Log) Add(token, category, key, value string, numVal float64) {
	if l == nil {
		return
	}
	if token == "" {
		token = "--"
	}
	l.mu.Lock()
	e := Entry{
		Seq:      len(l.entries) + 1,
		Token:    token,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	}
	l.entries = append(l.entries, e)
	sink := l.sink
	l.mu.Unlock()
	if sink != nil {
		sink(e)
	}
}

// Addf is Add with a formatted value.
func (l *Log) Addf(token, category, key string, numVal float64, format string, args ...any) {
	if l == nil {
		return
	}
	l.Add(token, category, key, fmt.Sprintf(format, args...), numVal)
}

// AddVerbose records an entry only when verbose mode is on.
func (l *Log) AddVerbose(token, category, key, value string, numVal float64) {
	if l == nil || !l.verbose {
		return
	}
	l.Add(token, category, key, value, numVal)
}

// Entries returns a copy of all recorded entries.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (l *Log) Filter(category, key string) []Entry {
	var out []Entry
	for _, e := range l.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count returns how many entries match the given category and key.
func (l *Log) Count(category, key string) int {
	return len(l.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (l *Log) LastOf(category, key string) (Entry, bool) {
	entries := l.Filter(category, key)
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (l *Log) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range l.Filter(category, key) {
		if strings.Contains(e.Value, valueSubstr) {
			return true
		}
	}
	return false
}

// Format renders every entry, one per line.
func (l *Log) Format() string {
	var sb strings.Builder
	for _, e := range l.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
