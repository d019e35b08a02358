// Package lookup holds the static WIP code table consulted for mix-name
// auto-fill and the "Auto-Matched" badge.
package lookup

import (
	"fmt"
	"sort"
	"strings"
)

// Entry maps one WIP code to its mix name.
type Entry struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Table is a read-only code index. The zero value is an empty table.
type Table struct {
	entries []Entry
	byCode  map[string]string
}

// Normalize returns the canonical form of a code: trimmed and upper-cased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New builds a table from entries. Codes are normalized; empty codes or names
// and duplicate codes are rejected.
func New(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[string]string, len(entries)),
	}
	for i, e := range entries {
		code := Normalize(e.Code)
		name := strings.TrimSpace(e.Name)
		if code == "" {
			return nil, fmt.Errorf("lookup: entry %d: code is required", i)
		}
		if name == "" {
			return nil, fmt.Errorf("lookup: entry %d (%s): name is required", i, code)
		}
		if _, dup := t.byCode[code]; dup {
			return nil, fmt.Errorf("lookup: duplicate code %s", code)
		}
		t.byCode[code] = name
		t.entries = append(t.entries, Entry{Code: code, Name: name})
	}
	return t, nil
}

// MustNew is New for static tables known to be valid.
func MustNew(entries []Entry) *Table {
	t, err := New(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the mix name for code. The match is exact after
// normalization.
func (t *Table) Lookup(code string) (string, bool) {
	if t == nil || t.byCode == nil {
		return "", false
	}
	name, ok := t.byCode[Normalize(code)]
	return name, ok
}

// Known reports whether code is in the table.
func (t *Table) Known(code string) bool {
	_, ok := t.Lookup(code)
	return ok
}

// Suggest lists up to limit entries whose code starts with prefix, ordered by
// code. An empty prefix yields nothing.
func (t *Table) Suggest(prefix string, limit int) []Entry {
	if t == nil || limit <= 0 {
		return nil
	}
	p := Normalize(prefix)
	if p == "" {
		return nil
	}
	var out []Entry
	for _, e := range t.entries {
		if strings.HasPrefix(e.Code, p) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Entries returns a copy of the table in load order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
