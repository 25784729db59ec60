package ws

import (
	"net/http"
	"sort"

	"github.com/kbukum/wskit/httpclient"
)

// HeaderMap is an ordered multi-map with case-insensitive names. The first
// spelling of a name is kept for display. The zero value is ready to use.
type HeaderMap struct {
	keys    []string
	entries map[string]*headerEntry
}

type headerEntry struct {
	name   string
	values []string
}

// NewHeaderMap creates an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{entries: make(map[string]*headerEntry)}
}

// HeaderMapFrom copies m. Names are inserted in sorted order since map
// iteration has none.
func HeaderMapFrom(m map[string][]string) *HeaderMap {
	h := NewHeaderMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e := h.entry(name, true)
		e.values = append(e.values, m[name]...)
	}
	return h
}

func (h *HeaderMap) entry(name string, create bool) *headerEntry {
	key := httpclient.FoldHeaderName(name)
	if e, ok := h.entries[key]; ok {
		return e
	}
	if !create {
		return nil
	}
	if h.entries == nil {
		h.entries = make(map[string]*headerEntry)
	}
	e := &headerEntry{name: name}
	h.entries[key] = e
	h.keys = append(h.keys, key)
	return e
}

// Set replaces all values of name with value.
func (h *HeaderMap) Set(name, value string) {
	h.entry(name, true).values = []string{value}
}

// Add appends values to name. With no values it appends "".
func (h *HeaderMap) Add(name string, values ...string) {
	if len(values) == 0 {
		values = []string{""}
	}
	e := h.entry(name, true)
	e.values = append(e.values, values...)
}

// Get returns a copy of the values of name, or an empty non-nil slice.
func (h *HeaderMap) Get(name string) []string {
	e := h.entry(name, false)
	if e == nil {
		return []string{}
	}
	return append([]string{}, e.values...)
}

// First returns the first value of name, or "".
func (h *HeaderMap) First(name string) string {
	if e := h.entry(name, false); e != nil && len(e.values) > 0 {
		return e.values[0]
	}
	return ""
}

// Has reports whether name is present.
func (h *HeaderMap) Has(name string) bool {
	return h.entry(name, false) != nil
}

// Del removes name.
func (h *HeaderMap) Del(name string) {
	key := httpclient.FoldHeaderName(name)
	if _, ok := h.entries[key]; !ok {
		return
	}
	delete(h.entries, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

// Names returns display names in first-insertion order.
func (h *HeaderMap) Names() []string {
	names := make([]string, 0, len(h.keys))
	for _, k := range h.keys {
		names = append(names, h.entries[k].name)
	}
	return names
}

// Len returns the number of distinct names.
func (h *HeaderMap) Len() int {
	return len(h.keys)
}

// All returns a copy keyed by display name.
func (h *HeaderMap) All() map[string][]string {
	out := make(map[string][]string, len(h.keys))
	for _, k := range h.keys {
		e := h.entries[k]
		out[e.name] = append([]string{}, e.values...)
	}
	return out
}

// Replace discards every header and loads m.
func (h *HeaderMap) Replace(m map[string][]string) {
	*h = *HeaderMapFrom(m)
}

// Clone returns a deep copy.
func (h *HeaderMap) Clone() *HeaderMap {
	c := NewHeaderMap()
	for _, k := range h.keys {
		e := h.entries[k]
		c.entry(e.name, true).values = append([]string{}, e.values...)
	}
	return c
}

// HTTPHeader converts h to an http.Header.
func (h *HeaderMap) HTTPHeader() http.Header {
	out := make(http.Header, len(h.keys))
	for _, k := range h.keys {
		e := h.entries[k]
		for _, v := range e.values {
			out.Add(e.name, v)
		}
	}
	return out
}
