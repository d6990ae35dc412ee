package cat32

import (
	"runtime"
	"strconv"
	"sync"
	"weak"
)

// ============================================================
// Identity Registry
// ============================================================
//
// Registered symbols render from their key alone. Local symbols have no
// serializable content, so the registry hands each one a sequential
// identifier the first time it is encoded and remembers it for as long as
// the symbol is alive. Entries are keyed by a weak pointer; a cleanup
// attached to the symbol drops the entry once it is collected. Identifiers
// are never reused, so no two live symbols share one.

// Registry assigns identifiers to local symbols.
type Registry struct {
	mu      sync.Mutex
	next    uint64
	entries map[weak.Pointer[Symbol]]registryEntry
}

type registryEntry struct {
	id       string
	sentinel string
}

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[weak.Pointer[Symbol]]registryEntry)}
}

// DefaultRegistry returns the process-wide registry used by Encode.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// SentinelFor returns the symbol sentinel for sym:
//
//	registered: __symbol__:["global",<key>]
//	local:      __symbol__:["local","<id>",<description>]
func (r *Registry) SentinelFor(sym *Symbol) string {
	if sym.registered {
		return globalSymbolSentinel(sym.key)
	}
	return r.getOrCreate(sym).sentinel
}

// Peek returns the identifier of a local symbol without creating one.
func (r *Registry) Peek(sym *Symbol) (string, bool) {
	if sym == nil || sym.registered {
		return "", false
	}
	wp := weak.Make(sym)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[wp]
	return e.id, ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) getOrCreate(sym *Symbol) registryEntry {
	wp := weak.Make(sym)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[wp]; ok {
		return e
	}

	id := strconv.FormatUint(r.next, 36)
	r.next++
	e := registryEntry{id: id, sentinel: localSymbolSentinel(id, sym.description)}
	r.entries[wp] = e
	runtime.AddCleanup(sym, r.evict, wp)
	return e
}

func (r *Registry) evict(wp weak.Pointer[Symbol]) {
	r.mu.Lock()
	delete(r.entries, wp)
	r.mu.Unlock()
}

func globalSymbolSentinel(key string) string {
	var b []byte
	b = append(b, symbolPrefix...)
	b = append(b, `["global",`...)
	b = append(b, quoteJSON(key)...)
	b = append(b, ']')
	return string(b)
}

func localSymbolSentinel(id, description string) string {
	var b []byte
	b = append(b, symbolPrefix...)
	b = append(b, `["local","`...)
	b = append(b, id...)
	b = append(b, `",`...)
	b = append(b, quoteJSON(description)...)
	b = append(b, ']')
	return string(b)
}
