package resources

import (
	"encoding/json"
	"fmt"
	"sync"
)

// State is a resource serialized to field name → value, the currency the
// snapshot/diff capturer and the undo engines trade in. States produced by
// Adapter.Get include credential fields; masking happens at capture time,
// before anything is persisted.
type State = map[string]any

// Adapter is the per-type store contract. Implementations are the GORM-backed
// resource services; the restore and revert engines are their only generic
// callers.
type Adapter interface {
	// Type returns the resource type this adapter serves.
	Type() Type

	// Get returns the live state of the resource, or ErrResourceGone-style
	// not-found from the underlying store.
	Get(id uint) (State, error)

	// Create inserts a new resource from a snapshot state and returns its
	// new id and natural key. A natural-key collision is reported as a
	// NameConflict error carrying the conflicting key.
	Create(state State) (uint, string, error)

	// Update applies the given fields onto the resource, leaving all other
	// fields untouched.
	Update(id uint, fields State) error
}

// Registry maps resource types to their adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Type]Adapter)}
}

// Register installs an adapter under its own type. Registering the same type
// twice is a wiring bug and panics at startup rather than misrouting undo
// operations later.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.Type()]; exists {
		panic(fmt.Sprintf("resources: adapter for %q registered twice", a.Type()))
	}
	r.adapters[a.Type()] = a
}

// Lookup returns the adapter for t, if one is registered.
func (r *Registry) Lookup(t Type) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[t]
	return a, ok
}

// Snapshot serializes a model into a State via its JSON form. Fields the
// model excludes from JSON (credentials) are absent; adapters add those back
// explicitly where the capturer needs to see them.
func Snapshot(v any) (State, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return state, nil
}
