package registry

import (
	"errors"
	"sync"
)

var (
	// ErrEmptyName rejects a registration with no usable display name.
	ErrEmptyName = errors.New("display name must not be empty")
	// ErrNameTaken rejects a registration for a name that is already reserved.
	ErrNameTaken = errors.New("display name already registered")
)

// Registry reserves display names ahead of their websocket attach. A name
// stays reserved until the session bound to it is detached, at which point it
// may be registered again immediately.
type Registry struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

func New() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

func (r *Registry) Register(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[name]; taken {
		return ErrNameTaken
	}
	r.names[name] = struct{}{}
	return nil
}

func (r *Registry) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Release frees a name for re-registration. Releasing an unknown name is a
// no-op.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
