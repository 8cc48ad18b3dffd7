package burrow

import (
	"context"
	"fmt"
	"sync"
)

// Handle is the type-erased surface a Proxy exposes to the Manager. Every
// Proxy[M] implements it regardless of its model type.
type Handle interface {
	Name() string
	ClearMemory()
	ClearStore(ctx context.Context, mode ClearMode) error
	ScheduleClearStore(ctx context.Context)
}

// Manager is a registry of content proxies, keyed by name. It exists for
// global maintenance such as wiping every cache on logout or trimming old
// persistent entries on startup. Proxies are registered explicitly by the
// application, there is no global instance.
type Manager struct {
	mu      sync.RWMutex
	proxies map[string]Handle
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{proxies: make(map[string]Handle)}
}

// Register adds a proxy to the registry. Registering a second proxy under
// the same name is a programming error and fails.
func (m *Manager) Register(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := h.Name()
	if _, dup := m.proxies[name]; dup {
		return fmt.Errorf("manager: content %q already registered", name)
	}
	m.proxies[name] = h
	return nil
}

// Content looks up a registered proxy by name.
func (m *Manager) Content(name string) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.proxies[name]
	return h, ok
}

// Len reports the number of registered proxies.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.proxies)
}

// ClearAllMemory wipes the memory tier of every registered proxy.
func (m *Manager) ClearAllMemory() {
	for _, h := range m.snapshot() {
		h.ClearMemory()
	}
}

// ClearAllStores synchronously wipes the persistent tier of every registered
// proxy. The first error is returned after all proxies have been attempted.
func (m *Manager) ClearAllStores(ctx context.Context, mode ClearMode) error {
	var first error
	for _, h := range m.snapshot() {
		if err := h.ClearStore(ctx, mode); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ScheduleClearAllStores wipes the persistent tier of every registered proxy
// in the background.
func (m *Manager) ScheduleClearAllStores(ctx context.Context) {
	for _, h := range m.snapshot() {
		h.ScheduleClearStore(ctx)
	}
}

func (m *Manager) snapshot() []Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Handle, 0, len(m.proxies))
	for _, h := range m.proxies {
		out = append(out, h)
	}
	return out
}
