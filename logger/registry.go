package logger

import "sync"

// components caches per-component loggers derived from the global logger.
// Explicit registrations survive SetGlobalLogger; derived entries do not.
var components = &componentLoggers{}

type componentLoggers struct {
	mu      sync.RWMutex
	pinned  map[string]*Logger
	derived map[string]*Logger
}

func (c *componentLoggers) reset() {
	c.mu.Lock()
	c.derived = nil
	c.mu.Unlock()
}

// Register pins l as the logger returned by Get(name). A nil l removes the pin.
func Register(name string, l *Logger) {
	components.mu.Lock()
	defer components.mu.Unlock()
	if l == nil {
		delete(components.pinned, name)
		return
	}
	if components.pinned == nil {
		components.pinned = make(map[string]*Logger)
	}
	components.pinned[name] = l
}

// Get returns the logger for a component: the registered one, or the global
// logger tagged with name.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.pinned[name]
	if !ok {
		l, ok = components.derived[name]
	}
	components.mu.RUnlock()
	if ok {
		return l
	}

	l = GetGlobalLogger().WithComponent(name)
	components.mu.Lock()
	defer components.mu.Unlock()
	if pinned, ok := components.pinned[name]; ok {
		return pinned
	}
	if components.derived == nil {
		components.derived = make(map[string]*Logger)
	}
	components.derived[name] = l
	return l
}
