package twitterkit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-twitterkit/core"
)

const (
	SessionEventLogin  = "login"
	SessionEventLogout = "logout"
)

// SessionEvent reports a change to the stored user sessions.
type SessionEvent struct {
	Kind       string
	Session    core.Session
	OccurredAt time.Time
}

type SessionListener func(ctx context.Context, event SessionEvent)

type CommandQueryBundleFactory func(service CommandQueryService) (any, error)

// ExtensionHooks lets downstream code observe session changes and attach
// its own command/query bundles to a Kit.
type ExtensionHooks struct {
	mu sync.RWMutex

	listeners map[string]SessionListener
	bundles   map[string]CommandQueryBundleFactory
}

func NewExtensionHooks() *ExtensionHooks {
	return &ExtensionHooks{
		listeners: map[string]SessionListener{},
		bundles:   map[string]CommandQueryBundleFactory{},
	}
}

func (h *ExtensionHooks) RegisterSessionListener(name string, listener SessionListener) error {
	if h == nil {
		return fmt.Errorf("twitterkit: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("twitterkit: session listener name is required")
	}
	if listener == nil {
		return fmt.Errorf("twitterkit: session listener %q is nil", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.listeners[name]; exists {
		return fmt.Errorf("twitterkit: session listener %q already registered", name)
	}
	h.listeners[name] = listener
	return nil
}

func (h *ExtensionHooks) RegisterCommandQueryBundle(
	name string,
	factory CommandQueryBundleFactory,
) error {
	if h == nil {
		return fmt.Errorf("twitterkit: extension hooks are nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("twitterkit: command/query bundle name is required")
	}
	if factory == nil {
		return fmt.Errorf("twitterkit: command/query bundle %q factory is required", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.bundles[name]; exists {
		return fmt.Errorf("twitterkit: command/query bundle %q already registered", name)
	}
	h.bundles[name] = factory
	return nil
}

// NotifySession calls every listener in name order.
func (h *ExtensionHooks) NotifySession(ctx context.Context, event SessionEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	names := sortedKeys(h.listeners)
	listeners := make([]SessionListener, 0, len(names))
	for _, name := range names {
		listeners = append(listeners, h.listeners[name])
	}
	h.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, event)
	}
}

func (h *ExtensionHooks) BuildCommandQueryBundles(
	service CommandQueryService,
) (map[string]any, error) {
	if h == nil {
		return map[string]any{}, nil
	}
	if service == nil {
		return nil, fmt.Errorf("twitterkit: command/query service is required")
	}

	h.mu.RLock()
	names := sortedKeys(h.bundles)
	factories := make(map[string]CommandQueryBundleFactory, len(h.bundles))
	for name, factory := range h.bundles {
		factories[name] = factory
	}
	h.mu.RUnlock()

	result := make(map[string]any, len(names))
	for _, name := range names {
		bundle, err := factories[name](service)
		if err != nil {
			return nil, err
		}
		result[name] = bundle
	}
	return result, nil
}

func (h *ExtensionHooks) ListenerNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.listeners)
}

func (h *ExtensionHooks) BundleNames() []string {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return sortedKeys(h.bundles)
}

func sortedKeys[V any](values map[string]V) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
