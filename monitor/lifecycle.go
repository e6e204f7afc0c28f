package monitor

import (
	"sync"

	"github.com/goliatone/go-twitterkit/core"
)

// ForegroundNotifier is an in-process core.LifecycleSource. Hosts call
// NotifyForeground whenever the application becomes active.
type ForegroundNotifier struct {
	mu        sync.RWMutex
	callbacks []func()
}

func NewForegroundNotifier() *ForegroundNotifier {
	return &ForegroundNotifier{}
}

func (n *ForegroundNotifier) OnForeground(callback func()) {
	if callback == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.callbacks = append(n.callbacks, callback)
}

func (n *ForegroundNotifier) NotifyForeground() {
	n.mu.RLock()
	callbacks := make([]func(), len(n.callbacks))
	copy(callbacks, n.callbacks)
	n.mu.RUnlock()

	for _, callback := range callbacks {
		callback()
	}
}

var _ core.LifecycleSource = (*ForegroundNotifier)(nil)
