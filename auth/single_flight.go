package auth

import (
	"context"

	"github.com/goliatone/go-twitterkit/core"
)

// AuthHandler starts one interactive authorization. It returns false when
// the attempt could not be started.
type AuthHandler interface {
	Authorize(ctx context.Context) bool
}

type AuthHandlerFunc func(ctx context.Context) bool

func (fn AuthHandlerFunc) Authorize(ctx context.Context) bool {
	if fn == nil {
		return false
	}
	return fn(ctx)
}

// handlerSlot wraps a handler so that the cell compares by identity; func
// handlers are not comparable.
type handlerSlot struct {
	handler AuthHandler
}

// SingleFlightGuard admits at most one interactive authorization at a time.
// The zero value is idle and ready to use.
type SingleFlightGuard struct {
	slot core.AtomicCell[*handlerSlot]
}

func NewSingleFlightGuard() *SingleFlightGuard {
	return &SingleFlightGuard{}
}

// BeginAuthorize installs handler and runs it. The guard stays in progress
// only when the handler reports a successful start; EndAuthorize releases it.
func (g *SingleFlightGuard) BeginAuthorize(ctx context.Context, handler AuthHandler) bool {
	if g == nil || handler == nil {
		return false
	}
	if g.IsAuthorizeInProgress() {
		return false
	}
	installed := &handlerSlot{handler: handler}
	if !g.slot.CompareAndSet(nil, installed) {
		return false
	}
	if !handler.Authorize(ctx) {
		g.slot.CompareAndSet(installed, nil)
		return false
	}
	return true
}

func (g *SingleFlightGuard) EndAuthorize() {
	if g == nil {
		return
	}
	g.slot.Store(nil)
}

func (g *SingleFlightGuard) AuthHandler() (AuthHandler, bool) {
	if g == nil {
		return nil, false
	}
	current := g.slot.Load()
	if current == nil {
		return nil, false
	}
	return current.handler, true
}

func (g *SingleFlightGuard) IsAuthorizeInProgress() bool {
	if g == nil {
		return false
	}
	return g.slot.Load() != nil
}
