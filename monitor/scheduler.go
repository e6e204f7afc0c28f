package monitor

import (
	"context"

	"github.com/goliatone/go-twitterkit/core"
)

// GoroutineScheduler runs each task on a new goroutine. The task context
// keeps the caller's values but not its cancellation.
type GoroutineScheduler struct{}

func (GoroutineScheduler) Schedule(ctx context.Context, _ string, task func(context.Context)) error {
	if task == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go task(context.WithoutCancel(ctx))
	return nil
}

var _ core.WorkScheduler = GoroutineScheduler{}
