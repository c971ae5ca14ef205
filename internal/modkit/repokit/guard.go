package repokit

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by backends and engines that can report readiness
type Pinger interface {
	Ping(context.Context) error
}

// Ping calls p with a 5s default deadline when ctx has none
func Ping(ctx context.Context, name string, p Pinger) error {
	if p == nil {
		return fmt.Errorf("%s: nil dependency", name)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}
