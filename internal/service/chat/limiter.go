package chat

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limit allows a number of calls per caller in fixed windows of a period.
// Counters live in an in-memory store that expires finished windows.
type Limit struct {
	limiter *limiter.Limiter
	now     func() time.Time
}

// NewLimit builds a limit of calls per period.
func NewLimit(name string, calls int, period time.Duration) *Limit {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "chat_" + name,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	return &Limit{
		limiter: limiter.New(store, limiter.Rate{Period: period, Limit: int64(calls)}),
		now:     time.Now,
	}
}

// Check reports whether caller has a call left without counting one.
func (l *Limit) Check(ctx context.Context, caller string) (Decision, error) {
	c, err := l.limiter.Peek(ctx, caller)
	if err != nil {
		return Decision{}, err
	}
	return l.decision(c, c.Remaining > 0), nil
}

// Take counts one call by caller.
func (l *Limit) Take(ctx context.Context, caller string) (Decision, error) {
	c, err := l.limiter.Get(ctx, caller)
	if err != nil {
		return Decision{}, err
	}
	return l.decision(c, !c.Reached), nil
}

func (l *Limit) decision(c limiter.Context, allowed bool) Decision {
	d := Decision{
		Allowed:   allowed,
		Limit:     int(c.Limit),
		Remaining: int(c.Remaining),
		Reset:     time.Unix(c.Reset, 0),
	}
	if !allowed {
		d.Remaining = 0
		d.RetryAfter = max(d.Reset.Sub(l.now()), time.Second)
	}
	return d
}
