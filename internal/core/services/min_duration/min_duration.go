package minduration

import (
	"context"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/services"
	"time"
)

type serviceWithMinDuration[T any, S any] struct {
	inner services.Service[T, S]
	floor time.Duration
	now   func() time.Time
}

// WithMinDuration makes every call of inner take at least floor, so callers
// cannot tell its code paths apart by latency.
func WithMinDuration[T any, S any](
	inner services.Service[T, S],
	floor time.Duration,
	now func() time.Time,
) services.Service[T, S] {
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &serviceWithMinDuration[T, S]{inner: inner, floor: floor, now: now}
}

func (s *serviceWithMinDuration[T, S]) Run(ctx context.Context, input T) (result S, err error) {
	startedAt := s.now()
	result, err = s.inner.Run(ctx, input)

	remaining := s.floor - s.now().Sub(startedAt)
	if remaining <= 0 {
		return result, err
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return result, err
}
