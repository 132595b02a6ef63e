package purgetokens

import (
	"context"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/lock"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	"time"
)

const LockKey = "passreset::reaper"

type Input struct{}

type Result struct {
	Skipped bool
	Deleted int64
}

type service struct {
	log       logging.Logger
	tokens    reset.TokenRepository
	locker    lock.Locker
	retention time.Duration
	lockTTL   time.Duration
	now       func() time.Time
}

func New(
	log logging.Logger,
	tokens reset.TokenRepository,
	locker lock.Locker,
	retention time.Duration,
	lockTTL time.Duration,
	now func() time.Time,
) *service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if tokens == nil {
		panic(e.NewNilArgumentError("tokens"))
	}
	if locker == nil {
		panic(e.NewNilArgumentError("locker"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:       log,
		tokens:    tokens,
		locker:    locker,
		retention: retention,
		lockTTL:   lockTTL,
		now:       now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	release, ok, err := s.locker.TryLock(ctx, LockKey, s.lockTTL)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}
	if !ok {
		s.log.Info(ctx, "Another reaper holds the lock, skipped.")
		result.Skipped = true
		return result, nil
	}
	defer release()

	before := s.now().Add(-s.retention)
	deleted, err := s.tokens.DeleteStale(ctx, before)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("before", before))
		return result, err
	}

	s.log.Info(
		ctx,
		"Stale reset tokens have been purged.",
		logging.Entry("deleted", deleted),
		logging.Entry("before", before),
	)
	result.Deleted = deleted
	return result, nil
}
