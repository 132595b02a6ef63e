package uow

import (
	"context"
	"fmt"
	"passreset/internal/core/domain/account"
	"passreset/internal/core/domain/reset"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FakeUnitOfWork runs one unit at a time. Rollback undoes only the writes
// made through the unit itself, so concurrent writes that bypass it, like
// consuming a token, survive.
type FakeUnitOfWork struct {
	TokenRepository   *reset.FakeTokenRepository
	BeginReturnsError bool
	CommitCount       int
	RollbackCount     int
	lock              sync.Mutex
	counters          sync.Mutex
}

func NewFakeUnitOfWork(tokenRepository *reset.FakeTokenRepository) *FakeUnitOfWork {
	return &FakeUnitOfWork{TokenRepository: tokenRepository}
}

func (u *FakeUnitOfWork) Begin(ctx context.Context) (Context, error) {
	if u.BeginReturnsError {
		return nil, fmt.Errorf("could not begin unit of work")
	}
	u.lock.Lock()
	return &FakeUnitOfWorkContext{uow: u}, nil
}

func (u *FakeUnitOfWork) Commits() int {
	u.counters.Lock()
	defer u.counters.Unlock()
	return u.CommitCount
}

func (u *FakeUnitOfWork) Rollbacks() int {
	u.counters.Lock()
	defer u.counters.Unlock()
	return u.RollbackCount
}

type FakeUnitOfWorkContext struct {
	uow        *FakeUnitOfWork
	created    []uuid.UUID
	superseded []uuid.UUID
	done       bool
}

func (c *FakeUnitOfWorkContext) Commit(ctx context.Context) error {
	if c.done {
		return fmt.Errorf("unit of work is already finished")
	}
	c.done = true
	c.uow.counters.Lock()
	c.uow.CommitCount++
	c.uow.counters.Unlock()
	c.uow.lock.Unlock()
	return nil
}

func (c *FakeUnitOfWorkContext) Rollback(ctx context.Context) error {
	if c.done {
		return nil
	}
	c.done = true
	c.uow.TokenRepository.Revert(c.created, c.superseded)
	c.uow.counters.Lock()
	c.uow.RollbackCount++
	c.uow.counters.Unlock()
	c.uow.lock.Unlock()
	return nil
}

func (c *FakeUnitOfWorkContext) Tokens() reset.TokenRepository {
	return &fakeTxTokens{FakeTokenRepository: c.uow.TokenRepository, uowCtx: c}
}

// fakeTxTokens records the writes of one unit of work.
type fakeTxTokens struct {
	*reset.FakeTokenRepository
	uowCtx *FakeUnitOfWorkContext
}

func (r *fakeTxTokens) Create(ctx context.Context, input reset.CreateTokenInput) (reset.ResetToken, error) {
	t, err := r.FakeTokenRepository.Create(ctx, input)
	if err == nil {
		r.uowCtx.created = append(r.uowCtx.created, t.ID)
	}
	return t, err
}

func (r *fakeTxTokens) SupersedeLive(ctx context.Context, accountID account.ID, now time.Time) (int, error) {
	ids, err := r.FakeTokenRepository.SupersedeLiveIDs(ctx, accountID, now)
	r.uowCtx.superseded = append(r.uowCtx.superseded, ids...)
	return len(ids), err
}
