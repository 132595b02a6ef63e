package reset

import (
	"context"
	"passreset/internal/core/domain/account"
	"time"
)

type CreateTokenInput struct {
	Value     TokenValue
	AccountID account.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenRepository interface {
	// Create returns ErrTokenValueCollision if the value is already stored and
	// ErrLiveTokenExists if the account still has a live token.
	Create(ctx context.Context, input CreateTokenInput) (ResetToken, error)
	GetByValue(ctx context.Context, value TokenValue) (ResetToken, error)
	// ConsumeIfValid marks the token consumed at now only if it is valid at
	// now. Exactly one of any number of concurrent callers succeeds.
	ConsumeIfValid(ctx context.Context, value TokenValue, now time.Time) (ResetToken, error)
	SupersedeLive(ctx context.Context, accountID account.ID, now time.Time) (int, error)
	CountLive(ctx context.Context, accountID account.ID) (int, error)
	// DeleteStale removes tokens that expired before the given moment and
	// spent tokens issued before it.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
