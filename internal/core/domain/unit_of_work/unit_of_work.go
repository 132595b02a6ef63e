package uow

import (
	"context"
	"passreset/internal/core/domain/reset"
)

type Context interface {
	Rollback(ctx context.Context) error
	Commit(ctx context.Context) error

	Tokens() reset.TokenRepository
}

type UnitOfWork interface {
	Begin(ctx context.Context) (Context, error)
}
