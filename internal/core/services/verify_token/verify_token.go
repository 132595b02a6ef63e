package verifytoken

import (
	"context"
	"errors"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	"time"
)

type Input struct {
	Token reset.TokenValue
}

type Result struct {
	AccountID account.ID
	Email     c.Email
	ExpiresAt time.Time
}

type service struct {
	log      logging.Logger
	tokens   reset.TokenRepository
	accounts account.Repository
	now      func() time.Time
}

func New(
	log logging.Logger,
	tokens reset.TokenRepository,
	accounts account.Repository,
	now func() time.Time,
) *service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if tokens == nil {
		panic(e.NewNilArgumentError("tokens"))
	}
	if accounts == nil {
		panic(e.NewNilArgumentError("accounts"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{log: log, tokens: tokens, accounts: accounts, now: now}
}

// Run is a read-only pre-flight check. A positive answer does not reserve
// the token: it may be consumed, superseded or expire right after.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if !input.Token.IsWellFormed() {
		return result, reset.ErrTokenNotFound
	}

	token, err := s.tokens.GetByValue(ctx, input.Token)
	if err != nil {
		if !errors.Is(err, reset.ErrTokenNotFound) {
			logging.Error(ctx, s.log, err)
		}
		return result, err
	}

	if err := token.Check(s.now()); err != nil {
		s.log.Info(
			ctx,
			"Reset token rejected.",
			logging.Entry("tokenID", token.ID),
			logging.Entry("reason", err),
		)
		return result, err
	}

	a, err := s.accounts.GetByID(ctx, token.AccountID)
	if errors.Is(err, account.ErrAccountDoesNotExist) {
		s.log.Warning(
			ctx,
			"Reset token refers to a missing account.",
			logging.Entry("tokenID", token.ID),
			logging.Entry("accountID", token.AccountID),
		)
		return result, reset.ErrTokenNotFound
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("tokenID", token.ID))
		return result, err
	}

	return Result{AccountID: a.ID, Email: a.Email, ExpiresAt: token.ExpiresAt}, nil
}
