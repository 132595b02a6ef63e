package executereset

import (
	"context"
	"crypto/subtle"
	"errors"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const storeTimeout = 10 * time.Second

type Input struct {
	Token           reset.TokenValue
	NewPassword     account.RawPassword
	ConfirmPassword account.RawPassword
}

type Result struct {
	AccountID account.ID
	Email     c.Email
}

type service struct {
	log         logging.Logger
	tokens      reset.TokenRepository
	accounts    account.Repository
	credentials account.CredentialStore
	policy      account.PasswordPolicy
	hasher      account.PasswordHasher
	newBackOff  func() backoff.BackOff
	now         func() time.Time
}

func New(
	log logging.Logger,
	tokens reset.TokenRepository,
	accounts account.Repository,
	credentials account.CredentialStore,
	policy account.PasswordPolicy,
	hasher account.PasswordHasher,
	newBackOff func() backoff.BackOff,
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
	if credentials == nil {
		panic(e.NewNilArgumentError("credentials"))
	}
	if policy == nil {
		panic(e.NewNilArgumentError("policy"))
	}
	if hasher == nil {
		panic(e.NewNilArgumentError("hasher"))
	}
	if newBackOff == nil {
		panic(e.NewNilArgumentError("newBackOff"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:         log,
		tokens:      tokens,
		accounts:    accounts,
		credentials: credentials,
		policy:      policy,
		hasher:      hasher,
		newBackOff:  newBackOff,
		now:         now,
	}
}

// ExponentialRetry retries a credential update at most maxRetries times
// after the first attempt.
func ExponentialRetry(maxRetries uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 50 * time.Millisecond
		b.MaxInterval = time.Second
		b.MaxElapsedTime = 5 * time.Second
		return backoff.WithMaxRetries(b, maxRetries)
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if subtle.ConstantTimeCompare([]byte(input.NewPassword), []byte(input.ConfirmPassword)) != 1 {
		return result, account.ErrPasswordMismatch
	}
	if !input.Token.IsWellFormed() {
		return result, reset.ErrTokenNotFound
	}

	owner, ownerFound := s.peekOwner(ctx, input.Token)
	var attributes []string
	if ownerFound {
		attributes = owner.Attributes()
	}
	if err := s.policy.Validate(input.NewPassword, attributes); err != nil {
		return result, err
	}

	hash, err := s.hasher.HashPassword(input.NewPassword)
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}

	// Consumption and the credential write are not abandoned halfway when
	// the client goes away.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	token, err := s.tokens.ConsumeIfValid(storeCtx, input.Token, s.now())
	if reset.IsRejection(err) {
		s.log.Info(ctx, "Reset token rejected.", logging.Entry("reason", err))
		return result, err
	}
	if err != nil {
		logging.Error(ctx, s.log, err)
		return result, err
	}

	if err := s.setPassword(storeCtx, token.AccountID, hash); err != nil {
		inconsistency := &reset.StorageInconsistencyError{
			TokenID:   token.ID,
			AccountID: token.AccountID,
			Err:       err,
		}
		logging.Error(
			ctx,
			s.log,
			inconsistency,
			logging.Entry("tokenID", token.ID),
			logging.Entry("accountID", token.AccountID),
		)
		return result, inconsistency
	}

	s.log.Info(
		ctx,
		"Password has been reset.",
		logging.Entry("tokenID", token.ID),
		logging.Entry("accountID", token.AccountID),
	)

	result.AccountID = token.AccountID
	if ownerFound && owner.ID == token.AccountID {
		result.Email = owner.Email
		return result, nil
	}
	a, err := s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("accountID", token.AccountID))
		return result, nil
	}
	result.Email = a.Email
	return result, nil
}

// peekOwner resolves the account behind the token without touching the token.
func (s *service) peekOwner(ctx context.Context, value reset.TokenValue) (a account.Account, ok bool) {
	token, err := s.tokens.GetByValue(ctx, value)
	if err != nil {
		if !errors.Is(err, reset.ErrTokenNotFound) {
			s.log.Warning(ctx, "Could not look up reset token owner.", logging.Entry("err", err))
		}
		return a, false
	}
	a, err = s.accounts.GetByID(ctx, token.AccountID)
	if err != nil {
		if !errors.Is(err, account.ErrAccountDoesNotExist) {
			s.log.Warning(ctx, "Could not look up reset token owner.", logging.Entry("err", err))
		}
		return a, false
	}
	return a, true
}

func (s *service) setPassword(ctx context.Context, accountID account.ID, hash account.PasswordHash) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := s.credentials.SetPassword(ctx, accountID, hash)
		if errors.Is(err, account.ErrAccountDoesNotExist) {
			return backoff.Permanent(err)
		}
		if err != nil {
			s.log.Warning(
				ctx,
				"Could not update password, retrying.",
				logging.Entry("accountID", accountID),
				logging.Entry("attempt", attempt),
				logging.Entry("err", err),
			)
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(s.newBackOff(), ctx))
}
