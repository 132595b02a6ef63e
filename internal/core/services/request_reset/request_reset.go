package requestreset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	uow "passreset/internal/core/domain/unit_of_work"
	"sync"
	"time"
)

const (
	maxIssueAttempts = 3
	maxValueAttempts = 5
	storeTimeout     = 10 * time.Second
	handOffTimeout   = 30 * time.Second
)

type Input struct {
	Email c.Email
}

type Result struct{}

type service struct {
	log             logging.Logger
	accounts        account.Repository
	unitOfWork      uow.UnitOfWork
	random          reset.SecureRandomSource
	notifier        reset.Notifier
	frontendBaseURL url.URL
	ttl             time.Duration
	now             func() time.Time
	handOffs        sync.WaitGroup
}

func New(
	log logging.Logger,
	accounts account.Repository,
	unitOfWork uow.UnitOfWork,
	random reset.SecureRandomSource,
	notifier reset.Notifier,
	frontendBaseURL url.URL,
	ttl time.Duration,
	now func() time.Time,
) *service {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if accounts == nil {
		panic(e.NewNilArgumentError("accounts"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if random == nil {
		panic(e.NewNilArgumentError("random"))
	}
	if notifier == nil {
		panic(e.NewNilArgumentError("notifier"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if ttl <= 0 {
		ttl = reset.DefaultTTL
	}
	return &service{
		log:             log,
		accounts:        accounts,
		unitOfWork:      unitOfWork,
		random:          random,
		notifier:        notifier,
		frontendBaseURL: frontendBaseURL,
		ttl:             ttl,
		now:             now,
	}
}

// Run never tells the caller whether the email belongs to an account.
// Apart from cancellation every failure is logged and reported as success.
func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	a, err := s.accounts.GetByEmail(ctx, input.Email)
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, account.ErrAccountDoesNotExist) {
		s.log.Info(
			ctx,
			"Password reset requested for unknown email, skipped.",
			logging.Entry("email", input.Email),
		)
		return result, nil
	}
	if err != nil {
		logging.Error(ctx, s.log, err, logging.Entry("email", input.Email))
		return result, nil
	}

	token, err := s.issue(ctx, a)
	if err != nil {
		logging.Error(
			ctx,
			s.log,
			fmt.Errorf("could not issue reset token: %w", err),
			logging.Entry("accountID", a.ID),
		)
		return result, nil
	}

	request := reset.DeliveryRequest{
		TokenID:     token.ID,
		AccountID:   a.ID,
		Email:       a.Email,
		DisplayName: a.Identity(),
		ResetURL:    reset.BuildResetURL(s.frontendBaseURL, token.Value),
		ExpiresAt:   token.ExpiresAt,
	}
	s.handOff(ctx, request)
	return result, nil
}

// handOff notifies in the background: a slow mail server or broker must not
// make known emails answer slower than unknown ones.
func (s *service) handOff(ctx context.Context, request reset.DeliveryRequest) {
	s.handOffs.Add(1)
	go func() {
		defer s.handOffs.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handOffTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, request); err != nil {
			logging.Error(
				ctx,
				s.log,
				fmt.Errorf("could not hand off reset link: %w", err),
				logging.Entry("request", request),
			)
			return
		}
		s.log.Info(ctx, "Password reset link has been handed off.", logging.Entry("request", request))
	}()
}

// Wait blocks until every started hand-off has finished.
func (s *service) Wait() {
	s.handOffs.Wait()
}

func (s *service) issue(ctx context.Context, a account.Account) (token reset.ResetToken, err error) {
	// Once started, the unit of work must run to completion or roll back,
	// whatever happens to the request.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		token, err = s.issueOnce(storeCtx, a)
		if !errors.Is(err, reset.ErrLiveTokenExists) {
			return token, err
		}
		s.log.Warning(
			ctx,
			"Concurrent reset token issued for the account, retrying.",
			logging.Entry("accountID", a.ID),
			logging.Entry("attempt", attempt),
		)
	}
	return token, err
}

func (s *service) issueOnce(ctx context.Context, a account.Account) (token reset.ResetToken, err error) {
	uow, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		return token, err
	}
	defer uow.Rollback(ctx)

	now := s.now()
	superseded, err := uow.Tokens().SupersedeLive(ctx, a.ID, now)
	if err != nil {
		return token, err
	}

	for attempt := 1; attempt <= maxValueAttempts; attempt++ {
		value, err := reset.NewTokenValue(s.random)
		if err != nil {
			return token, err
		}

		token, err = uow.Tokens().Create(ctx, reset.CreateTokenInput{
			Value:     value,
			AccountID: a.ID,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.ttl),
		})
		if errors.Is(err, reset.ErrTokenValueCollision) {
			s.log.Warning(ctx, "Reset token value collision, regenerating.", logging.Entry("attempt", attempt))
			continue
		}
		if err != nil {
			return token, err
		}

		if err := uow.Commit(ctx); err != nil {
			return token, err
		}
		s.log.Info(
			ctx,
			"Reset token has been issued.",
			logging.Entry("tokenID", token.ID),
			logging.Entry("accountID", a.ID),
			logging.Entry("superseded", superseded),
		)
		return token, nil
	}
	return token, reset.ErrTokenValueCollision
}
