package requestreset

import (
	"bytes"
	"context"
	"net/url"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	"passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	uow "passreset/internal/core/domain/unit_of_work"
	"passreset/internal/core/services"
	minduration "passreset/internal/core/services/min_duration"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	ACCOUNT_ID = 42
	EMAIL      = "john@example.com"
	TTL        = time.Hour
)

var NOW = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	logger   *logging.FakeLogger
	accounts *account.FakeRepository
	tokens   *reset.FakeTokenRepository
	uow      *uow.FakeUnitOfWork
	random   *reset.FakeRandomSource
	notifier *reset.FakeNotifier
}

func (s *testSuite) SetupTest() {
	s.logger = logging.NewFakeLogger()
	s.accounts = account.NewFakeRepository(account.Account{
		ID:           ACCOUNT_ID,
		Email:        c.Email(EMAIL),
		DisplayName:  c.NewOptional(account.DisplayName("John"), true),
		PasswordHash: "hash",
		CreatedAt:    NOW.Add(-24 * time.Hour),
	})
	s.tokens = reset.NewFakeTokenRepository()
	s.uow = uow.NewFakeUnitOfWork(s.tokens)
	s.random = reset.NewFakeRandomSource()
	s.notifier = reset.NewFakeNotifier()
}

func (s *testSuite) createService() *service {
	frontend, err := url.Parse("https://app.example.com/")
	s.Require().NoError(err)
	return New(
		s.logger,
		s.accounts,
		s.uow,
		s.random,
		s.notifier,
		*frontend,
		TTL,
		func() time.Time { return NOW },
	)
}

func TestRequestResetService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestUnknownEmailDoesNothing() {
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email("nobody@example.com")})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Empty(s.tokens.Tokens)
	s.Require().Equal(0, s.notifier.SentCount())
	s.Require().Equal(0, s.uow.Commits())
}

func (s *testSuite) TestTokenIssuedAndHandedOff() {
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Len(s.tokens.Tokens, 1)
	token := s.tokens.Tokens[0]
	s.Require().Equal(account.ID(ACCOUNT_ID), token.AccountID)
	s.Require().Equal(NOW, token.IssuedAt)
	s.Require().Equal(NOW.Add(TTL), token.ExpiresAt)
	s.Require().True(token.IsLive())
	s.Require().Empty(token.Value, "plain token value must not be stored")

	s.Require().Equal(1, s.notifier.SentCount())
	sent := s.notifier.LastSent()
	s.Require().Equal(token.ID, sent.TokenID)
	s.Require().Equal(c.Email(EMAIL), sent.Email)
	s.Require().Equal("John", sent.DisplayName)
	s.Require().Equal(token.ExpiresAt, sent.ExpiresAt)

	link, err := url.Parse(sent.ResetURL)
	s.Require().NoError(err)
	s.Require().Equal("/reset-password", link.Path)
	value := reset.TokenValue(link.Query().Get("token"))
	s.Require().True(value.IsWellFormed())
	s.Require().True(token.Hash.Equal(value.Hash()))
}

func (s *testSuite) TestNewRequestSupersedesPreviousToken() {
	service := s.createService()

	for i := 0; i < 2; i++ {
		_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
		service.Wait()
		s.Require().NoError(err)
	}

	s.Require().Len(s.tokens.Tokens, 2)
	s.Require().True(s.tokens.Tokens[0].SupersededAt.IsPresent)
	s.Require().True(s.tokens.Tokens[1].IsLive())
	s.Require().Equal(2, s.notifier.SentCount())

	first := reset.TokenValue(tokenFromURL(s, s.notifier.Sent[0].ResetURL))
	_, err := s.tokens.GetByValue(context.Background(), first)
	s.Require().NoError(err)
	s.Require().ErrorIs(s.tokens.Tokens[0].Check(NOW), reset.ErrTokenSuperseded)
}

func (s *testSuite) TestConcurrentRequestsLeaveOneLiveToken() {
	service := s.createService()
	requests := 25

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
			s.NoError(err)
		}()
	}
	wg.Wait()
	service.Wait()

	live, err := s.tokens.CountLive(context.Background(), ACCOUNT_ID)
	s.Require().NoError(err)
	s.Require().Equal(1, live)
	s.Require().Len(s.tokens.Tokens, requests)
	s.Require().Equal(requests, s.notifier.SentCount())
}

func (s *testSuite) TestDeliveryFailureIsAbsorbed() {
	s.notifier.ReturnError = true
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Len(s.tokens.Tokens, 1)
	s.Require().Equal(1, s.logger.CountByLevel("error"))
}

func (s *testSuite) TestStorageFailureIsAbsorbed() {
	s.tokens.CreateReturnsError = true
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Empty(s.tokens.Tokens)
	s.Require().Equal(0, s.notifier.SentCount())
	s.Require().Equal(1, s.logger.CountByLevel("error"))
}

func (s *testSuite) TestAccountLookupFailureIsAbsorbed() {
	s.accounts.ReturnError = true
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Empty(s.tokens.Tokens)
	s.Require().Equal(1, s.logger.CountByLevel("error"))
}

func (s *testSuite) TestValueCollisionIsRetried() {
	chunk := bytes.Repeat([]byte{7}, reset.TokenEntropyBytes)
	s.random.Chunks = [][]byte{chunk, chunk}
	service := s.createService()

	for i := 0; i < 2; i++ {
		_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
		service.Wait()
		s.Require().NoError(err)
	}

	s.Require().Len(s.tokens.Tokens, 2)
	s.Require().False(s.tokens.Tokens[0].Hash.Equal(s.tokens.Tokens[1].Hash))
	s.Require().Equal(1, s.logger.CountByLevel("warning"))
	s.Require().Equal(0, s.logger.CountByLevel("error"))
}

func (s *testSuite) TestPersistentCollisionRollsBack() {
	chunk := bytes.Repeat([]byte{7}, reset.TokenEntropyBytes)
	for i := 0; i < 1+maxValueAttempts; i++ {
		s.random.Chunks = append(s.random.Chunks, chunk)
	}
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()
	s.Require().NoError(err)
	_, err = service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()
	s.Require().NoError(err)

	s.Require().Len(s.tokens.Tokens, 1)
	s.Require().True(s.tokens.Tokens[0].IsLive(), "superseding must be rolled back")
	s.Require().Equal(1, s.notifier.SentCount())
	s.Require().Equal(1, s.logger.CountByLevel("error"))
	s.Require().Equal(maxValueAttempts, s.logger.CountByLevel("warning"))
}

func (s *testSuite) TestBeginFailureIsAbsorbed() {
	s.uow.BeginReturnsError = true
	service := s.createService()

	_, err := service.Run(context.Background(), Input{Email: c.Email(EMAIL)})
	service.Wait()

	s.Require().NoError(err)
	s.Require().Equal(0, s.notifier.SentCount())
	s.Require().Equal(1, s.logger.CountByLevel("error"))
}

type slowNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *slowNotifier) Notify(ctx context.Context, request reset.DeliveryRequest) error {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	n.sent.Add(1)
	return nil
}

func (s *testSuite) TestSlowDeliveryDoesNotRevealKnownEmail() {
	const floor = 150 * time.Millisecond
	notifier := &slowNotifier{delay: 4 * floor}
	frontend, err := url.Parse("https://app.example.com/")
	s.Require().NoError(err)
	inner := New(s.logger, s.accounts, s.uow, s.random, notifier, *frontend, TTL, time.Now)
	var service services.Service[Input, Result] = minduration.WithMinDuration[Input, Result](inner, floor, time.Now)

	measure := func(email string) time.Duration {
		startedAt := time.Now()
		_, err := service.Run(context.Background(), Input{Email: c.Email(email)})
		s.Require().NoError(err)
		return time.Since(startedAt)
	}

	unknown := measure("nobody@example.com")
	known := measure(EMAIL)

	s.Require().GreaterOrEqual(unknown, floor)
	s.Require().GreaterOrEqual(known, floor)
	s.Require().Less(known, 3*floor, "delivery must not run within the request")
	s.Require().InDelta(float64(unknown), float64(known), float64(floor/2))

	inner.Wait()
	s.Require().Equal(int32(1), notifier.sent.Load())
}

func (s *testSuite) TestDeliveryOutlivesCancelledRequest() {
	notifier := &slowNotifier{delay: 50 * time.Millisecond}
	frontend, err := url.Parse("https://app.example.com/")
	s.Require().NoError(err)
	service := New(s.logger, s.accounts, s.uow, s.random, notifier, *frontend, TTL, func() time.Time { return NOW })

	ctx, cancel := context.WithCancel(context.Background())
	_, err = service.Run(ctx, Input{Email: c.Email(EMAIL)})
	cancel()
	service.Wait()

	s.Require().NoError(err)
	s.Require().Equal(int32(1), notifier.sent.Load())
	s.Require().Equal(0, s.logger.CountByLevel("error"))
}

func tokenFromURL(s *testSuite, raw string) string {
	link, err := url.Parse(raw)
	s.Require().NoError(err)
	token := link.Query().Get("token")
	s.Require().False(strings.Contains(token, "="))
	return token
}
