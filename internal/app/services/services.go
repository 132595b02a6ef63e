package services

import (
	"passreset/internal/app/deps"
	"passreset/internal/core/services"
	deliverresetlink "passreset/internal/core/services/deliver_reset_link"
	executereset "passreset/internal/core/services/execute_reset"
	minduration "passreset/internal/core/services/min_duration"
	purgetokens "passreset/internal/core/services/purge_tokens"
	requestreset "passreset/internal/core/services/request_reset"
	verifytoken "passreset/internal/core/services/verify_token"
)

type Services struct {
	RequestReset     services.Service[requestreset.Input, requestreset.Result]
	VerifyToken      services.Service[verifytoken.Input, verifytoken.Result]
	ExecuteReset     services.Service[executereset.Input, executereset.Result]
	DeliverResetLink services.Service[deliverresetlink.Input, deliverresetlink.Result]
	PurgeTokens      services.Service[purgetokens.Input, purgetokens.Result]

	// WaitHandOffs blocks until reset links handed off in the background
	// have been queued or sent.
	WaitHandOffs func()
}

func InitServices(deps *deps.Deps) *Services {
	s := &Services{}

	requestReset := requestreset.New(
		deps.Logger,
		deps.AccountRepository,
		deps.UnitOfWork,
		deps.RandomSource,
		deps.ResetNotifier,
		deps.Config.FrontendBaseURL,
		deps.Config.PasswordResetTokenTTL,
		deps.Now,
	)
	s.RequestReset = minduration.WithMinDuration[requestreset.Input, requestreset.Result](
		requestReset,
		deps.Config.RequestMinDuration(),
		deps.Now,
	)
	s.WaitHandOffs = requestReset.Wait
	s.VerifyToken = verifytoken.New(
		deps.Logger,
		deps.TokenRepository,
		deps.AccountRepository,
		deps.Now,
	)
	s.ExecuteReset = executereset.New(
		deps.Logger,
		deps.TokenRepository,
		deps.AccountRepository,
		deps.AccountRepository,
		deps.PasswordPolicy,
		deps.PasswordHasher,
		executereset.ExponentialRetry(deps.Config.CredentialUpdateMaxRetries),
		deps.Now,
	)
	s.DeliverResetLink = deliverresetlink.New(
		deps.Logger,
		deps.EmailSender,
		deps.Config.PasswordResetDeliveryTimeout,
		deps.Now,
	)
	s.PurgeTokens = purgetokens.New(
		deps.Logger,
		deps.TokenRepository,
		deps.Locker,
		deps.Config.ReaperRetention,
		deps.Config.ReaperLockTTL,
		deps.Now,
	)

	return s
}
