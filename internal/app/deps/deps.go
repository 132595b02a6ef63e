package deps

import (
	"context"
	"fmt"
	"passreset/internal/config"
	"passreset/internal/core/domain/account"
	"passreset/internal/core/domain/lock"
	dl "passreset/internal/core/domain/logging"
	"passreset/internal/core/domain/reset"
	duow "passreset/internal/core/domain/unit_of_work"
	dbaccount "passreset/internal/db/account"
	dbresettoken "passreset/internal/db/reset_token"
	uow "passreset/internal/db/unit_of_work"
	"passreset/internal/implementations/email"
	"passreset/internal/implementations/locker"
	"passreset/internal/implementations/logging"
	passwordhasher "passreset/internal/implementations/password_hasher"
	passwordpolicy "passreset/internal/implementations/password_policy"
	randomsource "passreset/internal/implementations/random_source"
	resetnotifier "passreset/internal/implementations/reset_notifier"
	"passreset/internal/rabbitmq"
	resetlink "passreset/internal/rabbitmq/publishers/reset_link"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Deps struct {
	Config    *config.Config
	AwsConfig aws.Config
	Logger    dl.Logger

	DB       *pgxpool.Pool
	Redis    *redis.Client
	Rabbitmq *rabbitmq.Connection

	Now func() time.Time

	UnitOfWork        duow.UnitOfWork
	AccountRepository *dbaccount.PgxRepository
	TokenRepository   reset.TokenRepository

	Locker lock.Locker

	EmailSender    *email.EmailSender
	ResetNotifier  reset.Notifier
	RandomSource   reset.SecureRandomSource
	PasswordHasher account.PasswordHasher
	PasswordPolicy account.PasswordPolicy
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()
	deps.initAwsConfig()

	closeLogger := deps.initLogger()
	flushSentry := deps.initSentry()
	closePgxPool := deps.initPgxPool()
	closeRedisClient := deps.initRedisClient()
	closeRabbitmqConn := deps.initRabbitmqConnection()

	deps.Now = func() time.Time { return time.Now().UTC() }

	deps.UnitOfWork = uow.NewPgxUnitOfWork(deps.DB)
	deps.AccountRepository = dbaccount.NewPgxRepository(deps.DB)
	deps.TokenRepository = dbresettoken.NewPgxRepository(deps.DB)

	deps.Locker = locker.NewRedis(deps.Redis, deps.Logger)

	deps.EmailSender = email.NewEmailSender(
		deps.AwsConfig,
		deps.Config.AwsEmailSender,
		deps.Config.AwsEmailPasswordResetTemplate,
		deps.Now,
	)
	deps.RandomSource = randomsource.NewCrypto()
	deps.PasswordHasher = passwordhasher.NewBcrypt(deps.Config.Secret, deps.Config.BcryptHasherCost)
	deps.PasswordPolicy = passwordpolicy.New(deps.Config.PasswordMinLength)

	closeResetNotifier := deps.initResetNotifier()

	return deps, func() {
		closeFuncs := []func(){
			closeResetNotifier,
			closeRabbitmqConn,
			closeRedisClient,
			closePgxPool,
			flushSentry,
			closeLogger,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initAwsConfig() {
	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(deps.Config.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				deps.Config.AwsAccessKey,
				deps.Config.AwsSecretKey,
				"",
			),
		),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), time.Second*5),
				3,
			)
		}),
	)
	if err != nil {
		panic(err)
	}
	deps.AwsConfig = cfg
}

func (deps *Deps) initLogger() func() {
	logger := logging.NewZapLogger()
	deps.Logger = logger
	return func() { logger.Sync() }
}

// initSentry must run after initLogger: with a DSN configured the logger is
// replaced by one forwarding Error records to Sentry.
func (deps *Deps) initSentry() func() {
	if deps.Config.SentryDsn != nil {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              deps.Config.SentryDsn.String(),
			TracesSampleRate: 0.01,
		})
		if err != nil {
			panic(fmt.Sprintf("could not init Sentry: %v\n", err))
		}
		if zapLogger, ok := deps.Logger.(*logging.ZapLogger); ok {
			deps.Logger = zapLogger.WithSentry(sentry.CurrentHub())
		}
		deps.Logger.Info(context.Background(), "Sentry has been successfully initialized.")
		return func() {
			ok := sentry.Flush(5 * time.Second)
			deps.Logger.Info(context.Background(), "Sentry events flushed.", dl.Entry("ok", ok))
		}
	}

	deps.Logger.Info(context.Background(), "Sentry is disabled.")
	return func() {}
}

func (deps *Deps) initPgxPool() func() {
	db, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = db
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		db.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initRedisClient() func() {
	redisOpt, err := redis.ParseURL(deps.Config.RedisURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to Redis.", dl.Entry("err", err))
		panic(err)
	}
	redisClient := redis.NewClient(redisOpt)
	deps.Redis = redisClient
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down Redis client.")
		redisClient.Close()
		deps.Logger.Info(context.Background(), "Redis client shut down.")
	}
}

func (deps *Deps) initRabbitmqConnection() func() {
	rabbitmqConnection, err := rabbitmq.Dial(deps.Config.RabbitmqURL, deps.Logger)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to RabbitMQ.", dl.Entry("err", err))
		panic("could not connect to RabbitMQ")
	}
	deps.Rabbitmq = rabbitmqConnection
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down RabbitMQ connection.")
		rabbitmqConnection.Close()
		deps.Logger.Info(context.Background(), "RabbitMQ connection shut down.")
	}
}

// initResetNotifier picks how freshly issued links leave the request path:
// queued for the mailer in async mode or sent through SES right away in sync
// mode.
func (deps *Deps) initResetNotifier() func() {
	if deps.Config.PasswordResetDeliveryMode == config.DeliveryModeSync {
		deps.ResetNotifier = resetnotifier.NewDirect(deps.EmailSender, deps.Config.PasswordResetDeliveryTimeout)
		deps.Logger.Info(context.Background(), "Reset links are sent synchronously.")
		return func() {}
	}

	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}
	queue := deps.Config.RabbitmqResetLinkQueue
	if err := rabbitmqChannel.DeclareQueue(queue, 0); err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ queue.", dl.Entry("err", err))
		panic(err)
	}

	deps.ResetNotifier = resetlink.NewRabbitMQ(
		deps.Logger,
		rabbitmqChannel,
		queue,
		deps.Config.PasswordResetDeliveryTimeout,
	)
	deps.Logger.Info(context.Background(), "Reset links are queued.", dl.Entry("queue", queue))

	return func() {
		deps.Logger.Info(context.Background(), "Shutting down reset link publisher.")
		rabbitmqChannel.Close()
		deps.Logger.Info(context.Background(), "Reset link publisher shut down.")
	}
}
