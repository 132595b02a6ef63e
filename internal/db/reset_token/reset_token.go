package resettoken

import (
	"context"
	"errors"
	"fmt"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"passreset/internal/core/domain/reset"
	"passreset/internal/db"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const (
	HASH_CONSTRAINT_NAME = "reset_token_hash_idx"
	LIVE_CONSTRAINT_NAME = "reset_token_live_idx"
)

const tokenColumns = "id, token_hash, account_id, issued_at, expires_at, consumed_at, superseded_at"

type PgxRepository struct {
	db db.DBTX
}

func NewPgxRepository(dbtx db.DBTX) *PgxRepository {
	if dbtx == nil {
		panic("Argument db must not be nil.")
	}
	return &PgxRepository{db: dbtx}
}

func (r *PgxRepository) Create(ctx context.Context, input reset.CreateTokenInput) (t reset.ResetToken, err error) {
	// A failed insert must not abort the surrounding transaction, so it runs
	// in a savepoint when r.db is a transaction.
	sp, err := r.db.Begin(ctx)
	if err != nil {
		return t, err
	}
	defer sp.Rollback(ctx)

	hash := input.Value.Hash()
	row := sp.QueryRow(
		ctx,
		`INSERT INTO reset_token (id, token_hash, account_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tokenColumns,
		encodeID(uuid.New()),
		hash[:],
		int64(input.AccountID),
		input.IssuedAt,
		input.ExpiresAt,
	)
	t, err = scanToken(row)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == db.PG_UNIQUE_CONSTRAINT_ERR_CODE {
		switch pgErr.ConstraintName {
		case HASH_CONSTRAINT_NAME:
			return t, reset.ErrTokenValueCollision
		case LIVE_CONSTRAINT_NAME:
			return t, reset.ErrLiveTokenExists
		}
	}
	if err != nil {
		return t, err
	}
	if err := sp.Commit(ctx); err != nil {
		return t, err
	}

	t.Value = input.Value
	return t, t.Validate()
}

func (r *PgxRepository) GetByValue(ctx context.Context, value reset.TokenValue) (t reset.ResetToken, err error) {
	hash := value.Hash()
	row := r.db.QueryRow(ctx, `SELECT `+tokenColumns+` FROM reset_token WHERE token_hash = $1`, hash[:])
	t, err = scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, reset.ErrTokenNotFound
	}
	if err != nil {
		return t, err
	}
	return t, t.Validate()
}

func (r *PgxRepository) ConsumeIfValid(ctx context.Context, value reset.TokenValue, now time.Time) (t reset.ResetToken, err error) {
	hash := value.Hash()
	row := r.db.QueryRow(
		ctx,
		`UPDATE reset_token SET consumed_at = $2
		WHERE token_hash = $1
			AND consumed_at IS NULL
			AND superseded_at IS NULL
			AND expires_at > $2
		RETURNING `+tokenColumns,
		hash[:],
		now,
	)
	t, err = scanToken(row)
	if err == nil {
		return t, t.Validate()
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return t, err
	}

	// Nothing was updated, find out why.
	t, err = r.GetByValue(ctx, value)
	if err != nil {
		return reset.ResetToken{}, err
	}
	if err := t.Check(now); err != nil {
		return reset.ResetToken{}, err
	}
	return reset.ResetToken{}, e.NewInvalidStateErrorf("reset token %s is valid but could not be consumed", t.ID)
}

// SupersedeLive serializes issuers of the same account with a transaction
// level advisory lock, so it must run inside a unit of work.
func (r *PgxRepository) SupersedeLive(ctx context.Context, accountID account.ID, now time.Time) (int, error) {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(accountID))
	if err != nil {
		return 0, fmt.Errorf("could not lock account %d: %w", accountID, err)
	}
	tag, err := r.db.Exec(
		ctx,
		`UPDATE reset_token SET superseded_at = $2
		WHERE account_id = $1 AND consumed_at IS NULL AND superseded_at IS NULL`,
		int64(accountID),
		now,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgxRepository) CountLive(ctx context.Context, accountID account.ID) (count int, err error) {
	err = r.db.QueryRow(
		ctx,
		`SELECT count(*) FROM reset_token
		WHERE account_id = $1 AND consumed_at IS NULL AND superseded_at IS NULL`,
		int64(accountID),
	).Scan(&count)
	return count, err
}

func (r *PgxRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM reset_token
		WHERE expires_at < $1
			OR ((consumed_at IS NOT NULL OR superseded_at IS NOT NULL) AND issued_at < $1)`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanToken(row pgx.Row) (t reset.ResetToken, err error) {
	var (
		id           pgtype.UUID
		hash         []byte
		accountID    int64
		issuedAt     time.Time
		expiresAt    time.Time
		consumedAt   pgtype.Timestamptz
		supersededAt pgtype.Timestamptz
	)
	err = row.Scan(&id, &hash, &accountID, &issuedAt, &expiresAt, &consumedAt, &supersededAt)
	if err != nil {
		return t, err
	}
	if len(hash) != len(t.Hash) {
		return t, e.NewInvalidStateErrorf("reset token %x has a malformed hash", id.Bytes)
	}
	copy(t.Hash[:], hash)
	t.ID = uuid.UUID(id.Bytes)
	t.AccountID = account.ID(accountID)
	t.IssuedAt = issuedAt.UTC()
	t.ExpiresAt = expiresAt.UTC()
	t.ConsumedAt = decodeOptionalTime(consumedAt)
	t.SupersededAt = decodeOptionalTime(supersededAt)
	return t, nil
}

func encodeID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Status: pgtype.Present}
}

func decodeOptionalTime(at pgtype.Timestamptz) c.Optional[time.Time] {
	return c.NewOptional(at.Time.UTC(), at.Status == pgtype.Present)
}
