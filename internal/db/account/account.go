package account

import (
	"context"
	"errors"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	"passreset/internal/db"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

const EMAIL_CONSTRAINT_NAME = "account_email_idx"

var ErrEmailAlreadyExists = errors.New("account with the email already exists")

const accountColumns = "id, email, display_name, password_hash, created_at"

type PgxRepository struct {
	db db.DBTX
}

func NewPgxRepository(dbtx db.DBTX) *PgxRepository {
	if dbtx == nil {
		panic("Argument db must not be nil.")
	}
	return &PgxRepository{db: dbtx}
}

// Create only exists for seeding; accounts are managed by another system.
func (r *PgxRepository) Create(ctx context.Context, input account.Account) (a account.Account, err error) {
	row := r.db.QueryRow(
		ctx,
		`INSERT INTO account (email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		string(input.Email),
		encodeDisplayName(input.DisplayName),
		string(input.PasswordHash),
		input.CreatedAt,
	)
	a, err = scanAccount(row)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == db.PG_UNIQUE_CONSTRAINT_ERR_CODE && pgErr.ConstraintName == EMAIL_CONSTRAINT_NAME {
			return a, ErrEmailAlreadyExists
		}
	}
	if err != nil {
		return a, err
	}
	return a, a.Validate()
}

func (r *PgxRepository) GetByID(ctx context.Context, id account.ID) (a account.Account, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM account WHERE id = $1`, int64(id))
	return r.decodeRow(row)
}

func (r *PgxRepository) GetByEmail(ctx context.Context, email c.Email) (a account.Account, err error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM account WHERE email = $1`, string(email))
	return r.decodeRow(row)
}

func (r *PgxRepository) SetPassword(ctx context.Context, id account.ID, password account.PasswordHash) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE account SET password_hash = $2 WHERE id = $1`,
		int64(id),
		string(password),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountDoesNotExist
	}
	return nil
}

func (r *PgxRepository) decodeRow(row pgx.Row) (a account.Account, err error) {
	a, err = scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, account.ErrAccountDoesNotExist
	}
	if err != nil {
		return a, err
	}
	return a, a.Validate()
}

func scanAccount(row pgx.Row) (a account.Account, err error) {
	var (
		id           int64
		email        string
		displayName  pgtype.Text
		passwordHash string
		createdAt    time.Time
	)
	err = row.Scan(&id, &email, &displayName, &passwordHash, &createdAt)
	if err != nil {
		return a, err
	}
	return account.Account{
		ID:           account.ID(id),
		Email:        c.Email(email),
		DisplayName:  c.NewOptional(account.DisplayName(displayName.String), displayName.Status == pgtype.Present),
		PasswordHash: account.PasswordHash(passwordHash),
		CreatedAt:    createdAt.UTC(),
	}, nil
}

func encodeDisplayName(name c.Optional[account.DisplayName]) pgtype.Text {
	if !name.IsPresent {
		return pgtype.Text{Status: pgtype.Null}
	}
	return pgtype.Text{String: string(name.Value), Status: pgtype.Present}
}
