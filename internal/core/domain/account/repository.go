package account

import (
	"context"
	c "passreset/internal/core/domain/common"
)

type Repository interface {
	GetByID(ctx context.Context, id ID) (Account, error)
	GetByEmail(ctx context.Context, email c.Email) (Account, error)
}

type CredentialStore interface {
	SetPassword(ctx context.Context, id ID, password PasswordHash) error
}
