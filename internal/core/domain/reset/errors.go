package reset

import (
	"errors"
	"fmt"
	"passreset/internal/core/domain/account"

	"github.com/google/uuid"
)

var (
	ErrTokenNotFound    = errors.New("reset token not found")
	ErrTokenExpired     = errors.New("reset token expired")
	ErrTokenAlreadyUsed = errors.New("reset token already used")
	ErrTokenSuperseded  = errors.New("reset token superseded")

	ErrTokenValueCollision  = errors.New("reset token value already exists")
	ErrLiveTokenExists      = errors.New("account already has a live reset token")
	ErrStorageInconsistency = errors.New("reset token consumed but credential update failed")
)

// IsRejection reports whether err is one of the reasons a presented token
// can be refused.
func IsRejection(err error) bool {
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenAlreadyUsed) ||
		errors.Is(err, ErrTokenSuperseded)
}

type StorageInconsistencyError struct {
	TokenID   uuid.UUID
	AccountID account.ID
	Err       error
}

func (e *StorageInconsistencyError) Error() string {
	return fmt.Sprintf(
		"reset token %s consumed but password of account %d was not updated: %v",
		e.TokenID,
		e.AccountID,
		e.Err,
	)
}

func (e *StorageInconsistencyError) Is(target error) bool {
	return target == ErrStorageInconsistency
}

func (e *StorageInconsistencyError) Unwrap() error {
	return e.Err
}
