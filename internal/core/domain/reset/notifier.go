package reset

import (
	"context"
	"fmt"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	"time"

	"github.com/google/uuid"
)

type DeliveryRequest struct {
	TokenID     uuid.UUID
	AccountID   account.ID
	Email       c.Email
	DisplayName string
	ResetURL    string
	ExpiresAt   time.Time
}

// String hides the reset URL, which embeds the token value.
func (r DeliveryRequest) String() string {
	return fmt.Sprintf(
		"DeliveryRequest{TokenID: %s, AccountID: %d, Email: %s, ExpiresAt: %s}",
		r.TokenID,
		r.AccountID,
		r.Email,
		r.ExpiresAt.Format(time.RFC3339),
	)
}

// Notifier hands a delivery request off, either by sending it right away or
// by queueing it.
type Notifier interface {
	Notify(ctx context.Context, request DeliveryRequest) error
}

// LinkSender puts the reset link in front of the account holder.
type LinkSender interface {
	SendResetLink(ctx context.Context, request DeliveryRequest) error
}
