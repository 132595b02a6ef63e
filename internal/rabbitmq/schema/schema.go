package schema

import (
	"encoding/json"
	"fmt"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	"passreset/internal/core/domain/reset"
	"time"

	"github.com/google/uuid"
)

// ResetLinkRequested carries the reset URL, so the queue holds live secrets
// until the link expires or gets delivered.
type ResetLinkRequested struct {
	TokenID     uuid.UUID `json:"token_id"`
	AccountID   int64     `json:"account_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	ResetURL    string    `json:"reset_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewResetLinkRequested(r reset.DeliveryRequest) ResetLinkRequested {
	return ResetLinkRequested{
		TokenID:     r.TokenID,
		AccountID:   int64(r.AccountID),
		Email:       string(r.Email),
		DisplayName: r.DisplayName,
		ResetURL:    r.ResetURL,
		ExpiresAt:   r.ExpiresAt,
	}
}

func (m *ResetLinkRequested) DeliveryRequest() reset.DeliveryRequest {
	return reset.DeliveryRequest{
		TokenID:     m.TokenID,
		AccountID:   account.ID(m.AccountID),
		Email:       c.Email(m.Email),
		DisplayName: m.DisplayName,
		ResetURL:    m.ResetURL,
		ExpiresAt:   m.ExpiresAt,
	}
}

func (m *ResetLinkRequested) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ResetLinkRequested) Unmarshal(data []byte) error {
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	if m.Email == "" || m.ResetURL == "" {
		return fmt.Errorf("reset link message %s is incomplete", m.TokenID)
	}
	return nil
}
