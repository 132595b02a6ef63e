package reset

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	"sync"
	"time"

	"github.com/google/uuid"
)

type FakeTokenRepository struct {
	Tokens              []ResetToken
	CreateReturnsError  bool
	ConsumeReturnsError bool
	lock                sync.Mutex
}

func NewFakeTokenRepository() *FakeTokenRepository {
	return &FakeTokenRepository{Tokens: make([]ResetToken, 0, 10)}
}

func (r *FakeTokenRepository) Create(ctx context.Context, input CreateTokenInput) (t ResetToken, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.CreateReturnsError {
		return t, fmt.Errorf("could not create reset token for account %d", input.AccountID)
	}
	hash := input.Value.Hash()
	for _, existing := range r.Tokens {
		if existing.Hash.Equal(hash) {
			return t, ErrTokenValueCollision
		}
		if existing.AccountID == input.AccountID && existing.IsLive() {
			return t, ErrLiveTokenExists
		}
	}
	t = ResetToken{
		ID:        uuid.New(),
		Hash:      hash,
		AccountID: input.AccountID,
		IssuedAt:  input.IssuedAt,
		ExpiresAt: input.ExpiresAt,
	}
	r.Tokens = append(r.Tokens, t)
	t.Value = input.Value
	return t, nil
}

func (r *FakeTokenRepository) GetByValue(ctx context.Context, value TokenValue) (t ResetToken, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	ix, ok := r.find(value.Hash())
	if !ok {
		return t, ErrTokenNotFound
	}
	return r.Tokens[ix], nil
}

func (r *FakeTokenRepository) ConsumeIfValid(ctx context.Context, value TokenValue, now time.Time) (t ResetToken, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ConsumeReturnsError {
		return t, fmt.Errorf("could not consume reset token")
	}
	ix, ok := r.find(value.Hash())
	if !ok {
		return t, ErrTokenNotFound
	}
	if err := r.Tokens[ix].Check(now); err != nil {
		return t, err
	}
	r.Tokens[ix].ConsumedAt = c.NewOptional(now, true)
	return r.Tokens[ix], nil
}

func (r *FakeTokenRepository) SupersedeLive(ctx context.Context, accountID account.ID, now time.Time) (int, error) {
	ids, err := r.SupersedeLiveIDs(ctx, accountID, now)
	return len(ids), err
}

// SupersedeLiveIDs is SupersedeLive reporting which tokens it marked.
func (r *FakeTokenRepository) SupersedeLiveIDs(
	ctx context.Context,
	accountID account.ID,
	now time.Time,
) ([]uuid.UUID, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	ids := make([]uuid.UUID, 0, 1)
	for ix, t := range r.Tokens {
		if t.AccountID == accountID && t.IsLive() {
			r.Tokens[ix].SupersededAt = c.NewOptional(now, true)
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (r *FakeTokenRepository) CountLive(ctx context.Context, accountID account.ID) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	count := 0
	for _, t := range r.Tokens {
		if t.AccountID == accountID && t.IsLive() {
			count++
		}
	}
	return count, nil
}

func (r *FakeTokenRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	kept := make([]ResetToken, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		isStale := t.ExpiresAt.Before(before) || (!t.IsLive() && t.IssuedAt.Before(before))
		if !isStale {
			kept = append(kept, t)
		}
	}
	deleted := int64(len(r.Tokens) - len(kept))
	r.Tokens = kept
	return deleted, nil
}

// Revert drops the created tokens and clears the supersede mark of the
// superseded ones. Any other change, such as a consume, stays.
func (r *FakeTokenRepository) Revert(created []uuid.UUID, superseded []uuid.UUID) {
	r.lock.Lock()
	defer r.lock.Unlock()

	isCreated := make(map[uuid.UUID]bool, len(created))
	for _, id := range created {
		isCreated[id] = true
	}
	isSuperseded := make(map[uuid.UUID]bool, len(superseded))
	for _, id := range superseded {
		isSuperseded[id] = true
	}

	kept := make([]ResetToken, 0, len(r.Tokens))
	for _, t := range r.Tokens {
		if isCreated[t.ID] {
			continue
		}
		if isSuperseded[t.ID] {
			t.SupersededAt = c.Optional[time.Time]{}
		}
		kept = append(kept, t)
	}
	r.Tokens = kept
}

func (r *FakeTokenRepository) find(hash TokenHash) (int, bool) {
	found := -1
	for ix, t := range r.Tokens {
		if t.Hash.Equal(hash) {
			found = ix
		}
	}
	return found, found >= 0
}

// FakeRandomSource yields the queued chunks first and then a deterministic
// stream derived from a counter.
type FakeRandomSource struct {
	Chunks  [][]byte
	counter uint64
	lock    sync.Mutex
}

func NewFakeRandomSource(chunks ...[]byte) *FakeRandomSource {
	return &FakeRandomSource{Chunks: chunks}
}

func (s *FakeRandomSource) Read(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.Chunks) > 0 {
		chunk := s.Chunks[0]
		s.Chunks = s.Chunks[1:]
		return copy(p, chunk), nil
	}
	n := 0
	for n < len(p) {
		s.counter++
		var seed [8]byte
		binary.BigEndian.PutUint64(seed[:], s.counter)
		block := sha256.Sum256(seed[:])
		n += copy(p[n:], block[:])
	}
	return n, nil
}

type FakeNotifier struct {
	Sent        []DeliveryRequest
	ReturnError bool
	lock        sync.Mutex
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (n *FakeNotifier) Notify(ctx context.Context, request DeliveryRequest) error {
	if n.ReturnError {
		return fmt.Errorf("could not deliver %v", request)
	}
	n.lock.Lock()
	defer n.lock.Unlock()
	n.Sent = append(n.Sent, request)
	return nil
}

func (n *FakeNotifier) SendResetLink(ctx context.Context, request DeliveryRequest) error {
	return n.Notify(ctx, request)
}

func (n *FakeNotifier) SentCount() int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return len(n.Sent)
}

func (n *FakeNotifier) LastSent() DeliveryRequest {
	n.lock.Lock()
	defer n.lock.Unlock()
	l := len(n.Sent)
	if l == 0 {
		panic("Sent count is 0.")
	}
	return n.Sent[l-1]
}
