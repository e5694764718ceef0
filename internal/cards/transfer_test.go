package cards

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferFixture struct {
	store *memStore
	users *memUsers
	svc   *TransferService
	owner uuid.UUID
	from  models.Card
	to    models.Card
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()
	owner := uuid.New()
	store := newMemStore()
	users := newMemUsers(models.User{ID: owner, Username: "alice", Email: "alice@example.com"})
	log := testLogger()
	rules := NewRules(store, log)
	svc := NewTransferService(store, users, rules, log)

	from := newTestCard(owner, models.StatusActive, 500)
	to := newTestCard(owner, models.StatusActive, 0)
	store.put(from)
	store.put(to)

	return &transferFixture{store: store, users: users, svc: svc, owner: owner, from: from, to: to}
}

func (f *transferFixture) balances() (decimal.Decimal, decimal.Decimal) {
	return f.store.get(f.from.ID).Balance, f.store.get(f.to.ID).Balance
}

func TestTransferSuccess(t *testing.T) {
	f := newTransferFixture(t)

	err := f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.to.ID, decimal.NewFromInt(200))
	require.NoError(t, err)

	fromBalance, toBalance := f.balances()
	assert.True(t, fromBalance.Equal(decimal.NewFromInt(300)), "from balance = %s", fromBalance)
	assert.True(t, toBalance.Equal(decimal.NewFromInt(200)), "to balance = %s", toBalance)
}

func TestTransferConservation(t *testing.T) {
	f := newTransferFixture(t)
	before := f.from.Balance.Add(f.to.Balance)

	require.NoError(t, f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.to.ID, decimal.NewFromInt(123)))

	fromBalance, toBalance := f.balances()
	assert.True(t, before.Equal(fromBalance.Add(toBalance)))
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newTransferFixture(t)

	err := f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.to.ID, decimal.NewFromInt(600))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	fromBalance, toBalance := f.balances()
	assert.True(t, fromBalance.Equal(decimal.NewFromInt(500)), "balances must be unchanged")
	assert.True(t, toBalance.Equal(decimal.Zero), "balances must be unchanged")
}

func TestTransferSameCard(t *testing.T) {
	f := newTransferFixture(t)

	err := f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.from.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardsAreTheSame)

	fromBalance, _ := f.balances()
	assert.True(t, fromBalance.Equal(decimal.NewFromInt(500)))
}

func TestTransferRejectsBadAmounts(t *testing.T) {
	f := newTransferFixture(t)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		err := f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.to.ID, amount)
		assert.ErrorIs(t, err, ErrIncorrectAmount)
	}
}

func TestTransferUnknownUser(t *testing.T) {
	f := newTransferFixture(t)

	err := f.svc.Transfer(context.Background(), uuid.New(), f.from.ID, f.to.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTransferCardNotFound(t *testing.T) {
	f := newTransferFixture(t)

	err := f.svc.Transfer(context.Background(), f.owner, uuid.New(), f.to.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardNotFound)

	err = f.svc.Transfer(context.Background(), f.owner, f.from.ID, uuid.New(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestTransferRequiresOwnershipOfBothCards(t *testing.T) {
	f := newTransferFixture(t)
	stranger := newTestCard(uuid.New(), models.StatusActive, 100)
	f.store.put(stranger)

	err := f.svc.Transfer(context.Background(), f.owner, stranger.ID, f.to.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = f.svc.Transfer(context.Background(), f.owner, f.from.ID, stranger.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrAccessDenied)

	fromBalance, toBalance := f.balances()
	assert.True(t, fromBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, toBalance.Equal(decimal.Zero))
}

func TestTransferRejectsInactiveCards(t *testing.T) {
	f := newTransferFixture(t)

	blocked := newTestCard(f.owner, models.StatusBlocked, 100)
	f.store.put(blocked)
	err := f.svc.Transfer(context.Background(), f.owner, blocked.ID, f.to.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardBlocked)

	expired := newTestCard(f.owner, models.StatusExpired, 100)
	f.store.put(expired)
	err = f.svc.Transfer(context.Background(), f.owner, f.from.ID, expired.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardExpired)
}

func TestTransferHealsOverdueCard(t *testing.T) {
	f := newTransferFixture(t)
	overdue := newTestCard(f.owner, models.StatusActive, 100)
	overdue.ExpirationDate = time.Now().AddDate(0, 0, -1)
	f.store.put(overdue)

	err := f.svc.Transfer(context.Background(), f.owner, overdue.ID, f.to.ID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrCardExpired)
	assert.Equal(t, models.StatusExpired, f.store.get(overdue.ID).Status)

	// The healed status is not undone by the failed transfer.
	_, toBalance := f.balances()
	assert.True(t, toBalance.Equal(decimal.Zero))
}

// Concurrent transfers over the same pair of cards must conserve the
// total and never drive a balance negative.
func TestTransferConcurrentConservation(t *testing.T) {
	f := newTransferFixture(t)
	total := f.from.Balance.Add(f.to.Balance)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = f.svc.Transfer(context.Background(), f.owner, f.from.ID, f.to.ID, decimal.NewFromInt(20))
			} else {
				_ = f.svc.Transfer(context.Background(), f.owner, f.to.ID, f.from.ID, decimal.NewFromInt(20))
			}
		}(i)
	}
	wg.Wait()

	fromBalance, toBalance := f.balances()
	assert.True(t, total.Equal(fromBalance.Add(toBalance)), "total changed: %s + %s", fromBalance, toBalance)
	assert.False(t, fromBalance.IsNegative())
	assert.False(t, toBalance.IsNegative())
}
