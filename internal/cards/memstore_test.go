package cards

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory CardStore for tests.
type memStore struct {
	mu    sync.Mutex
	cards map[uuid.UUID]models.Card

	// updateStatusErr, when set for an id, is returned by UpdateStatus
	// to simulate a store conflict.
	updateStatusErr map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		cards:           make(map[uuid.UUID]models.Card),
		updateStatusErr: make(map[uuid.UUID]error),
	}
}

func (m *memStore) put(card models.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
}

func (m *memStore) get(id uuid.UUID) models.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[id]
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.cards[id]
	if !ok {
		return nil, nil
	}
	return &card, nil
}

func (m *memStore) Save(_ context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if existing, ok := m.cards[card.ID]; ok {
		card.CreatedAt = existing.CreatedAt
	} else if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	m.cards[card.ID] = *card
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.CardStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.updateStatusErr[id]; ok {
		return err
	}
	card, ok := m.cards[id]
	if !ok {
		return ErrCardNotFound
	}
	card.Status = status
	card.UpdatedAt = time.Now()
	m.cards[id] = card
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[id]; !ok {
		return ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

func (m *memStore) FindAllByUser(_ context.Context, userID uuid.UUID, page models.Page) ([]models.Card, error) {
	return m.list(page, func(c models.Card) bool { return c.UserID == userID }), nil
}

func (m *memStore) FindAllByUserAndStatus(_ context.Context, userID uuid.UUID, status models.CardStatus, page models.Page) ([]models.Card, error) {
	return m.list(page, func(c models.Card) bool { return c.UserID == userID && c.Status == status }), nil
}

func (m *memStore) FindAll(_ context.Context, page models.Page) ([]models.Card, error) {
	return m.list(page, func(models.Card) bool { return true }), nil
}

func (m *memStore) FindAllByStatus(_ context.Context, status models.CardStatus, page models.Page) ([]models.Card, error) {
	return m.list(page, func(c models.Card) bool { return c.Status == status }), nil
}

func (m *memStore) ExistsByCardNumber(_ context.Context, encryptedNumber string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.Number == encryptedNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindExpiredCandidates(_ context.Context) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Card
	for _, c := range m.cards {
		if c.Status != models.StatusExpired && c.Expired(time.Now()) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) MoveBalance(_ context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.cards[fromID]
	if !ok {
		return ErrCardNotFound
	}
	to, ok := m.cards[toID]
	if !ok {
		return ErrCardNotFound
	}
	if amount.GreaterThan(from.Balance) {
		return ErrInsufficientFunds
	}
	now := time.Now()
	from.Balance = from.Balance.Sub(amount)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(amount)
	to.UpdatedAt = now
	m.cards[fromID] = from
	m.cards[toID] = to
	return nil
}

func (m *memStore) list(page models.Page, keep func(models.Card) bool) []models.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Card
	for _, c := range m.cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	start := page.Offset()
	if start > len(out) {
		return nil
	}
	end := start + page.Size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end]
}

// memUsers is an in-memory UserStore for tests.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{users: make(map[uuid.UUID]models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}
