package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/card-service/internal/cards"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardRepository provides Postgres-backed card persistence.
type CardRepository struct {
	db *sql.DB
}

// NewCardRepository initializes a new card repository
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = "id, user_id, card_number, last_four_digits, balance, status, expiration_date, created_at, updated_at"

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(&card.ID, &card.UserID, &card.Number, &card.LastFour,
		&card.Balance, &card.Status, &card.ExpirationDate, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// FindByID retrieves a card by id, returning (nil, nil) when absent.
func (r *CardRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM bank.cards WHERE id = $1`, cardColumns)
	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return card, nil
}

// Save upserts a card and applies the persisted timestamps to it.
func (r *CardRepository) Save(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (id, user_id, card_number, last_four_digits, balance, status, expiration_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		card.ID, card.UserID, card.Number, card.LastFour, card.Balance, card.Status, card.ExpirationDate).
		Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// UpdateStatus sets a card's status and stamps updated_at.
func (r *CardRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CardStatus) error {
	query := `UPDATE bank.cards SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	if affected == 0 {
		return cards.ErrCardNotFound
	}
	return nil
}

// Delete removes a card permanently.
func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bank.cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if affected == 0 {
		return cards.ErrCardNotFound
	}
	return nil
}

// FindAllByUser lists a user's cards, newest first.
func (r *CardRepository) FindAllByUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, cardColumns)
	return r.queryCards(ctx, query, userID, page.Size, page.Offset())
}

// FindAllByUserAndStatus lists a user's cards with the given status.
func (r *CardRepository) FindAllByUserAndStatus(ctx context.Context, userID uuid.UUID, status models.CardStatus, page models.Page) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, cardColumns)
	return r.queryCards(ctx, query, userID, status, page.Size, page.Offset())
}

// FindAll lists every card, newest first.
func (r *CardRepository) FindAll(ctx context.Context, page models.Page) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, cardColumns)
	return r.queryCards(ctx, query, page.Size, page.Offset())
}

// FindAllByStatus lists every card with the given status.
func (r *CardRepository) FindAllByStatus(ctx context.Context, status models.CardStatus, page models.Page) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, cardColumns)
	return r.queryCards(ctx, query, status, page.Size, page.Offset())
}

// ExistsByCardNumber reports whether a card with the given encrypted
// number is already stored.
func (r *CardRepository) ExistsByCardNumber(ctx context.Context, encryptedNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bank.cards WHERE card_number = $1)`, encryptedNumber).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card number: %w", err)
	}
	return exists, nil
}

// FindExpiredCandidates returns cards past their expiration date that
// are not yet marked EXPIRED.
func (r *CardRepository) FindExpiredCandidates(ctx context.Context) ([]models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE expiration_date < CURRENT_DATE AND status != $1`, cardColumns)
	return r.queryCards(ctx, query, models.StatusExpired)
}

// MoveBalance atomically debits one card and credits another. Rows are
// locked in id order to avoid deadlocks between concurrent transfers,
// and the source balance is re-checked under the lock.
func (r *CardRepository) MoveBalance(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback()

	firstID, secondID := fromID, toID
	if secondID.String() < firstID.String() {
		firstID, secondID = secondID, firstID
	}

	balances := map[uuid.UUID]decimal.Decimal{}
	for _, id := range []uuid.UUID{firstID, secondID} {
		var balance decimal.Decimal
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM bank.cards WHERE id = $1 FOR UPDATE`, id).
			Scan(&balance)
		if err == sql.ErrNoRows {
			return cards.ErrCardNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock card %s: %w", id, err)
		}
		balances[id] = balance
	}

	if amount.GreaterThan(balances[fromID]) {
		return cards.ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bank.cards SET balance = balance - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		amount, fromID)
	if err != nil {
		return fmt.Errorf("failed to debit card: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE bank.cards SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		amount, toID)
	if err != nil {
		return fmt.Errorf("failed to credit card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

func (r *CardRepository) queryCards(ctx context.Context, query string, args ...any) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var result []models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		result = append(result, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	return result, nil
}
