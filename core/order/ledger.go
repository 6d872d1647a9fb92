package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/irsalhamdi/members-portal/database"
	"github.com/jmoiron/sqlx"
)

type PostgresLedger struct {
	db *sqlx.DB
}

func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Create(ctx context.Context, p Purchase) error {
	const q = `
	INSERT INTO purchases
		(purchase_id, user_id, provider, provider_id, amount, status, created_at, updated_at)
	VALUES
		(:purchase_id, :user_id, :provider, :provider_id, :amount, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, l.db, q, p); err != nil {
		return fmt.Errorf("inserting purchase: %w", err)
	}
	return nil
}

func (l *PostgresLedger) MarkPaid(ctx context.Context, providerID string, at time.Time) (Purchase, error) {
	const sel = `
	SELECT *
	FROM purchases
	WHERE provider_id = $1
	FOR UPDATE`

	const up = `
	UPDATE purchases
	SET status = $1, updated_at = $2
	WHERE purchase_id = $3`

	var p Purchase
	err := database.Transaction(l.db, func(tx sqlx.ExtContext) error {
		if err := sqlx.GetContext(ctx, tx, &p, sel, providerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if p.Status == Paid {
			return nil
		}

		if _, err := tx.ExecContext(ctx, up, Paid, at, p.ID); err != nil {
			return err
		}
		p.Status = Paid
		p.UpdatedAt = at
		return nil
	})
	if err != nil {
		return Purchase{}, fmt.Errorf("marking payment[%s] paid: %w", providerID, err)
	}
	return p, nil
}

func (l *PostgresLedger) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	const q = `
	SELECT *
	FROM purchases
	WHERE user_id = $1
	ORDER BY created_at DESC`

	ps := []Purchase{}
	if err := l.db.SelectContext(ctx, &ps, q, userID); err != nil {
		return nil, fmt.Errorf("selecting purchases of user[%s]: %w", userID, err)
	}
	return ps, nil
}

// MemoryLedger keeps purchases in process memory.
type MemoryLedger struct {
	mu        sync.Mutex
	purchases map[string]Purchase
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{purchases: make(map[string]Purchase)}
}

func (l *MemoryLedger) Create(ctx context.Context, p Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.purchases[p.ProviderID]; ok {
		return fmt.Errorf("payment[%s] already recorded", p.ProviderID)
	}
	l.purchases[p.ProviderID] = p
	return nil
}

func (l *MemoryLedger) MarkPaid(ctx context.Context, providerID string, at time.Time) (Purchase, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.purchases[providerID]
	if !ok {
		return Purchase{}, fmt.Errorf("marking payment[%s] paid: %w", providerID, ErrNotFound)
	}
	if p.Status != Paid {
		p.Status = Paid
		p.UpdatedAt = at
		l.purchases[providerID] = p
	}
	return p, nil
}

func (l *MemoryLedger) ListByUser(ctx context.Context, userID string) ([]Purchase, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ps := []Purchase{}
	for _, p := range l.purchases {
		if p.UserID == userID {
			ps = append(ps, p)
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	return ps, nil
}
