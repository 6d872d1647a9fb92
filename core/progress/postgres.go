package progress

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (p *PostgresRepository) CompletedSlides(ctx context.Context, userID string) ([]string, error) {
	const q = `
	SELECT slide_id
	FROM slide_completions
	WHERE user_id = $1
	ORDER BY slide_id`

	ids := []string{}
	if err := p.db.SelectContext(ctx, &ids, q, userID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *PostgresRepository) AddSlide(ctx context.Context, userID, slideID string, at time.Time) error {
	const q = `
	INSERT INTO slide_completions (user_id, slide_id, completed_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, slide_id) DO NOTHING`

	_, err := p.db.ExecContext(ctx, q, userID, slideID, at)
	return err
}

func (p *PostgresRepository) DayCompletions(ctx context.Context, userID string) ([]DayCompletion, error) {
	const q = `
	SELECT day, completed_at
	FROM day_completions
	WHERE user_id = $1
	ORDER BY day`

	days := []DayCompletion{}
	if err := p.db.SelectContext(ctx, &days, q, userID); err != nil {
		return nil, err
	}
	return days, nil
}

func (p *PostgresRepository) AddDay(ctx context.Context, userID string, day int, at time.Time) error {
	const q = `
	INSERT INTO day_completions (user_id, day, completed_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, day) DO NOTHING`

	_, err := p.db.ExecContext(ctx, q, userID, day, at)
	return err
}
