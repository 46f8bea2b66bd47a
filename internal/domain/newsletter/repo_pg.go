package newsletter

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kidsgourmet/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, email, status, confirm_token, subscribed_at, confirmed_at, unsubscribed_at`

func (r *repoPG) scan(row pgx.Row) (*Subscriber, error) {
	var s Subscriber
	err := row.Scan(&s.ID, &s.Email, &s.Status, &s.ConfirmToken, &s.SubscribedAt, &s.ConfirmedAt, &s.UnsubscribedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Subscriber) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO kg_newsletter_subscribers (id, email, status, confirm_token)
		VALUES ($1,$2,$3,$4)`,
		s.ID, s.Email, s.Status, s.ConfirmToken)
	return err
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM kg_newsletter_subscribers WHERE email = $1`, email))
}

func (r *repoPG) GetByToken(ctx context.Context, token string) (*Subscriber, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM kg_newsletter_subscribers WHERE confirm_token = $1`, token))
}

func (r *repoPG) Update(ctx context.Context, s *Subscriber) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE kg_newsletter_subscribers
		SET status=$2, confirm_token=$3, confirmed_at=$4, unsubscribed_at=$5
		WHERE id = $1`,
		s.ID, s.Status, s.ConfirmToken, s.ConfirmedAt, s.UnsubscribedAt)
	return err
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT status, COUNT(*) FROM kg_newsletter_subscribers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, nil
}
