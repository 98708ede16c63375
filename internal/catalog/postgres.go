package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// DBPool matches the methods of *pgxpool.Pool the store uses, so tests can
// substitute a mock.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres is the production Store backed by the shipping_* tables.
type Postgres struct {
	pool DBPool
}

// NewPostgres creates a store over an existing pool.
func NewPostgres(pool DBPool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the catalog tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// EnabledCarriers returns enabled carrier names in row order.
func (p *Postgres) EnabledCarriers(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT name FROM shipping_services
		WHERE is_enabled AND deleted_at IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing enabled carriers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FindBox resolves a cataloged box by exact dimensions.
func (p *Postgres) FindBox(ctx context.Context, length, width, height float64) (Box, error) {
	var b Box
	row := p.pool.QueryRow(ctx, `
		SELECT uuid::text, length, width, height, max_weight
		FROM shipping_boxes
		WHERE length = $1 AND width = $2 AND height = $3 AND deleted_at IS NULL
		LIMIT 1
	`, length, width, height)
	if err := row.Scan(&b.ID, &b.Length, &b.Width, &b.Height, &b.MaxWeight); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Box{}, ErrBoxNotFound
		}
		return Box{}, err
	}
	return b, nil
}

// PriceFor returns the flat price for a service code and box.
func (p *Postgres) PriceFor(ctx context.Context, serviceCode, boxID string) (decimal.Decimal, error) {
	var text string
	row := p.pool.QueryRow(ctx, `
		SELECT p.price::text
		FROM shipping_option_prices p
		JOIN shipping_options o ON o.id = p.shipping_option_id
		JOIN shipping_boxes b ON b.id = p.shipping_box_id
		WHERE o.code = $1 AND b.uuid::text = $2
		  AND p.price IS NOT NULL AND p.deleted_at IS NULL
		LIMIT 1
	`, serviceCode, boxID)
	if err := row.Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, ErrPriceNotFound
		}
		return decimal.Decimal{}, err
	}

	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing catalog price %q: %w", text, err)
	}
	return price, nil
}
