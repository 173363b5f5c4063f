package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kindred-recs/kindred/pkg/types"
)

// PostgresConfig holds connection settings for the commerce database.
type PostgresConfig struct {
	// DSN is a full connection string. When set it takes precedence
	// over the individual fields below.
	DSN string

	Host     string
	Port     int
	Database string
	User     string
	Password string

	// MaxConns bounds the connection pool. 0 uses the pgx default.
	MaxConns int32
}

// ConnString returns the effective connection string.
func (c PostgresConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// Postgres implements Store against the platform's Postgres schema
// (public.products, public.user_events, public.product_popularity_30d).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pooled Postgres store and verifies the
// connection with a ping.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// ListProducts returns the full catalog ordered by ascending id.
func (s *Postgres) ListProducts(ctx context.Context) ([]types.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), COALESCE(price, 0)
		  FROM public.products
		 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		var p types.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// SumInteractionWeights aggregates event weights for the identity,
// strongest signal first. Anonymous identities query session-scoped
// events instead of user-scoped ones.
func (s *Postgres) SumInteractionWeights(ctx context.Context, id types.Identity, limit int) ([]types.ProductWeight, error) {
	column := "user_id"
	if id.Anonymous {
		column = "session_id"
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT product_id, SUM(weight)
		  FROM public.user_events
		 WHERE %s = $1
		 GROUP BY product_id
		 ORDER BY SUM(weight) DESC
		 LIMIT $2`, column), id.Value, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sum interaction weights: %w", err)
	}
	defer rows.Close()

	var weights []types.ProductWeight
	for rows.Next() {
		var w types.ProductWeight
		if err := rows.Scan(&w.ProductID, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan interaction weight: %w", err)
		}
		weights = append(weights, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interaction weights: %w", err)
	}
	return weights, nil
}

// TopPopular joins the catalog against the 30-day popularity aggregate,
// defaulting missing scores to zero.
func (s *Postgres) TopPopular(ctx context.Context, limit int) ([]types.PopularProduct, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, COALESCE(p.price, 0), COALESCE(pop.score, 0)
		  FROM public.products p
		  LEFT JOIN public.product_popularity_30d pop ON pop.product_id = p.id
		 ORDER BY pop.score DESC NULLS LAST, p.id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popularity: %w", err)
	}
	defer rows.Close()

	var popular []types.PopularProduct
	for rows.Next() {
		var p types.PopularProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan popularity row: %w", err)
		}
		popular = append(popular, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read popularity rows: %w", err)
	}
	return popular, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}
