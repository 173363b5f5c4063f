package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/kindred-recs/kindred/pkg/config"
	"github.com/kindred-recs/kindred/pkg/recommend"
	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/textvec"
	"github.com/kindred-recs/kindred/pkg/types"
)

// loadConfig resolves the effective configuration from viper (config
// file, environment, bound flags).
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore builds the configured store. The returned closer releases
// connection pools; it is never nil.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, io.Closer, error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), nopCloser{}, nil
	case "postgres", "":
		pg, err := store.NewPostgres(ctx, store.PostgresConfig{
			DSN:      cfg.Store.Postgres.DSN,
			Host:     cfg.Store.Postgres.Host,
			Port:     cfg.Store.Postgres.Port,
			Database: cfg.Store.Postgres.Database,
			User:     cfg.Store.Postgres.User,
			Password: cfg.Store.Postgres.Password,
			MaxConns: cfg.Store.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return pg, closerFunc(func() error { pg.Close(); return nil }), nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
}

// buildService assembles the recommendation service over the configured
// store, optionally routing the popularity fallback through Redis.
func buildService(ctx context.Context, cfg *config.Config) (*recommend.Service, io.Closer, error) {
	st, closer, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svcCfg := recommend.Config{
		DefaultK:     cfg.Recs.DefaultK,
		HistoryLimit: cfg.Recs.HistoryLimit,
		Vectorizer: textvec.Options{
			MaxFeatures: cfg.Recs.MaxFeatures,
			NGramMin:    1,
			NGramMax:    cfg.Recs.NGramMax,
		},
	}

	if cfg.Store.PopularityBackend == "redis" {
		rcfg := store.DefaultRedisConfig()
		rcfg.Addr = cfg.Store.Redis.Addr
		rcfg.Password = cfg.Store.Redis.Password
		rcfg.DB = cfg.Store.Redis.DB
		rcfg.PopularityKey = cfg.Store.Redis.PopularityKey
		rcfg.ProductKeyPrefix = cfg.Store.Redis.ProductKeyPrefix

		popularity, err := store.NewRedisPopularity(ctx, rcfg)
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}

		svc := recommend.NewService(splitStore{Store: st, popularity: popularity}, svcCfg)
		return svc, closerFunc(func() error {
			err := popularity.Close()
			_ = closer.Close()
			return err
		}), nil
	}

	return recommend.NewService(st, svcCfg), closer, nil
}

// splitStore routes popularity reads to a dedicated backend while the
// catalog and events stay on the main store.
type splitStore struct {
	store.Store
	popularity store.PopularityStore
}

func (s splitStore) TopPopular(ctx context.Context, limit int) ([]types.PopularProduct, error) {
	return s.popularity.TopPopular(ctx, limit)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
