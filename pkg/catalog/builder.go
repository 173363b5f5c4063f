package catalog

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/textvec"
)

// Builder loads the catalog and publishes snapshots. The current snapshot
// is held behind an atomic pointer: concurrent readers always observe
// either the fully-old or fully-new snapshot, never a mix.
type Builder struct {
	store store.ProductStore
	opts  textvec.Options

	current atomic.Pointer[Snapshot]

	// refreshMu single-flights rebuilds so concurrent cold-start
	// requests trigger one store load, not one each.
	refreshMu sync.Mutex

	// OnBuild, when set, is invoked after each successful rebuild with
	// the published snapshot and the build duration.
	OnBuild func(snap *Snapshot, took time.Duration)
}

// NewBuilder creates a Builder over the product store.
func NewBuilder(s store.ProductStore, opts textvec.Options) *Builder {
	return &Builder{store: s, opts: opts}
}

// Current returns the latest published snapshot, if any.
func (b *Builder) Current() (*Snapshot, bool) {
	snap := b.current.Load()
	return snap, snap != nil
}

// Ensure returns the current snapshot, building one synchronously if none
// has been published yet. The first caller after cold start pays the full
// load latency; everyone queued behind it reuses the result.
func (b *Builder) Ensure(ctx context.Context) (*Snapshot, error) {
	if snap := b.current.Load(); snap != nil {
		return snap, nil
	}

	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()
	if snap := b.current.Load(); snap != nil {
		return snap, nil
	}
	return b.rebuild(ctx)
}

// Refresh rebuilds the snapshot from the store and atomically replaces
// the published one. On failure the previous snapshot stays in place.
func (b *Builder) Refresh(ctx context.Context) (*Snapshot, error) {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()
	return b.rebuild(ctx)
}

func (b *Builder) rebuild(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	products, err := b.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	corpus := make([]string, len(products))
	for i, p := range products {
		corpus[i] = p.Text()
	}

	model := textvec.Fit(corpus, b.opts)

	matrix := make([]textvec.Vector, len(products))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range corpus {
		g.Go(func() error {
			matrix[i] = model.Transform(corpus[i])
			return nil
		})
	}
	_ = g.Wait() // Transform cannot fail

	rowByID := make(map[int64]int, len(products))
	for i, p := range products {
		rowByID[p.ID] = i
	}

	snap := &Snapshot{
		Products: products,
		Model:    model,
		Matrix:   matrix,
		BuiltAt:  time.Now(),
		rowByID:  rowByID,
	}
	b.current.Store(snap)

	if b.OnBuild != nil {
		b.OnBuild(snap, time.Since(start))
	}
	return snap, nil
}
