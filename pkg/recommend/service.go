// Package recommend orchestrates the recommendation pipeline: snapshot
// check, profile aggregation, then similarity ranking or the popularity
// fallback.
package recommend

import (
	"context"

	"github.com/kindred-recs/kindred/pkg/catalog"
	"github.com/kindred-recs/kindred/pkg/metrics"
	"github.com/kindred-recs/kindred/pkg/profile"
	"github.com/kindred-recs/kindred/pkg/rank"
	"github.com/kindred-recs/kindred/pkg/store"
	"github.com/kindred-recs/kindred/pkg/telemetry"
	"github.com/kindred-recs/kindred/pkg/textvec"
	"github.com/kindred-recs/kindred/pkg/types"
)

// Path identifies which pipeline branch produced a response.
type Path string

const (
	// PathRanked means the response came from profile similarity
	// ranking.
	PathRanked Path = "ranked"

	// PathFallback means the identity had no usable profile and the
	// response is the popularity ranking.
	PathFallback Path = "fallback"
)

// Response is the service-level recommendation result. Ranked entries
// carry (id, name, score); fallback entries additionally carry price.
type Response struct {
	Recommendations []types.Recommendation `json:"recommendations"`

	// Path is not part of the wire contract; it feeds metrics and
	// tracing.
	Path Path `json:"-"`
}

// Config holds service tuning knobs.
type Config struct {
	// DefaultK is used when the caller does not specify k.
	DefaultK int

	// HistoryLimit caps the interaction history per profile.
	HistoryLimit int

	// Vectorizer controls the catalog vector-space fit.
	Vectorizer textvec.Options
}

// DefaultServiceConfig returns the production defaults.
func DefaultServiceConfig() Config {
	return Config{
		DefaultK:     rank.DefaultK,
		HistoryLimit: profile.DefaultHistoryLimit,
		Vectorizer:   textvec.DefaultOptions(),
	}
}

// Service wires the pipeline together. It owns the snapshot builder and
// holds no other cross-request state; profiles are recomputed on every
// request.
type Service struct {
	catalog  *catalog.Builder
	profiles *profile.Aggregator
	ranker   rank.Similarity
	fallback *rank.Popularity
	defaultK int

	// Metrics and Tracer are optional; nil disables instrumentation.
	Metrics *metrics.Metrics
	Tracer  *telemetry.Provider
}

// NewService creates a Service over the store.
func NewService(st store.Store, cfg Config) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = rank.DefaultK
	}
	aggregator := profile.NewAggregator(st)
	aggregator.HistoryLimit = cfg.HistoryLimit

	return &Service{
		catalog:  catalog.NewBuilder(st, cfg.Vectorizer),
		profiles: aggregator,
		fallback: rank.NewPopularity(st),
		defaultK: cfg.DefaultK,
	}
}

// Catalog exposes the snapshot builder for warm-up, refresh, and health
// reporting.
func (s *Service) Catalog() *catalog.Builder {
	return s.catalog
}

// Recommend returns up to k recommendations for the raw identity
// (a user id, or a session id carrying the "anon:" prefix). k values
// of zero or below use the configured default.
//
// Store failures at any stage propagate unmodified; no partial response
// is ever synthesized.
func (s *Service) Recommend(ctx context.Context, rawIdentity string, k int) (*Response, error) {
	if k <= 0 {
		k = s.defaultK
	}
	identity := types.ParseIdentity(rawIdentity)

	snap, ok := s.catalog.Current()
	if !ok {
		var err error
		ctx, span := s.Tracer.StartSnapshotLoad(ctx)
		snap, err = s.catalog.Ensure(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			span.End()
			return nil, err
		}
		span.End()
	}

	ctx, span := s.Tracer.StartProfile(ctx, identity.Anonymous)
	vec, err := s.profiles.Build(ctx, identity, snap)
	if err != nil {
		telemetry.RecordError(span, err)
		span.End()
		return nil, err
	}
	span.End()

	if vec == nil {
		ctx, span := s.Tracer.StartFallback(ctx, k)
		recs, err := s.fallback.Top(ctx, k)
		if err != nil {
			telemetry.RecordError(span, err)
			span.End()
			return nil, err
		}
		span.End()
		return s.respond(PathFallback, recs), nil
	}

	_, span = s.Tracer.StartRank(ctx, snap.Len(), k)
	recs := s.ranker.Rank(snap, vec, k)
	span.End()
	return s.respond(PathRanked, recs), nil
}

func (s *Service) respond(path Path, recs []types.Recommendation) *Response {
	if recs == nil {
		recs = []types.Recommendation{}
	}
	if s.Metrics != nil {
		s.Metrics.RecordRecommendation(string(path), len(recs))
	}
	return &Response{Recommendations: recs, Path: path}
}
