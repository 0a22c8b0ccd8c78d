// Package service wires the pipeline components for batch runs: ingestion
// of collector payloads into assumptions, and projection of player-games
// against the active assumptions.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/adapters/mq/queue"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/adapters/mq/worker"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/adapters/repository"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/assumption"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/dedupe"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/normalize"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/projection"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/resolve"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/signal"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/types"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Service runs the pipeline over one store. Runs may overlap: the dedupe
// windows and per-player assumption locks are shared.
type Service struct {
	store repository.Store

	normalizer *normalize.Normalizer
	parser     *signal.Parser
	roster     *resolve.RosterCache
	resolver   *resolve.Resolver
	filter     *dedupe.Filter
	engine     *assumption.Engine
	projector  *projection.Engine

	// Configuration
	workerCount     int
	queueSize       int
	aliases         *resolve.AliasTable
	resolverOpts    []resolve.Option
	engineOpts      []assumption.Option
	projectionOpts  []projection.Option
	normalizerOpts  []normalize.Option
	parserOpts      []signal.Option
	closers         []func() error
	ingestRuns      atomic.Int64
	projectionRuns  atomic.Int64
	lastIngestStats atomic.Pointer[types.RunStats]

	closeOnce sync.Once
	logger    logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of pipeline workers per ingest run.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the per-run job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFilter sets the dedupe windows.
func WithFilter(f *dedupe.Filter) Option {
	return func(s *Service) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithAliases sets the nickname table used by the resolver.
func WithAliases(t *resolve.AliasTable) Option {
	return func(s *Service) {
		if t != nil {
			s.aliases = t
		}
	}
}

// WithNormalizerOptions passes options to the source normalizer.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(s *Service) { s.normalizerOpts = append(s.normalizerOpts, opts...) }
}

// WithParserOptions passes options to the signal parser.
func WithParserOptions(opts ...signal.Option) Option {
	return func(s *Service) { s.parserOpts = append(s.parserOpts, opts...) }
}

// WithResolverOptions passes options to the entity resolver.
func WithResolverOptions(opts ...resolve.Option) Option {
	return func(s *Service) { s.resolverOpts = append(s.resolverOpts, opts...) }
}

// WithEngineOptions passes options to the assumption engine.
func WithEngineOptions(opts ...assumption.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithProjectionOptions passes options to the projection engine.
func WithProjectionOptions(opts ...projection.Option) Option {
	return func(s *Service) { s.projectionOpts = append(s.projectionOpts, opts...) }
}

// WithCloser registers a function run by Close, after the store closes.
func WithCloser(fn func() error) Option {
	return func(s *Service) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service writing to store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.normalizer = normalize.New(s.normalizerOpts...)
	s.parser = signal.New(s.parserOpts...)
	s.roster = resolve.NewRosterCache()
	s.resolver = resolve.New(s.roster, s.aliases, s.resolverOpts...)
	if s.filter == nil {
		s.filter = dedupe.NewFilter(nil, nil)
	}
	s.engine = assumption.New(store, s.engineOpts...)
	s.projector = projection.New(s.projectionOpts...)
	return s
}

// RefreshRoster replaces the active roster and returns its size. Runs
// already in flight keep the snapshot they started with.
func (s *Service) RefreshRoster(ctx context.Context, players []model.Player) int {
	n := s.roster.Refresh(players)
	s.logger.Info(ctx, "roster refreshed",
		logger.Int("players", n),
		logger.Int("dropped", len(players)-n),
	)
	return n
}

// Ingest normalizes, deduplicates, parses, resolves and applies a batch of
// collector payloads. Per-item failures only show up in the stats. The
// stored assumptions come back in item order. A cancelled run returns
// what it stored before stopping, with the context error.
func (s *Service) Ingest(ctx context.Context, payloads []normalize.Payload) (types.RunStats, []model.Assumption, error) {
	start := time.Now()
	stats := types.RunStats{Payloads: len(payloads)}

	items, malformed := s.normalizer.Batch(ctx, payloads)
	stats.Malformed = malformed

	r := &run{svc: s, roster: s.roster.Snapshot()}
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(s.workerCount, q, r)
	pool.Start(ctx)

	var enqueueErr error
	for i, item := range items {
		if !s.filter.IsNewItem(ctx, item) {
			stats.DuplicateItems++
			continue
		}
		r.track(i, item)
		if err := q.Put(ctx, queue.Job{Seq: i, Key: dedupe.ContentKey(item), Item: item}); err != nil {
			r.done(i)
			// Let a later poll pick the item up again.
			s.filter.ForgetItem(ctx, item)
			enqueueErr = err
			break
		}
		stats.Items++
	}
	_ = q.Close()
	pool.Wait()
	if n := r.release(ctx); n > 0 {
		s.logger.Warn(ctx, "items left unfinished; released for the next poll", logger.Int("items", n))
	}

	stored := r.collect(&stats)
	stats.Duration = time.Since(start)
	s.ingestRuns.Add(1)
	s.lastIngestStats.Store(&stats)
	metrics.RecordRunDuration("ingest", float64(stats.Duration.Milliseconds()))

	s.logger.Info(ctx, "ingest run finished",
		logger.Int("payloads", stats.Payloads),
		logger.Int("items", stats.Items),
		logger.Int("malformed", stats.Malformed),
		logger.Int("duplicate_items", stats.DuplicateItems),
		logger.Int("signals", stats.Signals),
		logger.Int("unresolved", stats.Unresolved),
		logger.Int("duplicate_signals", stats.DuplicateSignals),
		logger.Int("assumptions", stats.Assumptions),
		logger.Int("rejected", stats.Rejected),
		logger.Int("errors", stats.Errors),
		logger.Duration("duration", stats.Duration),
	)

	if err := errors.Join(enqueueErr, ctx.Err()); err != nil {
		return stats, stored, fmt.Errorf("ingest run: %w", err)
	}
	return stats, stored, nil
}

// Project computes and stores one projection per input under runID. An
// empty runID gets a fresh one. Inputs without explicit assumptions are
// given the active ones for their game. Projections that could not be
// stored are still returned; the error reports them.
func (s *Service) Project(ctx context.Context, runID string, inputs []model.ProjectionInput) ([]model.PlayerProjection, error) {
	start := time.Now()
	if runID == "" {
		runID = uuid.NewString()
	}

	prepared := make([]model.ProjectionInput, 0, len(inputs))
	for _, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		if in.Assumptions == nil {
			active, err := s.engine.Active(ctx, in.PlayerID)
			if err != nil {
				return nil, fmt.Errorf("loading assumptions for %s: %w", in.PlayerID, err)
			}
			in.Assumptions = assumption.ForGame(active, in.GameID)
		}
		prepared = append(prepared, in)
	}

	out, batchErr := s.projector.ProjectBatch(ctx, prepared)

	var saveErr error
	for i := range out {
		out[i].RunID = runID
		if err := s.store.SaveProjection(ctx, out[i]); err != nil {
			metrics.RecordErrorByComponent("service", "save_projection")
			saveErr = errors.Join(saveErr, err)
		}
	}

	s.projectionRuns.Add(1)
	metrics.RecordRunDuration("project", float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "projection run finished",
		logger.String("run_id", runID),
		logger.Int("requested", len(inputs)),
		logger.Int("projected", len(out)),
		logger.Duration("duration", time.Since(start)),
	)

	if err := errors.Join(batchErr, saveErr, ctx.Err()); err != nil {
		return out, fmt.Errorf("projection run %s: %w", runID, err)
	}
	return out, nil
}

// TopN returns the n projections of a run with the highest PRA.
func (s *Service) TopN(ctx context.Context, runID string, n int) ([]model.PlayerProjection, error) {
	return s.store.TopN(ctx, runID, n)
}

// ActiveAssumptions returns the current assumptions of a player.
func (s *Service) ActiveAssumptions(ctx context.Context, playerID string) ([]model.Assumption, error) {
	return s.engine.Active(ctx, playerID)
}

// Resolver returns the entity resolver.
func (s *Service) Resolver() *resolve.Resolver { return s.resolver }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	contentKeys, signalKeys := s.filter.Sizes()
	stats := map[string]interface{}{
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"rosterSize":     s.roster.Snapshot().Len(),
		"contentKeys":    contentKeys,
		"signalKeys":     signalKeys,
		"unresolved":     s.resolver.Unresolved(),
		"ambiguous":      s.resolver.Ambiguous(),
		"ingestRuns":     s.ingestRuns.Load(),
		"projectionRuns": s.projectionRuns.Load(),
	}
	if last := s.lastIngestStats.Load(); last != nil {
		stats["lastIngest"] = *last
	}
	return stats
}

// Close releases the store and registered resources. It is safe to call
// more than once.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.store != nil {
			err = s.store.Close()
		}
		for _, fn := range s.closers {
			err = errors.Join(err, fn())
		}
	})
	return err
}

// storedAssumption remembers where a stored record came from so a run can
// report them in item order.
type storedAssumption struct {
	seq int
	a   model.Assumption
}

// run is the Processor for one ingest batch.
type run struct {
	svc    *Service
	roster *resolve.Roster

	signals          atomic.Int64
	unresolved       atomic.Int64
	duplicateSignals atomic.Int64
	created          atomic.Int64
	rejected         atomic.Int64
	failed           atomic.Int64

	mu      sync.Mutex
	stored  []storedAssumption
	pending map[int]model.RawItem
}

// track marks item as recorded in the content window but not yet fully
// processed.
func (r *run) track(seq int, item model.RawItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		r.pending = make(map[int]model.RawItem)
	}
	r.pending[seq] = item
}

func (r *run) done(seq int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, seq)
}

// release forgets the content key of every item that failed, was cut short
// by cancellation or never reached a worker. Returns how many were released.
func (r *run) release(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The run's own context may be done; the windows must still be updated.
	ctx = context.WithoutCancel(ctx)
	n := len(r.pending)
	for seq, item := range r.pending {
		r.svc.filter.ForgetItem(ctx, item)
		delete(r.pending, seq)
	}
	return n
}

// Process implements worker.Processor: parse, resolve, signal dedupe, then
// the assumption engine, which appends winners to the store. A job that
// returns an error stays pending and its item is released after the run.
func (r *run) Process(ctx context.Context, j queue.Job) error {
	if err := r.process(ctx, j); err != nil {
		return err
	}
	r.done(j.Seq)
	return nil
}

func (r *run) process(ctx context.Context, j queue.Job) error {
	s := r.svc
	var errs error
	for _, sig := range s.parser.Parse(ctx, j.Item) {
		if ctx.Err() != nil {
			return errors.Join(errs, ctx.Err())
		}
		sig.ItemKey = j.Key
		r.signals.Add(1)

		resolved, err := s.resolver.ResolveSignal(ctx, r.roster, sig)
		if err != nil {
			r.unresolved.Add(1)
			continue
		}
		if !s.filter.IsNewSignal(ctx, resolved) {
			r.duplicateSignals.Add(1)
			continue
		}

		out, err := s.engine.Apply(ctx, resolved)
		if err != nil {
			s.filter.ForgetSignal(context.WithoutCancel(ctx), resolved)
			r.failed.Add(1)
			errs = errors.Join(errs, err)
			continue
		}
		switch out.Decision {
		case assumption.Created, assumption.Replaced:
			r.created.Add(1)
			r.mu.Lock()
			r.stored = append(r.stored, storedAssumption{seq: j.Seq, a: out.Assumption})
			r.mu.Unlock()
		case assumption.Rejected:
			r.rejected.Add(1)
		}
	}
	return errs
}

// collect folds the run counters into stats and returns the stored
// assumptions in item order.
func (r *run) collect(stats *types.RunStats) []model.Assumption {
	stats.Signals = int(r.signals.Load())
	stats.Unresolved = int(r.unresolved.Load())
	stats.DuplicateSignals = int(r.duplicateSignals.Load())
	stats.Assumptions = int(r.created.Load())
	stats.Rejected = int(r.rejected.Load())
	stats.Errors = int(r.failed.Load())

	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(r.stored, func(i, k int) bool { return r.stored[i].seq < r.stored[k].seq })
	out := make([]model.Assumption, len(r.stored))
	for i, st := range r.stored {
		out[i] = st.a
	}
	return out
}
