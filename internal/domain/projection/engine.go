// Package projection computes per-player minutes, points, rebounds and
// assists projections from stat baselines, game context and active
// assumptions.
package projection

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// Engine is a deterministic projection model. It holds no mutable state
// and is safe to share across goroutines.
type Engine struct {
	seasonWeight   float64
	recentWeight   float64
	leaguePace     float64
	referenceDRtg  float64
	drtgFloor      float64
	starterMinutes float64
	benchFactor    float64
	centerFactor   float64
	usageBaseline  float64
	sdRatio        float64
	sampleGames    int
	fastPaceRank   int
	concurrency    int

	now    func() time.Time
	logger logger.Logger
}

// New creates an Engine with the default constants.
func New(opts ...Option) *Engine {
	e := &Engine{
		seasonWeight:   DefaultSeasonWeight,
		recentWeight:   DefaultRecentWeight,
		leaguePace:     DefaultLeaguePace,
		referenceDRtg:  DefaultReferenceDRtg,
		drtgFloor:      DefaultDRtgFloor,
		starterMinutes: DefaultStarterMinutes,
		benchFactor:    DefaultBenchFactor,
		centerFactor:   DefaultCenterFactor,
		usageBaseline:  DefaultUsageBaseline,
		sdRatio:        DefaultSDRatio,
		sampleGames:    DefaultSampleGames,
		fastPaceRank:   DefaultFastPaceRank,
		concurrency:    runtime.NumCPU(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("projection")
	}
	return e
}

// adjustments folds the active assumptions of one player-game.
type adjustments struct {
	minutesMultiplier float64
	lineupMultiplier  float64
	cap               *int
	reasons           []string
	risks             []string
}

func collect(list []model.Assumption) adjustments {
	adj := adjustments{minutesMultiplier: 1, lineupMultiplier: 1}
	for _, a := range list {
		if a.MinutesMultiplier != nil {
			adj.minutesMultiplier *= *a.MinutesMultiplier
		}
		if a.LineupMultiplier != nil {
			adj.lineupMultiplier *= *a.LineupMultiplier
			adj.reasons = append(adj.reasons, fmt.Sprintf("Lineup role: %s", a.Reason))
		}
		if a.MinutesCap != nil {
			if adj.cap == nil || *a.MinutesCap < *adj.cap {
				c := *a.MinutesCap
				adj.cap = &c
			}
			adj.reasons = append(adj.reasons, fmt.Sprintf("Minutes capped at %d: %s", *a.MinutesCap, a.Reason))
		}
		if a.Kind == model.TaxonomyStatus && a.Classification != model.Available {
			adj.risks = append(adj.risks, "Injury status: "+a.Reason)
		}
	}
	return adj
}

// Project computes the projection for one player-game. RunID and the
// input's identity fields are copied through.
func (e *Engine) Project(ctx context.Context, in model.ProjectionInput) model.PlayerProjection {
	start := time.Now()
	out := model.PlayerProjection{
		PlayerID:   in.PlayerID,
		PlayerName: in.PlayerName,
		GameID:     in.GameID,
		CreatedAt:  e.now().UTC(),
	}
	adj := collect(in.Assumptions)

	baseline := e.blend(in.Season.Minutes, in.Recent.Minutes, in.Recent.Minutes > 0)
	if baseline <= 0 {
		out.Risks = append(out.Risks, "No baseline minutes available; projection is zero")
	} else {
		minutes := baseline
		if baseline < e.starterMinutes {
			minutes *= e.benchFactor
		}
		minutes *= adj.minutesMultiplier * adj.lineupMultiplier
		if adj.cap != nil && minutes > float64(*adj.cap) {
			minutes = float64(*adj.cap)
		}
		ratio := minutes / baseline
		recent := in.Recent.Minutes > 0

		points := e.blend(in.Season.Points, in.Recent.Points, recent) * ratio * e.paceFactor(in.OpponentPace) * e.defenseFactor(in.OpponentDRtg)
		rebounds := e.blend(in.Season.Rebounds, in.Recent.Rebounds, recent) * ratio
		if in.Position == model.PositionCenter {
			rebounds *= e.centerFactor
		}
		assists := e.blend(in.Season.Assists, in.Recent.Assists, recent) * ratio * e.usageFactor(in.UsageRate)

		out.Minutes = round2(minutes)
		out.MinutesStdDev = round2(minutes * e.sdRatio)
		out.Points = round2(points)
		out.Rebounds = round2(rebounds)
		out.Assists = round2(assists)
		out.Reasons = append(out.Reasons, adj.reasons...)
	}
	out.PRA = round2(out.Points + out.Rebounds + out.Assists)

	out.Confidence, out.Reasons, out.Risks = e.confidence(in, adj, out.Reasons, out.Risks)

	metrics.RecordProjection(string(out.Confidence))
	metrics.RecordProjectionLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	e.logger.Debug(ctx, "player projected",
		logger.String("player_id", in.PlayerID),
		logger.String("game_id", in.GameID),
		logger.Float64("minutes", out.Minutes),
		logger.Float64("pra", out.PRA),
		logger.String("confidence", string(out.Confidence)),
	)
	return out
}

// ProjectBatch projects every input concurrently. Results keep input
// order. When ctx is cancelled the inputs already projected are returned
// with the context error.
func (e *Engine) ProjectBatch(ctx context.Context, inputs []model.ProjectionInput) ([]model.PlayerProjection, error) {
	results := make([]model.PlayerProjection, len(inputs))
	done := make([]bool, len(inputs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = e.Project(ctx, in)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		partial := make([]model.PlayerProjection, 0, len(inputs))
		for i, ok := range done {
			if ok {
				partial = append(partial, results[i])
			}
		}
		e.logger.Warn(ctx, "projection batch cancelled",
			logger.Int("projected", len(partial)),
			logger.Int("requested", len(inputs)),
		)
		return partial, fmt.Errorf("projection batch: %w", err)
	}
	return results, nil
}

// confidence starts at MEDIUM. Sample size moves it to HIGH or LOW, a
// non-healthy status forces LOW, and pace only adds a reason.
func (e *Engine) confidence(in model.ProjectionInput, adj adjustments, reasons, risks []string) (model.Confidence, []string, []string) {
	conf := model.ConfidenceMedium
	if in.GamesPlayed >= e.sampleGames {
		conf = model.ConfidenceHigh
		reasons = append(reasons, fmt.Sprintf("Sufficient sample size (%d games)", in.GamesPlayed))
	} else {
		conf = model.ConfidenceLow
		risks = append(risks, fmt.Sprintf("Small sample size (%d games)", in.GamesPlayed))
	}
	if len(adj.risks) > 0 {
		conf = model.ConfidenceLow
		risks = append(risks, adj.risks...)
	}
	if in.OpponentPaceRank > 0 && in.OpponentPaceRank <= e.fastPaceRank {
		reasons = append(reasons, fmt.Sprintf("Fast-paced opponent (pace rank %d)", in.OpponentPaceRank))
	}
	return conf, reasons, risks
}

// blend weights season and recent values. Without recent games the season
// value stands alone.
func (e *Engine) blend(season, recent float64, haveRecent bool) float64 {
	if !haveRecent {
		return season
	}
	return (e.seasonWeight*season + e.recentWeight*recent) / (e.seasonWeight + e.recentWeight)
}

func (e *Engine) paceFactor(pace float64) float64 {
	if pace <= 0 {
		return 1
	}
	return pace / e.leaguePace
}

func (e *Engine) defenseFactor(drtg float64) float64 {
	if drtg <= 0 {
		return 1
	}
	return e.referenceDRtg / math.Max(drtg, e.drtgFloor)
}

// usageFactor treats a missing usage rate as the baseline. A usage of
// exactly zero projects zero assists.
func (e *Engine) usageFactor(usage *float64) float64 {
	if usage == nil {
		return 1
	}
	return *usage / e.usageBaseline
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
