package projection_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/projection"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var fixed = time.Date(2026, 10, 17, 23, 0, 0, 0, time.UTC)

func healthy() model.ProjectionInput {
	return model.ProjectionInput{
		PlayerID:     "2544",
		PlayerName:   "LeBron James",
		GameID:       "0022600101",
		Position:     "F",
		GamesPlayed:  40,
		Season:       model.StatLine{Minutes: 32, Points: 24.1, Rebounds: 7.5, Assists: 8.0},
		Recent:       model.StatLine{Minutes: 32, Points: 25.2, Rebounds: 8.0, Assists: 9.0},
		OpponentPace: 100,
		OpponentDRtg: 110,
	}
}

func newEngine(opts ...projection.Option) *projection.Engine {
	return projection.New(append([]projection.Option{projection.WithClock(func() time.Time { return fixed })}, opts...)...)
}

func TestProjectBaseline(t *testing.T) {
	Convey("Given a healthy starter with neutral context", t, func() {
		ctx := context.Background()
		e := newEngine()
		p := e.Project(ctx, healthy())

		Convey("Points are the blended average", func() {
			So(p.Points, ShouldEqual, 24.54)
			So(p.Minutes, ShouldEqual, 32.0)
			So(p.MinutesStdDev, ShouldEqual, 4.8)
			So(p.Rebounds, ShouldEqual, 7.7)
			So(p.Assists, ShouldEqual, 8.4)
			So(p.PRA, ShouldEqual, 40.64)
			So(p.PlayerID, ShouldEqual, "2544")
			So(p.CreatedAt, ShouldEqual, fixed)
		})

		Convey("A large sample is HIGH confidence with a reason", func() {
			So(p.Confidence, ShouldEqual, model.ConfidenceHigh)
			So(p.Reasons, ShouldContain, "Sufficient sample size (40 games)")
			So(p.Risks, ShouldBeEmpty)
		})
	})
}

func TestProjectContext(t *testing.T) {
	Convey("Given an engine", t, func() {
		ctx := context.Background()
		e := newEngine()

		Convey("Bench baselines take the role factor", func() {
			in := healthy()
			in.Season.Minutes, in.Recent.Minutes = 20, 20
			p := e.Project(ctx, in)
			So(p.Minutes, ShouldEqual, 18.0)
			So(p.Points, ShouldEqual, 22.09)
		})

		Convey("Without recent games the season line stands alone", func() {
			in := healthy()
			in.Recent = model.StatLine{}
			p := e.Project(ctx, in)
			So(p.Points, ShouldEqual, 24.1)
			So(p.Minutes, ShouldEqual, 32.0)
		})

		Convey("A fast opponent scales points and adds a reason", func() {
			in := healthy()
			in.OpponentPace = 105
			in.OpponentPaceRank = 3
			p := e.Project(ctx, in)
			So(p.Points, ShouldEqual, 25.77)
			So(p.Reasons, ShouldContain, "Fast-paced opponent (pace rank 3)")
			So(p.Confidence, ShouldEqual, model.ConfidenceHigh)
		})

		Convey("Unknown pace is neutral", func() {
			in := healthy()
			in.OpponentPace = 0
			So(e.Project(ctx, in).Points, ShouldEqual, 24.54)
		})

		Convey("Elite defenses hit the rating floor", func() {
			in := healthy()
			in.OpponentDRtg = 95
			p := e.Project(ctx, in)
			So(p.Points, ShouldEqual, 26.99)
			So(p.Points, ShouldBeLessThanOrEqualTo, 24.54*1.1)
		})

		Convey("Weak defenses shrink points", func() {
			in := healthy()
			in.OpponentDRtg = 120
			So(e.Project(ctx, in).Points, ShouldEqual, 22.49)
		})

		Convey("A missing defensive rating is neutral", func() {
			in := healthy()
			in.OpponentDRtg = 0
			So(e.Project(ctx, in).Points, ShouldEqual, 24.54)
		})

		Convey("Centers get the rebounding bonus", func() {
			in := healthy()
			in.Position = model.PositionCenter
			So(e.Project(ctx, in).Rebounds, ShouldEqual, 8.47)
		})

		Convey("Usage scales assists", func() {
			in := healthy()
			in.UsageRate = model.Float(0.3)
			So(e.Project(ctx, in).Assists, ShouldEqual, 12.6)

			in.UsageRate = model.Float(0)
			p := e.Project(ctx, in)
			So(p.Assists, ShouldEqual, 0.0)
			So(p.PRA, ShouldEqual, 32.24)
		})

		Convey("A small sample is LOW confidence with a risk", func() {
			in := healthy()
			in.GamesPlayed = 12
			p := e.Project(ctx, in)
			So(p.Confidence, ShouldEqual, model.ConfidenceLow)
			So(p.Risks, ShouldContain, "Small sample size (12 games)")
		})
	})
}

func TestProjectAssumptions(t *testing.T) {
	Convey("Given a healthy starter and active assumptions", t, func() {
		ctx := context.Background()
		e := newEngine()
		in := healthy()

		questionable := model.Assumption{
			Kind: model.TaxonomyStatus, Classification: model.Questionable,
			MinutesMultiplier: model.Float(0.85), Confidence: model.ConfidenceLow,
			Reason: "Questionable (ankle) | Source: rotowire_rss",
		}

		Convey("A status multiplier scales minutes and forces LOW", func() {
			in.Assumptions = []model.Assumption{questionable}
			p := e.Project(ctx, in)
			So(p.Minutes, ShouldEqual, 27.2)
			So(p.Points, ShouldEqual, 20.86)
			So(p.Confidence, ShouldEqual, model.ConfidenceLow)
			So(p.Risks, ShouldContain, "Injury status: Questionable (ankle) | Source: rotowire_rss")
			So(p.Reasons, ShouldContain, "Sufficient sample size (40 games)")
		})

		Convey("OUT zeroes the line", func() {
			in.Assumptions = []model.Assumption{{
				Kind: model.TaxonomyStatus, Classification: model.Out,
				MinutesMultiplier: model.Float(0), Reason: "Out | Source: nba",
			}}
			p := e.Project(ctx, in)
			So(p.Minutes, ShouldEqual, 0.0)
			So(p.PRA, ShouldEqual, 0.0)
			So(p.Confidence, ShouldEqual, model.ConfidenceLow)
		})

		Convey("AVAILABLE keeps HIGH confidence", func() {
			in.Assumptions = []model.Assumption{{
				Kind: model.TaxonomyStatus, Classification: model.Available,
				MinutesMultiplier: model.Float(1), Reason: "Available | Source: nba",
			}}
			p := e.Project(ctx, in)
			So(p.Confidence, ShouldEqual, model.ConfidenceHigh)
			So(p.Minutes, ShouldEqual, 32.0)
		})

		Convey("The tightest cap applies after multipliers", func() {
			in.Assumptions = []model.Assumption{
				{Kind: model.TaxonomyLineup, Classification: model.Starting, LineupMultiplier: model.Float(1.15), Reason: "Starting"},
				{Kind: model.TaxonomyMinutes, Classification: model.Limited, MinutesCap: model.Minutes(28), Reason: "Limited"},
				{Kind: model.TaxonomyMinutes, Classification: model.Restriction, MinutesCap: model.Minutes(24), GameID: "0022600101", Reason: "Restriction"},
			}
			p := e.Project(ctx, in)
			So(p.Minutes, ShouldEqual, 24.0)
			So(p.Points, ShouldEqual, 18.41)
			So(p.Reasons, ShouldContain, "Minutes capped at 24: Restriction")
			So(p.Reasons, ShouldContain, "Lineup role: Starting")
			So(p.Confidence, ShouldEqual, model.ConfidenceHigh)
		})

		Convey("A cap above projected minutes changes nothing", func() {
			in.Assumptions = []model.Assumption{{Kind: model.TaxonomyMinutes, Classification: model.Limited, MinutesCap: model.Minutes(36), Reason: "Limited"}}
			So(e.Project(ctx, in).Minutes, ShouldEqual, 32.0)
		})
	})
}

func TestProjectZeroBaseline(t *testing.T) {
	Convey("Given a player with no minutes history", t, func() {
		e := newEngine()
		in := healthy()
		in.Season = model.StatLine{Points: 10}
		in.Recent = model.StatLine{}
		p := e.Project(context.Background(), in)

		Convey("Every value is zero and a risk explains why", func() {
			So(p.Minutes, ShouldEqual, 0.0)
			So(p.Points, ShouldEqual, 0.0)
			So(p.Rebounds, ShouldEqual, 0.0)
			So(p.Assists, ShouldEqual, 0.0)
			So(p.PRA, ShouldEqual, 0.0)
			So(p.Risks, ShouldContain, "No baseline minutes available; projection is zero")
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given custom constants", t, func() {
		e := newEngine(
			projection.WithBlendWeights(1, 0),
			projection.WithSDRatio(0.2),
			projection.WithSampleGames(50),
			projection.WithCenterFactor(1.2),
			projection.WithBlendWeights(-1, 2), // ignored
		)
		in := healthy()
		in.Position = model.PositionCenter
		p := e.Project(context.Background(), in)

		So(p.Points, ShouldEqual, 24.1)
		So(p.MinutesStdDev, ShouldEqual, 6.4)
		So(p.Rebounds, ShouldEqual, 9.0)
		So(p.Confidence, ShouldEqual, model.ConfidenceLow)
	})
}

func TestProjectBatch(t *testing.T) {
	Convey("Given many inputs", t, func() {
		e := newEngine(projection.WithConcurrency(4))
		inputs := make([]model.ProjectionInput, 50)
		for i := range inputs {
			in := healthy()
			in.PlayerID = fmt.Sprintf("p%02d", i)
			in.Season.Points = float64(i)
			in.Recent.Points = float64(i)
			inputs[i] = in
		}

		Convey("Results keep input order", func() {
			out, err := e.ProjectBatch(context.Background(), inputs)
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 50)
			for i, p := range out {
				So(p.PlayerID, ShouldEqual, fmt.Sprintf("p%02d", i))
				So(p.Points, ShouldEqual, float64(i))
			}
		})

		Convey("A cancelled batch returns what was finished", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			out, err := e.ProjectBatch(ctx, inputs)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(len(out), ShouldBeLessThan, 50)
		})

		Convey("An empty batch is fine", func() {
			out, err := e.ProjectBatch(context.Background(), nil)
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}
