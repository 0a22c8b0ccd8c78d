package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/everworldlife-netizen/Live-Lox-Model/internal/app"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/adapters/repository"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/normalize"
)

func projectionInput(playerID, name, gameID string) model.ProjectionInput {
	return model.ProjectionInput{
		PlayerID:     playerID,
		PlayerName:   name,
		GameID:       gameID,
		Position:     "F",
		GamesPlayed:  40,
		Season:       model.StatLine{Minutes: 32, Points: 24.1, Rebounds: 7.5, Assists: 8.0},
		Recent:       model.StatLine{Minutes: 32, Points: 25.2, Rebounds: 8.0, Assists: 9.0},
		OpponentPace: 100,
		OpponentDRtg: 110,
	}
}

// flakyStore fails every Append while down is set.
type flakyStore struct {
	repository.Store
	down atomic.Bool
}

func (f *flakyStore) Append(ctx context.Context, a model.Assumption) error {
	if f.down.Load() {
		return errors.New("disk unavailable")
	}
	return f.Store.Append(ctx, a)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with a loaded roster", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := repository.NewMemoryStore()
		svc := service.New(store,
			service.WithWorkerCount(4),
			service.WithQueueSize(16),
		)
		defer svc.Close()
		svc.RefreshRoster(ctx, roster())

		Convey("When an insider reports a questionable player", func() {
			stats, stored, err := svc.Ingest(ctx, []normalize.Payload{
				feedPayload("rotowire_rss", "https://example.com/lebron", "LeBron James: Questionable (ankle)", t0),
			})
			So(err, ShouldBeNil)

			Convey("Then one status assumption is stored", func() {
				So(stats.Payloads, ShouldEqual, 1)
				So(stats.Items, ShouldEqual, 1)
				So(stats.Signals, ShouldEqual, 1)
				So(stats.Assumptions, ShouldEqual, 1)
				So(stored, ShouldHaveLength, 1)

				a := stored[0]
				So(a.PlayerID, ShouldEqual, "2544")
				So(a.Kind, ShouldEqual, model.TaxonomyStatus)
				So(a.Classification, ShouldEqual, model.Questionable)
				So(*a.MinutesMultiplier, ShouldEqual, 0.85)
				So(a.Confidence, ShouldEqual, model.ConfidenceLow)
				So(a.SourceTier, ShouldEqual, model.TierInsider)
				So(a.Reason, ShouldContainSubstring, "Questionable")
			})

			Convey("And the same item arrives again", func() {
				again, stored, err := svc.Ingest(ctx, []normalize.Payload{
					feedPayload("rotowire_rss", "https://example.com/lebron", "LeBron James: Questionable (ankle)", t0),
				})
				So(err, ShouldBeNil)

				Convey("Then it is dropped as a duplicate", func() {
					So(again.DuplicateItems, ShouldEqual, 1)
					So(again.Items, ShouldEqual, 0)
					So(stored, ShouldBeEmpty)
				})
			})

			Convey("And a more reliable source rules him out", func() {
				post := normalize.Payload{
					Kind: model.KindSocial,
					Post: &normalize.SocialPost{
						ID:       "1001",
						Account:  "ShamsCharania",
						Text:     "LeBron James ruled out Friday",
						PostedAt: t0.Add(time.Hour),
						Tier:     model.TierOfficial,
					},
				}
				_, stored, err := svc.Ingest(ctx, []normalize.Payload{post})
				So(err, ShouldBeNil)

				Convey("Then the new record supersedes the old one", func() {
					So(stored, ShouldHaveLength, 1)
					So(stored[0].Classification, ShouldEqual, model.Out)
					So(stored[0].Supersedes, ShouldNotBeEmpty)

					active, err := svc.ActiveAssumptions(ctx, "2544")
					So(err, ShouldBeNil)
					So(active, ShouldHaveLength, 1)
					So(active[0].Classification, ShouldEqual, model.Out)

					history, err := store.History(ctx, "2544")
					So(err, ShouldBeNil)
					So(history, ShouldHaveLength, 2)
				})
			})

			Convey("And a softer report from a weaker source follows", func() {
				_, stored, err := svc.Ingest(ctx, []normalize.Payload{
					feedPayload("general_news_rss", "https://example.com/probable", "LeBron James is probable", t0.Add(time.Hour)),
				})
				So(err, ShouldBeNil)

				Convey("Then the stored assumption stands", func() {
					So(stored, ShouldBeEmpty)
					active, err := svc.ActiveAssumptions(ctx, "2544")
					So(err, ShouldBeNil)
					So(active, ShouldHaveLength, 1)
					So(active[0].Classification, ShouldEqual, model.Questionable)
				})
			})

			Convey("And a projection run follows", func() {
				out, err := svc.Project(ctx, "run-1", []model.ProjectionInput{
					projectionInput("2544", "LeBron James", "2026-10-20:LAL@GSW"),
				})
				So(err, ShouldBeNil)

				Convey("Then the assumption shapes the projection", func() {
					So(out, ShouldHaveLength, 1)
					p := out[0]
					So(p.RunID, ShouldEqual, "run-1")
					So(p.Minutes, ShouldEqual, 27.2)
					So(p.Points, ShouldEqual, 20.86)
					So(p.Confidence, ShouldEqual, model.ConfidenceLow)

					saved, err := store.Projections(ctx, "run-1")
					So(err, ShouldBeNil)
					So(saved, ShouldHaveLength, 1)
					So(svc.GetStats()["projectionRuns"], ShouldEqual, int64(1))
				})
			})
		})

		Convey("When one item carries several signals", func() {
			stats, stored, err := svc.Ingest(ctx, []normalize.Payload{
				feedPayload("rotowire_rss", "https://example.com/ad",
					"Anthony Davis is probable and will start on a minutes restriction", t0),
			})
			So(err, ShouldBeNil)

			Convey("Then one assumption per taxonomy is stored", func() {
				So(stats.Signals, ShouldEqual, 3)
				So(stats.Assumptions, ShouldEqual, 3)
				kinds := map[model.Taxonomy]model.Classification{}
				for _, a := range stored {
					So(a.PlayerID, ShouldEqual, "203076")
					kinds[a.Kind] = a.Classification
				}
				So(kinds[model.TaxonomyStatus], ShouldEqual, model.Probable)
				So(kinds[model.TaxonomyMinutes], ShouldEqual, model.Restriction)
				So(kinds[model.TaxonomyLineup], ShouldEqual, model.Starting)
			})
		})

		Convey("When a batch mixes bad, unknown and repeated news", func() {
			stats, stored, err := svc.Ingest(ctx, []normalize.Payload{
				{Kind: model.KindFeed, Feed: normalize.FeedSource{Name: "rotowire_rss"}},
				feedPayload("rotowire_rss", "https://example.com/nobody", "Random Walker is out tonight", t0),
				feedPayload("rotowire_rss", "https://example.com/curry-1", "Stephen Curry (hamstring) is doubtful", t0),
				feedPayload("rotowire_rss", "https://example.com/curry-2", "Stephen Curry (hamstring) is doubtful", t0),
			})
			So(err, ShouldBeNil)

			Convey("Then each problem is counted and the rest is applied", func() {
				So(stats.Payloads, ShouldEqual, 4)
				So(stats.Malformed, ShouldEqual, 1)
				So(stats.Items, ShouldEqual, 3)
				So(stats.Signals, ShouldEqual, 3)
				So(stats.Unresolved, ShouldEqual, 1)
				So(stats.DuplicateSignals, ShouldEqual, 1)
				So(stats.Assumptions, ShouldEqual, 1)
				So(stored, ShouldHaveLength, 1)
				So(stored[0].PlayerID, ShouldEqual, "201939")
				So(svc.GetStats()["unresolved"], ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the official report ties a status to one game", func() {
			_, _, err := svc.Ingest(ctx, []normalize.Payload{
				feedPayload("rotowire_rss", "https://example.com/lebron", "LeBron James: Questionable (ankle)", t0),
				{
					Kind: model.KindOfficial,
					Row: &normalize.ReportRow{
						GameDate:      "2026-10-20",
						Matchup:       "LAL@GSW",
						Team:          "Los Angeles Lakers",
						PlayerName:    "LeBron James",
						CurrentStatus: "Out",
						Reason:        "Injury/Illness - Left Ankle; Soreness",
						ReportedAt:    t0.Add(time.Hour),
					},
				},
			})
			So(err, ShouldBeNil)

			out, err := svc.Project(ctx, "run-games", []model.ProjectionInput{
				projectionInput("2544", "LeBron James", "2026-10-20:LAL@GSW"),
				projectionInput("2544", "LeBron James", "2026-10-22:LAL@PHX"),
			})
			So(err, ShouldBeNil)

			Convey("Then only that game uses it", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].Minutes, ShouldEqual, 0)
				So(out[0].Confidence, ShouldEqual, model.ConfidenceLow)
				So(out[1].Minutes, ShouldEqual, 27.2)
			})

			Convey("Then the leaderboard ranks by PRA", func() {
				top, err := svc.TopN(ctx, "run-games", 1)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 1)
				So(top[0].GameID, ShouldEqual, "2026-10-22:LAL@PHX")
			})
		})

		Convey("When a projection run has no id", func() {
			in := projectionInput("201939", "Stephen Curry", "g1")
			in.Assumptions = []model.Assumption{}
			out, err := svc.Project(ctx, "", []model.ProjectionInput{in})
			So(err, ShouldBeNil)

			Convey("Then one is generated and explicit assumptions are used", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].RunID, ShouldNotBeEmpty)
				So(out[0].Minutes, ShouldEqual, 32)
				So(out[0].Confidence, ShouldEqual, model.ConfidenceHigh)
			})
		})

		Convey("When a projection run id is reused", func() {
			inputs := []model.ProjectionInput{projectionInput("201939", "Stephen Curry", "g1")}
			_, err := svc.Project(ctx, "run-dup", inputs)
			So(err, ShouldBeNil)
			out, err := svc.Project(ctx, "run-dup", inputs)

			Convey("Then the projections are returned with a store error", func() {
				So(out, ShouldHaveLength, 1)
				So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
			})
		})

		Convey("When many items arrive at once", func() {
			var payloads []normalize.Payload
			for i := 0; i < 100; i++ {
				payloads = append(payloads, feedPayload("rotowire_rss",
					fmt.Sprintf("https://example.com/burst/%d", i), "Anthony Davis (back) is doubtful", t0))
			}
			stats, _, err := svc.Ingest(ctx, payloads)
			So(err, ShouldBeNil)

			Convey("Then the small queue applies backpressure without loss", func() {
				So(stats.Items, ShouldEqual, 100)
				So(stats.Signals, ShouldEqual, 100)
				So(stats.Assumptions, ShouldEqual, 1)
				So(stats.DuplicateSignals, ShouldEqual, 99)
			})
		})

		Convey("When the run is cancelled", func() {
			cancelled, stop := context.WithCancel(ctx)
			stop()

			_, _, err := svc.Ingest(cancelled, []normalize.Payload{
				feedPayload("rotowire_rss", "https://example.com/cancel", "LeBron James: Questionable (ankle)", t0),
			})

			Convey("Then the context error is reported", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})

			Convey("Then the item is picked up by the next run", func() {
				stats, stored, err := svc.Ingest(ctx, []normalize.Payload{
					feedPayload("rotowire_rss", "https://example.com/cancel", "LeBron James: Questionable (ankle)", t0),
				})
				So(err, ShouldBeNil)
				So(stats.DuplicateItems, ShouldEqual, 0)
				So(stats.Items, ShouldEqual, 1)
				So(stored, ShouldHaveLength, 1)
			})
		})
	})
}

func TestServiceStoreFailure(t *testing.T) {
	Convey("Given a service whose store is down", t, func() {
		ctx := context.Background()
		store := &flakyStore{Store: repository.NewMemoryStore()}
		store.down.Store(true)
		svc := service.New(store, service.WithWorkerCount(2))
		defer svc.Close()
		svc.RefreshRoster(ctx, roster())

		payloads := []normalize.Payload{
			feedPayload("rotowire_rss", "https://example.com/flaky", "LeBron James: Questionable (ankle)", t0),
		}
		first, stored, err := svc.Ingest(ctx, payloads)

		Convey("Then the failure is counted and nothing stays in the windows", func() {
			So(err, ShouldBeNil)
			So(first.Errors, ShouldEqual, 1)
			So(first.Assumptions, ShouldEqual, 0)
			So(stored, ShouldBeEmpty)
			So(svc.GetStats()["contentKeys"], ShouldEqual, int64(0))
			So(svc.GetStats()["signalKeys"], ShouldEqual, int64(0))
		})

		Convey("When the store recovers and the item is polled again", func() {
			store.down.Store(false)
			second, stored, err := svc.Ingest(ctx, payloads)
			So(err, ShouldBeNil)

			Convey("Then the assumption is written", func() {
				So(second.DuplicateItems, ShouldEqual, 0)
				So(second.Items, ShouldEqual, 1)
				So(second.Assumptions, ShouldEqual, 1)
				So(stored, ShouldHaveLength, 1)

				active, err := svc.ActiveAssumptions(ctx, "2544")
				So(err, ShouldBeNil)
				So(active, ShouldHaveLength, 1)
				So(active[0].Classification, ShouldEqual, model.Questionable)
			})

			Convey("And a third poll is a duplicate again", func() {
				third, _, err := svc.Ingest(ctx, payloads)
				So(err, ShouldBeNil)
				So(third.DuplicateItems, ShouldEqual, 1)
			})
		})
	})
}
