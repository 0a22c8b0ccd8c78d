package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.SeasonWeight, convey.ShouldEqual, 0.6)
			convey.So(cfg.RecentWeight, convey.ShouldEqual, 0.4)
			convey.So(cfg.LeaguePace, convey.ShouldEqual, 100)
			convey.So(cfg.ReferenceDRtg, convey.ShouldEqual, 110)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When blend weights are both zero", func() {
			cfg.SeasonWeight, cfg.RecentWeight = 0, 0

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a near-lock hour is out of range", func() {
			cfg.NearLockEndHour = 24

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a keyword rule has no phrase", func() {
			cfg.LineupKeywords = []config.KeywordRule{{Classification: "STARTING"}}

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a rule names an unknown taxonomy", func() {
			mult := 0.0
			cfg.Rules = map[string]config.RuleEffect{"suspended": {Taxonomy: "statsu", MinutesMultiplier: &mult}}

			convey.Convey("Then validation fails", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "statsu")
			})
		})

		convey.Convey("When a rule only changes a multiplier", func() {
			mult := 0.7
			cfg.Rules = map[string]config.RuleEffect{"questionable": {MinutesMultiplier: &mult}}

			convey.Convey("Then it is valid", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_NearLock(t *testing.T) {
	convey.Convey("Given the default near-lock window in UTC", t, func() {
		cfg := config.New(context.Background())
		cfg.NearLockTimezone = "UTC"

		convey.Convey("Then hours inside 16..22 are near lock", func() {
			convey.So(cfg.NearLock(time.Date(2026, 1, 10, 16, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
			convey.So(cfg.NearLock(time.Date(2026, 1, 10, 22, 59, 0, 0, time.UTC)), convey.ShouldBeTrue)
		})

		convey.Convey("And hours outside are not", func() {
			convey.So(cfg.NearLock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)), convey.ShouldBeFalse)
			convey.So(cfg.NearLock(time.Date(2026, 1, 10, 23, 0, 0, 0, time.UTC)), convey.ShouldBeFalse)
		})

		convey.Convey("And an unknown zone falls back to UTC", func() {
			cfg.NearLockTimezone = "Mars/Olympus"
			convey.So(cfg.NearLock(time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
		})
	})
}
