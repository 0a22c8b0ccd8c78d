package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithWriter(&bytes.Buffer{}, Format("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields from a named logger", func() {
			Named("resolver").Info(ctx, "resolved", String("player", "LeBron James"), Float64("score", 0.91), String("source", "rotowire_rss"))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)

			Convey("Then the record carries the message, component and fields", func() {
				So(line["msg"], ShouldEqual, "resolved")
				So(line["component"], ShouldEqual, "resolver")
				So(line["player"], ShouldEqual, "LeBron James")
				So(line["score"], ShouldEqual, 0.91)
				So(line["source"], ShouldEqual, "rotowire_rss")
				So(line["caller"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When debug is disabled", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().With(Int("run", 7)).Debug(ctx, "visible", Error(errors.New("boom")))

			Convey("Then the debug record is written with inherited fields", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, `"msg":"visible"`)
				So(out, ShouldContainSubstring, `"run":7`)
				So(out, ShouldContainSubstring, "boom")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " Info "} {
			So(SetLevelString(lvl), ShouldBeNil)
		}

		Convey("Then an unknown level is rejected", func() {
			err := SetLevelString("verbose")
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
		})
	})
}
