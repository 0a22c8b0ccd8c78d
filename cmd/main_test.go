package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const rosterYAML = `
- id: "2544"
  name: LeBron James
  team: LAL
  position: F
- id: "203076"
  name: Anthony Davis
  team: LAL
  position: F-C
- id: "201939"
  name: Stephen Curry
  team: GSW
  position: G
`

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>RotoWire NBA</title>
    <item>
      <title>LeBron James: Questionable (ankle)</title>
      <link>https://example.com/news/lebron-ankle</link>
      <pubDate>Tue, 20 Oct 2026 16:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>
`

const batchYAML = `
feeds:
  - name: rotowire_rss
    path: rotowire.xml
posts:
  - id: "1001"
    account: ShamsCharania
    text: Anthony Davis (back) is doubtful
    posted_at: 2026-10-20T17:00:00Z
    tier: 1
report:
  - game_date: "2026-10-20"
    matchup: LAL@GSW
    team: Golden State Warriors
    player_name: Stephen Curry
    current_status: Out
    reason: Injury/Illness - Left Hamstring; Strain
    reported_at: 2026-10-20T17:30:00Z
`

const inputsYAML = `
- player_id: "2544"
  player_name: LeBron James
  game_id: 2026-10-20:LAL@GSW
  position: F
  games_played: 40
  season: {minutes: 32, points: 24.1, rebounds: 7.5, assists: 8.0}
  recent: {minutes: 32, points: 25.2, rebounds: 8.0, assists: 9.0}
  opponent_pace: 100
  opponent_drtg: 110
`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	convey.So(os.WriteFile(path, []byte(content), 0o644), convey.ShouldBeNil)
	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	convey.Convey("Given the version command", t, func() {
		out, err := run("version")

		convey.Convey("Then it prints the build version without loading config", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "livelox dev")
		})
	})
}

func TestPipelineCommands(t *testing.T) {
	convey.Convey("Given collector output on disk", t, func() {
		dir := t.TempDir()
		cfgPath := writeFile(dir, "config.yaml",
			"database_path: "+filepath.Join(dir, "livelox.db")+"\nworker_count: 2\nlog_level: debug\n"+
				"metrics_labels:\n  season: \"2026-27\"\n")
		rosterPath := writeFile(dir, "roster.yaml", rosterYAML)
		writeFile(dir, "rotowire.xml", feedXML)
		batchPath := writeFile(dir, "batch.yaml", batchYAML)
		inputsPath := writeFile(dir, "inputs.yaml", inputsYAML)
		metricsPath := filepath.Join(dir, "livelox.prom")

		convey.Convey("When the batch is ingested", func() {
			out, err := run("ingest", "--config", cfgPath, "--metrics-file", metricsPath, "--roster", rosterPath, batchPath)

			convey.Convey("Then assumptions are reported for each source", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "3 players")
				convey.So(out, convey.ShouldContainSubstring, "2544 status [LOW] minutes 85%")
				convey.So(out, convey.ShouldContainSubstring, "203076 status")
				convey.So(out, convey.ShouldContainSubstring, "201939 status [HIGH] minutes 0%")
				convey.So(out, convey.ShouldContainSubstring, "3 assumptions")
			})

			convey.Convey("Then the metrics textfile is written", func() {
				data, err := os.ReadFile(metricsPath)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "livelox_pipeline_assumptions_total")
				convey.So(string(data), convey.ShouldContainSubstring, `season="2026-27"`)
			})

			convey.Convey("And a projection run follows in a new process", func() {
				out, err := run("project", "--config", cfgPath, "--run-id", "run-cli", "--top", "5", inputsPath)

				convey.Convey("Then the stored assumptions shape the projection", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(out, convey.ShouldContainSubstring, "LeBron James 2026-10-20:LAL@GSW: 27.2 min, 20.86 pts")
					convey.So(out, convey.ShouldContainSubstring, "risk: Injury status")
					convey.So(out, convey.ShouldContainSubstring, "Top 1 by PRA (run run-cli)")
				})
			})
		})

		convey.Convey("When a roster is checked", func() {
			out, err := run("roster", "--config", cfgPath, rosterPath, "LeBron James", "Steph", "Nobody Special")

			convey.Convey("Then names resolve by tier", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "3 players loaded, 0 dropped")
				convey.So(out, convey.ShouldContainSubstring, "LeBron James: LeBron James (2544) exact")
				convey.So(out, convey.ShouldContainSubstring, "Steph: Stephen Curry (201939) alias")
				convey.So(out, convey.ShouldContainSubstring, "Nobody Special: ")
			})
		})

		convey.Convey("When the batch file is missing", func() {
			out, err := run("ingest", "--config", cfgPath, filepath.Join(dir, "missing.yaml"))

			convey.Convey("Then the load step fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out, convey.ShouldContainSubstring, "FAILED")
			})
		})

		convey.Convey("When the config is invalid", func() {
			bad := writeFile(dir, "bad.yaml", "fuzzy_floor: 2\n")
			_, err := run("ingest", "--config", bad, batchPath)

			convey.Convey("Then the command fails before running", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "loading config")
			})
		})
	})
}
