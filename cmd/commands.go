package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/assumption"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/types"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

const defaultTopN = 10

func printSteps(w io.Writer, steps []types.StepResult) error {
	var errs error
	for _, s := range steps {
		if s.Err != nil {
			fmt.Fprintf(w, "  %-8s FAILED: %v\n", s.Name, s.Err)
			errs = errors.Join(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
			continue
		}
		fmt.Fprintf(w, "  %-8s %s\n", s.Name, s.Summary)
	}
	return errs
}

// --- ingest command ---

func (c *cli) ingestCmd() *cobra.Command {
	var rosterPath string

	cmd := &cobra.Command{
		Use:   "ingest <batch.yaml>...",
		Short: "Normalize, parse, resolve and apply collector output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			svc, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			var steps []types.StepResult
			if rosterPath != "" {
				players, err := loadRoster(rosterPath)
				if err != nil {
					return printSteps(out, append(steps, types.StepResult{Name: "roster", Err: err}))
				}
				n := svc.RefreshRoster(ctx, players)
				steps = append(steps, types.StepResult{Name: "roster", Summary: fmt.Sprintf("%d players", n)})
			}

			nearLock := c.cfg.NearLock(time.Now())
			for _, path := range args {
				payloads, err := loadBatch(ctx, path)
				if err != nil {
					steps = append(steps, types.StepResult{Name: "load", Err: err})
					continue
				}

				c.log.Info(ctx, "ingesting batch",
					logger.String("path", path),
					logger.Int("payloads", len(payloads)),
					logger.Bool("near_lock", nearLock),
				)
				stats, stored, err := svc.Ingest(ctx, payloads)
				steps = append(steps, types.StepResult{
					Name: "ingest",
					Summary: fmt.Sprintf("%s: %d items, %d signals, %d assumptions, %d skipped, %d rejected",
						path, stats.Items, stats.Signals, stats.Assumptions, stats.Skipped(), stats.Rejected),
					Err: err,
				})
				for _, a := range stored {
					fmt.Fprintf(out, "    %s\n", assumption.Summarize(a))
				}
				if stats.Empty() {
					c.log.Info(ctx, "batch produced no assumptions", logger.String("path", path))
				}
			}
			return printSteps(out, steps)
		},
	}
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "Roster YAML used to resolve names")
	return cmd
}

// --- project command ---

func (c *cli) projectCmd() *cobra.Command {
	var (
		runID string
		topN  int
	)

	cmd := &cobra.Command{
		Use:   "project <inputs.yaml>",
		Short: "Project player stat lines against the active assumptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			inputs, err := loadProjectionInputs(args[0])
			if err != nil {
				return err
			}

			svc, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			projections, err := svc.Project(ctx, runID, inputs)
			for _, p := range projections {
				fmt.Fprintf(out, "%s %s: %.1f min, %.2f pts, %.2f reb, %.2f ast, PRA %.2f [%s]\n",
					p.PlayerName, p.GameID, p.Minutes, p.Points, p.Rebounds, p.Assists, p.PRA, p.Confidence)
				for _, r := range p.Risks {
					fmt.Fprintf(out, "    risk: %s\n", r)
				}
			}
			if err != nil {
				return err
			}
			if len(projections) == 0 || topN <= 0 {
				return nil
			}

			top, err := svc.TopN(ctx, projections[0].RunID, topN)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTop %d by PRA (run %s):\n", len(top), projections[0].RunID)
			for i, p := range top {
				fmt.Fprintf(out, "  %2d. %s %.2f\n", i+1, p.PlayerName, p.PRA)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "Run id to store projections under (default: generated)")
	cmd.Flags().IntVar(&topN, "top", defaultTopN, "Leaderboard size; 0 disables it")
	return cmd
}

// --- roster command ---

func (c *cli) rosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster <roster.yaml> [name]...",
		Short: "Load a roster and resolve names against it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			players, err := loadRoster(args[0])
			if err != nil {
				return err
			}
			svc, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			n := svc.RefreshRoster(ctx, players)
			fmt.Fprintf(out, "%d players loaded, %d dropped\n", n, len(players)-n)

			for _, name := range args[1:] {
				m, err := svc.Resolver().Resolve(ctx, name)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", name, err)
					continue
				}
				fmt.Fprintf(out, "%s: %s (%s) %s %.2f\n", name, m.Player.Name, m.Player.ID, m.Tier, m.Score)
			}
			return nil
		},
	}
}
