package main

// #region imports
import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/replay"
	"github.com/danielpatrickdp/careerpilot/internal/scenario"
)

// #endregion

// #region replay-command

func newReplayCmd() *cobra.Command {
	var (
		fixturePath string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded fixture through the screen classifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := replay.LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			var policy scenario.Policy
			switch fx.Scenario {
			case "unity_cup":
				policy = scenario.NewUnityCupPolicy(defaultPreset(), nil)
			default:
				policy = scenario.NewURAPolicy(defaultPreset(), nil)
			}

			results, summary := replay.Replay(fx, policy)
			if verbose {
				for _, r := range results {
					marker := " "
					if !r.Match {
						marker = "✗"
					}
					fmt.Printf("%s tick=%-4d screen=%-16s relaxed=%-5v expected=%s\n",
						marker, r.TickIndex, r.Screen, r.Relaxed, r.Expected)
				}
			}
			fmt.Printf("ticks=%d unknown=%d relaxed=%d mismatches=%d\n",
				summary.TotalTicks, summary.Unknown, summary.Relaxed, summary.Mismatches)
			for screen, n := range summary.ByScreen {
				fmt.Printf("  %-16s %d\n", screen, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture file (required)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print per-tick results")
	cmd.MarkFlagRequired("fixture")
	return cmd
}

func defaultPreset() *config.Preset {
	return &config.Preset{
		ID:                 "replay",
		WeakTurnSV:         1.0,
		RacePrecheckSV:     2.5,
		GoalRaceForceTurns: 5,
		MinimumSkillPts:    700,
		MaxFailure:         20,
		UnityCupAdvanced:   config.DefaultUnityCupAdvanced(),
	}
}

// #endregion replay-command
