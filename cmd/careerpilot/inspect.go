package main

// #region imports
import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/careerpilot/internal/logging"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
)

// #endregion

// #region inspect-command

func newInspectCmd() *cobra.Command {
	var (
		dbPath    string
		scenario  string
		decisions int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump the persisted memories and recent decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := memory.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			meta, ok, err := store.LoadRunMetadata()
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("run: id=%s preset=%s scenario=%s date=%s idx=%d updated=%s\n",
					meta.RunID, meta.PresetID, meta.Scenario, meta.DateKey, meta.DateIndex,
					meta.UpdatedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("run: (no metadata)")
			}

			skillMem := memory.NewSkillMemory(store, scenario)
			purchases, err := skillMem.Purchases()
			if err != nil {
				return err
			}
			fmt.Printf("skill purchases (%d):\n", len(purchases))
			for _, p := range purchases {
				fmt.Printf("  %s [%s]\n", p[0], p[1])
			}

			palMem := memory.NewPalMemory(store, scenario)
			fmt.Printf("pal: icon_present=%v any_next_energy=%v\n",
				palMem.IconPresent(), palMem.AnyNextEnergy())

			if decisions > 0 {
				rows, err := logging.RecentDecisions(store.DB(), decisions)
				if err != nil {
					return err
				}
				fmt.Printf("recent decisions (%d):\n", len(rows))
				for _, d := range rows {
					fmt.Printf("  tick=%-5d [%s] screen=%-16s %s %s\n",
						d.Tick, d.Handler, d.Screen, d.Decision, d.Reason)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", envOr("CAREERPILOT_DB", "careerpilot.db"), "memory database")
	cmd.Flags().StringVar(&scenario, "scenario", "ura", "scenario key")
	cmd.Flags().IntVar(&decisions, "decisions", 20, "recent decision rows to show")
	return cmd
}

// #endregion inspect-command
