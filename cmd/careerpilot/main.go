package main

// #region imports
import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// #endregion

// #region main

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)

	root := &cobra.Command{
		Use:   "careerpilot",
		Short: "Career-mode automation agent",
		Long: `careerpilot watches the game window through the vision service,
classifies the current screen, and drives the career loop: training,
planned races, events, and skill purchases.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
