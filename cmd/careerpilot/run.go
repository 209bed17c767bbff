package main

// #region imports
import (
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/careerpilot/internal/abort"
	"github.com/danielpatrickdp/careerpilot/internal/agent"
	"github.com/danielpatrickdp/careerpilot/internal/catalog"
	"github.com/danielpatrickdp/careerpilot/internal/config"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/events"
	"github.com/danielpatrickdp/careerpilot/internal/logging"
	"github.com/danielpatrickdp/careerpilot/internal/memory"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/race"
	"github.com/danielpatrickdp/careerpilot/internal/scenario"
	"github.com/danielpatrickdp/careerpilot/internal/skills"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region run-command

func newRunCmd() *cobra.Command {
	var (
		configPath    string
		dbPath        string
		visionAddr    string
		bridgeAddr    string
		datasetsDir   string
		delayMs       int
		maxIterations int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the career loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCareer(configPath, dbPath, visionAddr, bridgeAddr, datasetsDir,
				time.Duration(delayMs)*time.Millisecond, maxIterations)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", envOr("CAREERPILOT_CONFIG", "config.yaml"), "config document")
	cmd.Flags().StringVar(&dbPath, "db", envOr("CAREERPILOT_DB", "careerpilot.db"), "memory database")
	cmd.Flags().StringVar(&visionAddr, "vision-addr", envOr("VISION_ADDR", "localhost:50051"), "vision service (detect/ocr)")
	cmd.Flags().StringVar(&bridgeAddr, "bridge-addr", envOr("BRIDGE_ADDR", "localhost:50052"), "controller bridge service")
	cmd.Flags().StringVar(&datasetsDir, "datasets", envOr("CAREERPILOT_DATASETS", "datasets"), "catalog directory")
	cmd.Flags().IntVar(&delayMs, "delay-ms", 400, "tick delay")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "stop after N ticks (0 = unbounded)")
	return cmd
}

func runCareer(configPath, dbPath, visionAddr, bridgeAddr, datasetsDir string, delay time.Duration, maxIterations int) error {
	cfgStore, err := config.NewStore(configPath)
	if err != nil {
		return err
	}
	defer cfgStore.Close()
	cfg := cfgStore.Snapshot()
	preset, err := cfg.ActivePreset()
	if err != nil {
		return err
	}

	store, err := memory.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := logging.EnsureSchema(store.DB()); err != nil {
		return err
	}

	ctrl, err := controller.NewRemoteBridge(bridgeAddr)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	pollCfg := waiter.DefaultPollConfig(ctrl.Kind(), cfg.General.Scenario)
	vision, err := perception.NewRemoteClient(visionAddr, pollCfg.Interval)
	if err != nil {
		return err
	}
	defer vision.Close()

	deps, err := buildAgentDeps(cfg, preset, cfgStore, store, ctrl, vision, vision, pollCfg, datasetsDir)
	if err != nil {
		return err
	}

	// Stop flag: the hotkey monitor owns it in desktop builds; headless runs
	// get the same semantics from SIGINT/SIGTERM.
	abort.Shared.Clear()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("[agent] stop requested")
		abort.Shared.Request()
	}()

	a := agent.New(deps)
	err = a.Run(delay, maxIterations)
	logCounters(a)
	if errors.Is(err, agent.ErrAborted) {
		return nil
	}
	return err
}

func logCounters(a *agent.Agent) {
	c := a.Counters()
	log.Printf("[agent] relaxed_classifications=%v soft_fails=%v",
		c.RelaxedClassifications, c.SoftFails)
}

// #endregion run-command

// #region wiring

// buildAgentDeps assembles the flows behind the agent for a scenario.
func buildAgentDeps(
	cfg *config.Config,
	preset *config.Preset,
	cfgStore *config.Store,
	store *memory.Store,
	ctrl controller.Controller,
	det perception.Detector,
	ocr perception.OCR,
	pollCfg waiter.PollConfig,
	datasetsDir string,
) (agent.Deps, error) {
	scenarioKey := cfg.General.Scenario

	skillCat, err := catalog.LoadSkillCatalog(filepath.Join(datasetsDir, "skills.json"))
	if err != nil {
		return agent.Deps{}, err
	}
	raceIdx, err := catalog.LoadRaceIndex(filepath.Join(datasetsDir, "races.json"))
	if err != nil {
		return agent.Deps{}, err
	}
	eventCat, err := catalog.LoadEventCatalog(filepath.Join(datasetsDir, "events.json"))
	if err != nil {
		return agent.Deps{}, err
	}

	skillMem := memory.NewSkillMemory(store, scenarioKey)
	palMem := memory.NewPalMemory(store, scenarioKey)

	plans := map[string]memory.PlannedEntry{}
	for key, pr := range preset.PlannedRaces {
		plans[key] = memory.PlannedEntry{Name: pr.Name, Tentative: pr.Tentative}
	}
	planned := memory.NewPlannedRaces(store, plans)

	registry := scenario.NewRegistry()
	owned := skillMem.HasAnyGrade
	registry.Register(scenario.NewURAPolicy(preset, owned))
	registry.Register(scenario.NewUnityCupPolicy(preset, owned))
	policy, err := registry.Get(scenarioKey)
	if err != nil {
		return agent.Deps{}, err
	}

	w := waiter.New(ctrl, det, ocr, pollCfg, &abort.Shared)
	scanner := &scenario.DetectionTileScanner{W: w, OCR: ocr}

	lobby := scenario.NewLobbyFlow(ctrl, ocr, w, policy, scanner, nil,
		preset, cfg.General, palMem, planned, eventCat)

	skillsFlow := skills.NewFlow(ctrl, ocr, w, skills.NewMatcher(skillCat), skillMem, nil)

	raceFlow := race.NewFlow(ctrl, ocr, w, raceIdx, nil)
	raceFlow.AcceptConsecutiveRace = preset.AcceptConsecutiveRace
	raceFlow.TryAgainOnFailedGoal = preset.TryAgainOnFailedGoal

	eventFlow := events.NewFlow(ctrl, ocr, eventCat, eventPrefsFromConfig(preset))

	return agent.Deps{
		Ctrl: ctrl, OCR: ocr, Waiter: w,
		Policy: policy, Lobby: lobby,
		SkillsFlow: skillsFlow, RaceFlow: raceFlow, EventFlow: eventFlow,
		Store: store, SkillMem: skillMem, Planned: planned,
		CfgStore: cfgStore, Preset: preset, General: cfg.General,
		Stop: &abort.Shared,
	}, nil
}

func eventPrefsFromConfig(preset *config.Preset) *events.Prefs {
	prefs := &events.Prefs{
		Default: events.EntityPref{
			Pick:                preset.Events.Default.Pick,
			AvoidEnergyOverflow: preset.Events.Default.AvoidEnergyOverflow,
			RewardPriority:      preset.Events.Default.RewardPriority,
		},
		ByEntity:             map[string]events.EntityPref{},
		Overrides:            map[string]int{},
		PreferredTraineeName: preset.Events.PreferredTrainee,
	}
	for key, e := range preset.Events.Entities {
		prefs.ByEntity[key] = events.EntityPref{
			Pick:                e.Pick,
			AvoidEnergyOverflow: e.AvoidEnergyOverflow,
			RewardPriority:      e.RewardPriority,
		}
	}
	for key, pick := range preset.Events.Overrides {
		prefs.Overrides[key] = pick
	}
	return prefs
}

// #endregion wiring
