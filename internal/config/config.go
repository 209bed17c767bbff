package config

// #region imports
import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/careerpilot/internal/career"
)

// #endregion

// #region document

// Config is the structured document read at agent start and on explicit
// reload. The core never writes it.
type Config struct {
	General   General             `yaml:"general"`
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// General holds the scenario-independent knobs.
type General struct {
	Hotkey              string  `yaml:"hotkey"`
	Debug               bool    `yaml:"debug"`
	AutoRestMinimum     int     `yaml:"autoRestMinimum"`
	UndertrainThreshold float64 `yaml:"undertrainThreshold"`
	TopStatsFocus       int     `yaml:"topStatsFocus"`
	SkillCheckInterval  int     `yaml:"skillCheckInterval"`
	SkillPtsDelta       int     `yaml:"skillPtsDelta"`
	Scenario            string  `yaml:"scenario"`
	Controller          string  `yaml:"controller"`
	ScenarioConfirmed   bool    `yaml:"scenarioConfirmed"`
}

// Scenario selects one preset out of a list.
type Scenario struct {
	ActivePreset string   `yaml:"activePreset"`
	Presets      []Preset `yaml:"presets"`
}

// #endregion document

// #region preset

// PlannedRace is one scheduled race entry. Tentative entries may be pre-empted
// by a sufficiently strong training tile.
type PlannedRace struct {
	Name      string `yaml:"name"`
	Tentative bool   `yaml:"tentative"`
}

// StyleEntry is one dated running-style change.
type StyleEntry struct {
	YearCode int    `yaml:"yearCode"`
	Month    int    `yaml:"month"`
	Half     int    `yaml:"half"`
	Style    string `yaml:"style"`
}

// Preset is the per-run configuration shape.
type Preset struct {
	ID string `yaml:"id"`

	PriorityStats []string       `yaml:"priorityStats"`
	TargetStats   map[string]int `yaml:"targetStats"` // monotonic ceilings for the evaluator

	MinimumMood       string `yaml:"minimumMood"`
	JuniorMinimumMood string `yaml:"juniorMinimumMood"`

	JuniorStyle   string       `yaml:"juniorStyle"`
	StyleSchedule []StyleEntry `yaml:"styleSchedule"`

	Skills       []string               `yaml:"skills"`
	PlannedRaces map[string]PlannedRace `yaml:"plannedRaces"` // keyed "Y2-06-1"

	RaceIfNoGoodValue  bool    `yaml:"raceIfNoGoodValue"`
	WeakTurnSV         float64 `yaml:"weakTurnSv"`
	RacePrecheckSV     float64 `yaml:"racePrecheckSv"`
	LobbyPrecheck      bool    `yaml:"lobbyPrecheck"`
	GoalRaceForceTurns int     `yaml:"goalRaceForceTurns"`

	MinimumSkillPts       int  `yaml:"minimumSkillPts"`
	MaxFailure            int  `yaml:"maxFailure"`
	PrioritizeHint        bool `yaml:"prioritizeHint"`
	AcceptConsecutiveRace bool `yaml:"acceptConsecutiveRace"`
	TryAgainOnFailedGoal  bool `yaml:"tryAgainOnFailedGoal"`
	PrioritizeG1          bool `yaml:"prioritizeG1"`

	UnityCupAdvanced *UnityCupAdvanced `yaml:"unityCupAdvanced"`

	Events EventPrefs `yaml:"events"`
}

// #endregion preset

// #region event-prefs

// EventEntityPref is the per-entity event option preference.
type EventEntityPref struct {
	Pick                int      `yaml:"pick"`
	AvoidEnergyOverflow *bool    `yaml:"avoidEnergyOverflow"`
	RewardPriority      []string `yaml:"rewardPriority"`
}

// EventPrefs configures the event decider: a global default, per-entity
// blocks keyed "type/name/attr/rarity" (or just "support"/"scenario"/
// "trainee"), and explicit per-event#step overrides.
type EventPrefs struct {
	Default          EventEntityPref            `yaml:"default"`
	Entities         map[string]EventEntityPref `yaml:"entities"`
	Overrides        map[string]int             `yaml:"overrides"`
	PreferredTrainee string                     `yaml:"preferredTrainee"`
}

// #endregion event-prefs

// #region unity-cup-advanced

// UnityCupScores are the spirit/hint scoring weights fed to the evaluator.
type UnityCupScores struct {
	Rainbow             float64 `yaml:"rainbow"`
	RainbowCombo        float64 `yaml:"rainbowCombo"`
	WhiteSpiritFill     float64 `yaml:"whiteSpiritFill"`
	WhiteSpiritExploded float64 `yaml:"whiteSpiritExploded"`
	WhiteComboBase      float64 `yaml:"whiteComboBase"`
	WhiteComboPerFill   float64 `yaml:"whiteComboPerFill"`
	BlueSpirit          float64 `yaml:"blueSpirit"`
	BlueCombo           float64 `yaml:"blueCombo"`
	Hint                float64 `yaml:"hint"`
}

// UnityCupMultipliers scale spirit contributions by career season.
type UnityCupMultipliers struct {
	JuniorClassic float64 `yaml:"juniorClassic"`
	Senior        float64 `yaml:"senior"`
}

// UnityCupBurstDeadline boosts spirit value close to the scenario milestone.
type UnityCupBurstDeadline struct {
	WindowTurns   int     `yaml:"windowTurns"`
	Boost         float64 `yaml:"boost"`
	FinalTwoBoost float64 `yaml:"finalTwoBoost"`
}

// UnityCupAdvanced is the scenario-specific advanced preset block.
type UnityCupAdvanced struct {
	BurstAllowedStats []string              `yaml:"burstAllowedStats"`
	Scores            UnityCupScores        `yaml:"scores"`
	Multipliers       UnityCupMultipliers   `yaml:"multipliers"`
	BurstDeadline     UnityCupBurstDeadline `yaml:"burstDeadline"`
	OpponentSelection map[string]int        `yaml:"opponentSelection"` // "race1".."race5", "defaultUnknown"
}

// DefaultUnityCupAdvanced returns the tuned default block.
func DefaultUnityCupAdvanced() *UnityCupAdvanced {
	return &UnityCupAdvanced{
		BurstAllowedStats: []string{"SPD", "STA", "PWR", "GUTS", "WIT"},
		Scores: UnityCupScores{
			Rainbow:             1.0,
			RainbowCombo:        0.5,
			WhiteSpiritFill:     0.4,
			WhiteSpiritExploded: 0.13,
			WhiteComboBase:      0.2,
			WhiteComboPerFill:   0.25,
			BlueSpirit:          0.6,
			BlueCombo:           0.3,
			Hint:                0.5,
		},
		Multipliers: UnityCupMultipliers{JuniorClassic: 1.15, Senior: 1.0},
		BurstDeadline: UnityCupBurstDeadline{
			WindowTurns:   8,
			Boost:         1.25,
			FinalTwoBoost: 1.6,
		},
		OpponentSelection: map[string]int{"defaultUnknown": 2},
	}
}

// #endregion unity-cup-advanced

// #region load

// Load reads and validates the config document.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	g := &c.General
	if g.Hotkey == "" {
		g.Hotkey = "F2"
	}
	if g.AutoRestMinimum == 0 {
		g.AutoRestMinimum = 20
	}
	if g.UndertrainThreshold == 0 {
		g.UndertrainThreshold = 6.0
	}
	if g.TopStatsFocus == 0 {
		g.TopStatsFocus = 3
	}
	if g.SkillCheckInterval == 0 {
		g.SkillCheckInterval = 3
	}
	if g.SkillPtsDelta == 0 {
		g.SkillPtsDelta = 120
	}
	if g.Scenario == "" {
		g.Scenario = "ura"
	}
	if g.Controller == "" {
		g.Controller = "desktop"
	}
	for key, sc := range c.Scenarios {
		for i := range sc.Presets {
			p := &sc.Presets[i]
			if p.WeakTurnSV == 0 {
				p.WeakTurnSV = 1.0
			}
			if p.RacePrecheckSV == 0 {
				p.RacePrecheckSV = 2.5
			}
			if p.GoalRaceForceTurns == 0 {
				p.GoalRaceForceTurns = 5
			}
			if p.MinimumSkillPts == 0 {
				p.MinimumSkillPts = 700
			}
			if p.MaxFailure == 0 {
				p.MaxFailure = 20
			}
			if key == "unity_cup" && p.UnityCupAdvanced == nil {
				p.UnityCupAdvanced = DefaultUnityCupAdvanced()
			}
		}
		c.Scenarios[key] = sc
	}
}

func (c *Config) validate() error {
	sc, ok := c.Scenarios[c.General.Scenario]
	if !ok {
		return fmt.Errorf("config: scenario %q not defined", c.General.Scenario)
	}
	if len(sc.Presets) == 0 {
		return fmt.Errorf("config: scenario %q has no presets", c.General.Scenario)
	}
	if _, err := c.ActivePreset(); err != nil {
		return err
	}
	for key := range c.Scenarios {
		for _, p := range c.Scenarios[key].Presets {
			for dateKey := range p.PlannedRaces {
				if !validDateKey(dateKey) {
					return fmt.Errorf("config: preset %q planned race key %q is not Y<y>-<MM>-<h>", p.ID, dateKey)
				}
			}
		}
	}
	return nil
}

func validDateKey(key string) bool {
	var y, m, h int
	if _, err := fmt.Sscanf(key, "Y%d-%d-%d", &y, &m, &h); err != nil {
		return false
	}
	return y >= 1 && y <= 3 && m >= 1 && m <= 12 && (h == 1 || h == 2)
}

// ActivePreset resolves the active scenario's active preset.
func (c *Config) ActivePreset() (*Preset, error) {
	sc := c.Scenarios[c.General.Scenario]
	if sc.ActivePreset == "" && len(sc.Presets) > 0 {
		return &sc.Presets[0], nil
	}
	for i := range sc.Presets {
		if sc.Presets[i].ID == sc.ActivePreset {
			return &sc.Presets[i], nil
		}
	}
	return nil, fmt.Errorf("config: active preset %q not found in scenario %q",
		sc.ActivePreset, c.General.Scenario)
}

// #endregion load

// #region preset-helpers

// StyleScheduleEntries converts the preset's schedule to career entries.
func (p *Preset) StyleScheduleEntries() []career.StyleScheduleEntry {
	out := make([]career.StyleScheduleEntry, 0, len(p.StyleSchedule))
	for _, e := range p.StyleSchedule {
		out = append(out, career.StyleScheduleEntry{
			Date:  career.Date{YearCode: e.YearCode, Month: e.Month, Half: e.Half},
			Style: career.Style(e.Style),
		})
	}
	return out
}

// MinimumMoodFor returns the mood floor at a date; junior year may carry its
// own lower floor.
func (p *Preset) MinimumMoodFor(date *career.Date) career.Mood {
	if date != nil && date.YearCode == career.YearJunior && p.JuniorMinimumMood != "" {
		return career.ParseMood(p.JuniorMinimumMood)
	}
	if p.MinimumMood == "" {
		return career.MoodNormal
	}
	return career.ParseMood(p.MinimumMood)
}

// TargetFor returns the target cap for a stat (0 when unset).
func (p *Preset) TargetFor(key career.StatKey) int {
	return p.TargetStats[string(key)]
}

// #endregion preset-helpers
