package replay

// #region imports
import (
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/scenario"
)

// #endregion

// #region results

// Result is one tick's replayed classification.
type Result struct {
	TickIndex int
	Screen    perception.Screen
	Relaxed   bool
	Expected  string
	Match     bool // Expected empty counts as a match
}

// Summary aggregates a replay run.
type Summary struct {
	TotalTicks int
	ByScreen   map[perception.Screen]int
	Unknown    int
	Relaxed    int
	Mismatches int
}

// #endregion results

// #region replay

// patience escalation mirrors the live loop: relaxed thresholds turn on
// after this many consecutive Unknown ticks.
const relaxAfterUnknown = 3

// Replay runs every recorded tick through the policy's classifier with the
// same patience escalation as the live loop. Operates entirely offline.
func Replay(fx *Fixture, policy scenario.Policy) ([]Result, Summary) {
	results := make([]Result, 0, len(fx.Ticks))
	summary := Summary{ByScreen: map[perception.Screen]int{}}

	unknownStreak := 0
	for _, tick := range fx.Ticks {
		relaxed := unknownStreak >= relaxAfterUnknown
		cls := policy.Classify(tick.ToDetections(), relaxed)

		if cls.Screen == perception.ScreenUnknown {
			unknownStreak++
			summary.Unknown++
		} else {
			unknownStreak = 0
		}
		if cls.Relaxed {
			summary.Relaxed++
		}

		res := Result{
			TickIndex: tick.Index,
			Screen:    cls.Screen,
			Relaxed:   cls.Relaxed,
			Expected:  tick.Expected,
			Match:     tick.Expected == "" || tick.Expected == string(cls.Screen),
		}
		if !res.Match {
			summary.Mismatches++
		}
		summary.ByScreen[cls.Screen]++
		summary.TotalTicks++
		results = append(results, res)
	}
	return results, summary
}

// #endregion replay
