package perception

// #region imports
import (
	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

// #endregion

// #region active-button

// ActiveButtonProber estimates whether a button crop renders enabled.
// Greyed-out affordances look like their active twins to the detector, so
// flows that must not click inactive buttons (skills BUY, View Results) run
// candidates through this before clicking.
type ActiveButtonProber interface {
	ActiveProb(frame *Frame, box controller.Box) float64
}

// AlwaysActive is the nil-object prober: every button counts as enabled.
type AlwaysActive struct{}

// ActiveProb returns 1.0 unconditionally.
func (AlwaysActive) ActiveProb(*Frame, controller.Box) float64 { return 1.0 }

// #endregion active-button
