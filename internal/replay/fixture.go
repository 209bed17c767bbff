package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
)

// #endregion

// #region types

// RecordedDetection is one detection serialized into a fixture.
type RecordedDetection struct {
	Class string     `json:"class"`
	Conf  float64    `json:"conf"`
	Box   [4]float64 `json:"box"`
}

// Tick is one recorded perception frame, optionally annotated with the
// screen label an operator assigned to it.
type Tick struct {
	Index      int                 `json:"index"`
	Detections []RecordedDetection `json:"detections"`
	Expected   string              `json:"expected,omitempty"`
}

// Fixture is a recorded run for offline classification replay.
type Fixture struct {
	Scenario string `json:"scenario"`
	Ticks    []Tick `json:"ticks"`
}

// #endregion types

// #region io

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// SaveFixture writes a fixture file.
func SaveFixture(path string, fx *Fixture) error {
	raw, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}

// ToDetections converts a tick's recorded boxes into live detections.
func (t *Tick) ToDetections() []perception.Detection {
	out := make([]perception.Detection, len(t.Detections))
	for i, d := range t.Detections {
		out[i] = perception.Detection{
			Index: i,
			Class: d.Class,
			Conf:  d.Conf,
			Box:   controller.Box{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]},
		}
	}
	return out
}

// #endregion io
