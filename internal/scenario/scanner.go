package scenario

// #region imports
import (
	"sort"
	"strings"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/training"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region scanner

// TileScanner produces enriched training tiles from the Training screen.
type TileScanner interface {
	Scan() ([]training.Tile, error)
}

// DetectionTileScanner builds tiles from one snapshot: the five
// training_button boxes left to right map onto SPD..WIT; support_* overlays,
// spirit markers, and the failure bubble attach by column containment.
type DetectionTileScanner struct {
	W   *waiter.Waiter
	OCR perception.OCR
}

// Scan captures the Training screen and assembles the tile set.
func (s *DetectionTileScanner) Scan() ([]training.Tile, error) {
	frame, err := s.W.Snap("training_scan")
	if err != nil {
		return nil, err
	}
	buttons := perception.Find(frame.Detections, perception.ClassTrainingTile)
	sort.Slice(buttons, func(i, j int) bool {
		return buttons[i].Box.X1 < buttons[j].Box.X1
	})

	tiles := make([]training.Tile, 0, len(buttons))
	for i, btn := range buttons {
		tile := training.Tile{Index: i, Box: btn.Box, FailurePct: -1}
		if i < len(career.StatKeys) {
			tile.Stat = career.StatKeys[i]
		}

		cx, _ := btn.Box.Center()
		halfW := btn.Box.Width() * 0.75
		for _, d := range frame.Detections {
			dcx, _ := d.Box.Center()
			if dcx < cx-halfW || dcx > cx+halfW {
				continue
			}
			switch {
			case strings.HasPrefix(d.Class, "support_"):
				tile.Supports = append(tile.Supports, supportFromDetection(d))
			case d.Class == "spirit_white":
				tile.WhiteSpirits++
			case d.Class == "spirit_white_exploded":
				tile.WhiteExploded++
			case d.Class == "spirit_blue":
				tile.BlueSpirit = tile.Stat
			}
		}

		tile.FailurePct = s.readFailurePct(frame, btn)
		tiles = append(tiles, tile)
	}
	return tiles, nil
}

func supportFromDetection(d perception.Detection) training.Support {
	sup := training.Support{Class: d.Class, BarColor: training.BarGreen}
	switch d.Class {
	case "support_spd":
		sup.Type = "SPD"
	case "support_sta":
		sup.Type = "STA"
	case "support_pwr":
		sup.Type = "PWR"
	case "support_guts":
		sup.Type = "GUTS"
	case "support_wit":
		sup.Type = "WIT"
	case "support_pal":
		sup.Type = "PAL"
	}
	return sup
}

// readFailurePct OCRs the "Failure NN%" bubble above the tile; 0 when the
// bubble is absent or unreadable, so the risk gate lets such a tile through.
func (s *DetectionTileScanner) readFailurePct(frame *perception.Frame, btn perception.Detection) int {
	if s.OCR == nil {
		return 0
	}
	roi := btn.Box
	h := roi.Height()
	roi.Y1 -= 1.4 * h
	roi.Y2 -= 1.0 * h
	res, err := frame.ReadText(s.OCR, roi)
	if err != nil {
		return 0
	}
	if v, ok := firstInt(res.Text, 0, 100); ok {
		return v
	}
	return 0
}

// #endregion scanner
