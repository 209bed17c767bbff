package training

// #region imports
import (
	"fmt"

	"github.com/danielpatrickdp/careerpilot/internal/career"
	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

// #endregion

// #region support

// Bar colors for a support's friendship gauge.
const (
	BarGray   = "gray"
	BarBlue   = "blue"
	BarGreen  = "green"
	BarOrange = "orange"
	BarYellow = "yellow"
)

// Special support portrait classes.
const (
	SupportReporter  = "support_etsuko"
	SupportDirector  = "support_director"
	SupportTazuna    = "support_tazuna"
	SupportKashimoto = "support_kashimoto"
)

// Support is one support-card presence on a training tile overlay.
type Support struct {
	Class      string // detection class (support_* portrait marker)
	Type       string // stat letter of the card, "PAL", or ""
	CardName   string // matched card for per-card priority config, "" when unmatched
	BarColor   string
	IsMax      bool
	HasHint    bool
	HasRainbow bool
}

// #endregion support

// #region tile

// Tile is one scanned training tile with its overlay evidence.
type Tile struct {
	Index      int
	Stat       career.StatKey
	Box        controller.Box
	Supports   []Support
	FailurePct int

	// Unity Cup spirit indicators
	WhiteSpirits  int
	WhiteExploded int
	BlueSpirit    career.StatKey // "" when the tile has no blue spirit
}

// #endregion tile

// #region sv

// BurstBlock names why a tile's blue spirit was filtered from burst picks.
// The sole-candidate exception applies only to allow-list violations; a stat
// at or above its target cap never bursts.
type BurstBlock string

const (
	BurstBlockNone       BurstBlock = ""
	BurstBlockNotAllowed BurstBlock = "not_allowed"
	BurstBlockAtCap      BurstBlock = "at_cap"
)

// SV is the evaluated support value for one tile, with the risk verdict and
// a human-readable breakdown.
type SV struct {
	TileIndex     int
	Stat          career.StatKey
	Total         float64
	ByType        map[string]float64
	FailurePct    int
	RiskLimitPct  int
	AllowedByRisk bool
	GreedyHit     bool
	BurstOK       bool           // Unity Cup: blue spirit may burst on this tile
	BurstBlock    BurstBlock     // Unity Cup: why the burst was filtered, when it was
	BlueStat      career.StatKey // Unity Cup: stat the tile's blue spirit lands on
	Notes         []string
}

func (s *SV) note(format string, args ...any) {
	s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
}

func (s *SV) add(bucket string, v float64) {
	if s.ByType == nil {
		s.ByType = map[string]float64{}
	}
	s.Total += v
	s.ByType[bucket] += v
}

// #endregion sv
