package scenario

// #region imports
import (
	"log"
	"sort"
	"time"

	"github.com/danielpatrickdp/careerpilot/internal/perception"
	"github.com/danielpatrickdp/careerpilot/internal/waiter"
)

// #endregion

// #region lobby-clicks

// GoRest clicks the rest tile (or the summer rest tile during camp).
func (f *LobbyFlow) GoRest(reason string) bool {
	log.Printf("[lobby] %s", reason)
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbyRest, perception.ClassLobbyRestSummer},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "lobby_rest",
	})
	if res == waiter.Ok {
		time.Sleep(3 * time.Second)
		return true
	}
	return false
}

// GoSkills opens the Skills screen.
func (f *LobbyFlow) GoSkills() bool {
	log.Printf("[lobby] Opening Skills")
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbySkills},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "lobby_skills",
	})
	if res == waiter.Ok {
		time.Sleep(1 * time.Second)
		return true
	}
	return false
}

// GoInfirmary clicks the infirmary tile.
func (f *LobbyFlow) GoInfirmary() bool {
	log.Printf("[lobby] Infirmary ON → going to infirmary")
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbyInfirmary},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "lobby_infirmary",
	})
	if res == waiter.Ok {
		time.Sleep(2 * time.Second)
		return true
	}
	return false
}

// GoTraining enters the training screen.
func (f *LobbyFlow) GoTraining() bool {
	log.Printf("[lobby] Go Train")
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbyTraining},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "lobby_training",
	})
	return res == waiter.Ok
}

// GoBack clicks the OCR-gated BACK button.
func (f *LobbyFlow) GoBack() bool {
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassButtonWhite},
		Texts:        []string{"BACK"},
		PreferBottom: true,
		Timeout:      2 * time.Second,
		Tag:          "lobby_back",
	})
	if res == waiter.Ok {
		log.Printf("[lobby] GO BACK")
		time.Sleep(1 * time.Second)
		return true
	}
	return false
}

// #endregion lobby-clicks

// #region recreation

// palSupportName maps a PAL portrait class to its canonical catalog name.
var palSupportName = map[string]string{
	"support_kashimoto": "Riko Kashimoto",
	"support_tazuna":    "Tazuna Hayakawa",
	"support_director":  "Aoi Kiryuin",
}

// GoRecreate opens the recreation view and, when PAL rows are offered, picks
// the scored best active row, persisting a chain snapshot per row so the
// next-step-energy prediction stays current.
func (f *LobbyFlow) GoRecreate(reason string) bool {
	log.Printf("[lobby] %s", reason)
	_, res := f.w.ClickWhen(waiter.Spec{
		Classes:      []string{perception.ClassLobbyRecreation, perception.ClassLobbyRestSummer},
		PreferBottom: true,
		Timeout:      2500 * time.Millisecond,
		Tag:          "lobby_recreate",
	})
	if res != waiter.Ok {
		return false
	}
	time.Sleep(2 * time.Second)

	frame, err := f.w.Snap("recreation_screen")
	if err != nil {
		return true
	}
	rows := perception.Find(frame.Detections, perception.ClassRecreationRow)
	if len(rows) == 0 {
		time.Sleep(2 * time.Second)
		return true
	}

	type scoredRow struct {
		det   perception.Detection
		score float64
	}
	var candidates []scoredRow
	energyNeed := f.State.Energy >= 0 && f.State.Energy <= f.State.AutoRestMinimum

	for _, row := range rows {
		if f.prober.ActiveProb(frame, row.Box) < 0.5 {
			continue
		}
		score := 0.5

		var supportClass string
		for _, d := range frame.Detections {
			cx, cy := d.Box.Center()
			if cx >= row.Box.X1 && cx <= row.Box.X2 && cy >= row.Box.Y1 && cy <= row.Box.Y2 {
				if _, ok := palSupportName[d.Class]; ok {
					supportClass = d.Class
					break
				}
			}
		}
		if supportClass != "" {
			steps := 0
			for _, d := range perception.Find(frame.Detections, perception.ClassEventChain) {
				cx, cy := d.Box.Center()
				if cx >= row.Box.X1 && cx <= row.Box.X2 && cy >= row.Box.Y1 && cy <= row.Box.Y2 {
					steps++
				}
			}
			nextEnergy := f.nextChainEnergy(palSupportName[supportClass], steps+1)
			if err := f.pal.RecordChain(supportClass, steps, nextEnergy, f.State.DateKey()); err != nil {
				log.Printf("[lobby] pal chain record failed: %v", err)
			}
			if energyNeed && nextEnergy != nil && *nextEnergy {
				score += 10
			}
			switch supportClass {
			case "support_kashimoto":
				score += 3
			case "support_tazuna":
				score += 2
			case "support_director":
				score += 1
			}
		}
		candidates = append(candidates, scoredRow{det: row, score: score})
	}

	if len(candidates) == 0 {
		log.Printf("[lobby] No active recreation rows found, skipping click")
		time.Sleep(2 * time.Second)
		return true
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].det.Box.Y1 < candidates[j].det.Box.Y1
	})
	chosen := candidates[0]
	f.ctrl.Click(chosen.det.Box, 1)
	log.Printf("[lobby] Selected recreation row (score=%.1f)", chosen.score)
	time.Sleep(2 * time.Second)
	return true
}

// nextChainEnergy predicts whether a PAL's next chain step restores energy,
// from the event catalog. nil when the catalog has no record.
func (f *LobbyFlow) nextChainEnergy(supportName string, nextStep int) *bool {
	if f.events == nil {
		return nil
	}
	for _, rec := range f.events.Records() {
		if rec.Type != "support" || rec.Attribute != "PAL" {
			continue
		}
		if rec.Name != supportName || rec.Step != nextStep {
			continue
		}
		yes := false
		for opt := 1; opt <= rec.OptionCount(); opt++ {
			if rec.MaxPositiveEnergy(opt) > 0 {
				yes = true
				break
			}
		}
		return &yes
	}
	return nil
}

// #endregion recreation
