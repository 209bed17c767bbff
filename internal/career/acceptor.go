package career

// #region imports
import (
	"log"
)

// #endregion

// #region constants

const (
	dateWarmupFrames     = 2
	datePersistFrames    = 2
	maxSuspectJumpHalves = 6
)

// #endregion

// #region acceptor

// DateAcceptor owns the monotonic career-date sequence. OCR candidates pass
// through warm-up, persistence, and auto-advance rules before a date is
// committed, so a single glitched frame never moves the clock backwards or
// three months forward.
type DateAcceptor struct {
	current *Date

	stableCount      int
	artificial       bool // auto-advanced, overwritable by any real read
	pendingJump      *Date
	pendingBack      *Date
	pendingBackHits  int
	lastTurnAtCommit int
	haveTurnAnchor   bool
}

// NewDateAcceptor starts with no accepted date.
func NewDateAcceptor() *DateAcceptor {
	return &DateAcceptor{lastTurnAtCommit: -1}
}

// Current returns the accepted date, or nil before the first acceptance.
func (a *DateAcceptor) Current() *Date {
	return a.current
}

// Artificial reports whether the current date came from auto-advance rather
// than a confirmed read.
func (a *DateAcceptor) Artificial() bool { return a.artificial }

// #endregion acceptor

// #region observe

// Observe feeds one tick's OCR candidate (nil when parsing failed) and the
// current turns-left counter. Returns true when the accepted date changed.
func (a *DateAcceptor) Observe(cand *Date, turn int) bool {
	if cand == nil {
		return a.observeEmpty(turn)
	}

	prev := a.current

	// Finals lock: once terminal, only finals frames are believed.
	if prev != nil && prev.IsFinals() {
		if cand.YearCode == YearFinals {
			a.commit(*cand, turn, false, "finals")
			return true
		}
		log.Printf("[date] ignoring non-final read after finals lock")
		return false
	}

	// A regular year never regresses to pre-debut.
	if prev != nil && prev.IsRegularYear() && cand.IsPreDebut() {
		log.Printf("[date] ignoring backward read %s after %s", cand.Key(), prev.Key())
		return false
	}

	if prev == nil {
		a.commit(Merge(nil, *cand), turn, false, "initial")
		return true
	}

	merged := Merge(prev, *cand)
	cmp := Cmp(merged, *prev)

	if cmp < 0 {
		return a.observeBackward(merged, turn)
	}

	// Suspiciously large forward hop: demand a second identical frame, except
	// for the legitimate Senior-December → Finals boundary.
	pi, ni := prev.Index(), merged.Index()
	if pi >= 0 && ni >= 0 && ni-pi > maxSuspectJumpHalves {
		seniorToFinals := prev.YearCode == YearSenior && prev.Month == 12 && merged.YearCode == YearFinals
		if !seniorToFinals {
			if a.pendingJump != nil && Cmp(merged, *a.pendingJump) == 0 {
				a.pendingJump = nil
				a.commit(merged, turn, false, "confirmed jump")
				return true
			}
			a.pendingJump = &merged
			log.Printf("[date] holding suspicious jump %s -> %s", prev.Key(), merged.Key())
			return false
		}
	}
	a.pendingJump = nil

	if cmp == 0 {
		// A real read matching an auto-advanced guess confirms it.
		if a.artificial {
			a.commit(merged, turn, false, "confirmed auto-advance")
			return true
		}
		// Same key read again: the day may have ticked without the label
		// re-rendering yet. Count stability; the turn counter drives advance.
		a.stableCount++
		return a.maybeAutoAdvance(turn)
	}

	a.commit(merged, turn, false, "monotonic")
	return true
}

func (a *DateAcceptor) observeEmpty(turn int) bool {
	prev := a.current
	if prev == nil || !prev.IsRegularYear() {
		return false
	}
	return a.maybeAutoAdvance(turn)
}

// maybeAutoAdvance steps one half forward when the turns-left counter moved
// down since the last committed date: a day was consumed even though OCR did
// not show it.
func (a *DateAcceptor) maybeAutoAdvance(turn int) bool {
	prev := a.current
	if prev == nil || !prev.Complete() || !prev.IsRegularYear() {
		return false
	}
	if !a.haveTurnAnchor || turn < 0 || turn >= a.lastTurnAtCommit {
		return false
	}
	next, ok := prev.Next()
	if !ok {
		return false
	}
	from := prev.Key()
	a.commit(next, turn, true, "")
	log.Printf("[date] auto-advanced by turns: %s -> %s", from, next.Key())
	return true
}

func (a *DateAcceptor) observeBackward(cand Date, turn int) bool {
	prev := a.current
	pi, ni := prev.Index(), cand.Index()
	bigBack := pi >= 0 && ni >= 0 && pi-ni > maxSuspectJumpHalves

	// Warm-up and artificial dates are freely correctable: the acceptor just
	// guessed and a real read outranks the guess.
	if a.artificial || a.stableCount < dateWarmupFrames {
		a.pendingBack = nil
		a.pendingBackHits = 0
		a.commit(cand, turn, false, "backfix (warmup/artificial)")
		return true
	}
	if !bigBack {
		a.commit(cand, turn, false, "backfix (small)")
		return true
	}

	if a.pendingBack != nil && Cmp(cand, *a.pendingBack) == 0 {
		a.pendingBackHits++
	} else {
		a.pendingBack = &cand
		a.pendingBackHits = 1
	}
	if a.pendingBackHits >= datePersistFrames {
		a.pendingBack = nil
		a.pendingBackHits = 0
		a.commit(cand, turn, false, "backfix (confirmed)")
		return true
	}
	log.Printf("[date] holding backward jump %s -> %s; need %d confirm(s)",
		prev.Key(), cand.Key(), datePersistFrames-a.pendingBackHits)
	return false
}

func (a *DateAcceptor) commit(d Date, turn int, artificial bool, reason string) {
	prevKey := "None"
	if a.current != nil {
		prevKey = a.current.Key()
	}
	committed := d
	a.current = &committed
	a.stableCount = 0
	a.artificial = artificial
	if turn >= 0 {
		a.lastTurnAtCommit = turn
		a.haveTurnAnchor = true
	}
	if reason != "" {
		log.Printf("[date] %s: %s -> %s", reason, prevKey, committed.Key())
	}
}

// #endregion observe
