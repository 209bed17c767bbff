package perception

// #region imports
import (
	"sort"

	"github.com/danielpatrickdp/careerpilot/internal/controller"
)

// #endregion

// #region filters

// FilterByClasses keeps detections whose class is in names and whose
// confidence is at least confMin.
func FilterByClasses(dets []Detection, names []string, confMin float64) []Detection {
	if len(names) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []Detection
	for _, d := range dets {
		if wanted[d.Class] && d.Conf >= confMin {
			out = append(out, d)
		}
	}
	return out
}

// Find returns every detection of the given class.
func Find(dets []Detection, class string) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Class == class {
			out = append(out, d)
		}
	}
	return out
}

// FindBest returns the highest-confidence detection of class at or above
// confMin, or nil.
func FindBest(dets []Detection, class string, confMin float64) *Detection {
	var best *Detection
	for i := range dets {
		d := &dets[i]
		if d.Class != class || d.Conf < confMin {
			continue
		}
		if best == nil || d.Conf > best.Conf {
			best = d
		}
	}
	return best
}

// CountConf counts detections of class with confidence ≥ threshold.
func CountConf(dets []Detection, class string, threshold float64) int {
	n := 0
	for _, d := range dets {
		if d.Class == class && d.Conf >= threshold {
			n++
		}
	}
	return n
}

// AnyConf reports whether any detection of class reaches threshold.
func AnyConf(dets []Detection, class string, threshold float64) bool {
	return CountConf(dets, class, threshold) > 0
}

// BottomMost returns the detection with the largest vertical center, or nil.
func BottomMost(dets []Detection) *Detection {
	var best *Detection
	for i := range dets {
		d := &dets[i]
		if best == nil || d.Box.CenterY() > best.Box.CenterY() {
			best = d
		}
	}
	return best
}

// SortTopToBottom orders detections by their top edge, in place.
func SortTopToBottom(dets []Detection) {
	sort.Slice(dets, func(i, j int) bool {
		return dets[i].Box.Y1 < dets[j].Box.Y1
	})
}

// SortBottomFirst orders detections bottom-most first, in place.
func SortBottomFirst(dets []Detection) {
	sort.Slice(dets, func(i, j int) bool {
		return dets[i].Box.CenterY() > dets[j].Box.CenterY()
	})
}

// #endregion filters

// #region dedup

// DedupOverlaps drops lower-confidence detections whose box overlaps an
// already-kept one by more than half its own area. The detector occasionally
// reports the same marker twice with different confidences.
func DedupOverlaps(dets []Detection) []Detection {
	if len(dets) <= 1 {
		return dets
	}
	ordered := make([]Detection, len(dets))
	copy(ordered, dets)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Conf > ordered[j].Conf
	})

	var keep []Detection
	for _, d := range ordered {
		area := d.Box.Width() * d.Box.Height()
		dup := false
		for _, k := range keep {
			if area > 0 && intersectArea(d.Box, k.Box)/area > 0.5 {
				dup = true
				break
			}
		}
		if !dup {
			keep = append(keep, d)
		}
	}
	return keep
}

func intersectArea(a, b controller.Box) float64 {
	ix1 := maxF(a.X1, b.X1)
	iy1 := maxF(a.Y1, b.Y1)
	ix2 := minF(a.X2, b.X2)
	iy2 := minF(a.Y2, b.Y2)
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	return (ix2 - ix1) * (iy2 - iy1)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// #endregion dedup

// #region signature

// SignatureItem is one detection reduced to (class, coarse position bucket).
type SignatureItem struct {
	Class string
	XBkt  int
	YBkt  int
}

// Signature reduces a detection set to coarse position buckets (~8 px) so two
// frames of the same view compare equal despite jitter.
func Signature(dets []Detection) []SignatureItem {
	out := make([]SignatureItem, 0, len(dets))
	for _, d := range dets {
		cx, cy := d.Box.Center()
		out = append(out, SignatureItem{Class: d.Class, XBkt: int(cx) / 8, YBkt: int(cy) / 8})
	}
	return out
}

// NearlySame reports whether two signatures describe the same view: equal
// per-class counts and every item of a matched by an unused item of b within
// one bucket in each axis.
func NearlySame(a, b []SignatureItem) bool {
	if len(a) != len(b) {
		return false
	}
	countA := map[string]int{}
	countB := map[string]int{}
	for _, it := range a {
		countA[it.Class]++
	}
	for _, it := range b {
		countB[it.Class]++
	}
	if len(countA) != len(countB) {
		return false
	}
	for k, v := range countA {
		if countB[k] != v {
			return false
		}
	}

	const tol = 1
	pools := map[string][][2]int{}
	for _, it := range b {
		pools[it.Class] = append(pools[it.Class], [2]int{it.XBkt, it.YBkt})
	}
	for _, it := range a {
		pool := pools[it.Class]
		match := -1
		for j, p := range pool {
			dx := absI(it.XBkt - p[0])
			dy := absI(it.YBkt - p[1])
			if dx <= tol && dy <= tol {
				match = j
				break
			}
		}
		if match == -1 {
			return false
		}
		pools[it.Class] = append(pool[:match], pool[match+1:]...)
	}
	return true
}

func absI(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion signature
