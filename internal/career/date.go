package career

// #region imports
import (
	"fmt"
	"strings"
)

// #endregion

// #region date

// Year codes. 0 is pre-debut, 4 the finals season (no month/half).
const (
	YearPreDebut = 0
	YearJunior   = 1
	YearClassic  = 2
	YearSenior   = 3
	YearFinals   = 4
)

// Date is one half-month of career time, totally ordered lexicographically by
// (YearCode, Month, Half). Finals carries no month/half (both zero).
type Date struct {
	YearCode int
	Month    int // 1..12, 0 when unknown/finals
	Half     int // 1=Early, 2=Late, 0 when unknown/finals
	Raw      string
}

// Key renders the compact form used for planned-race lookups: "Y3-06-2".
// Finals renders as "Y4".
func (d Date) Key() string {
	if d.YearCode == YearFinals {
		return "Y4"
	}
	return fmt.Sprintf("Y%d-%02d-%d", d.YearCode, d.Month, d.Half)
}

// Complete reports whether the date carries month and half (or is finals,
// which needs neither).
func (d Date) Complete() bool {
	if d.YearCode == YearFinals {
		return true
	}
	return d.Month >= 1 && d.Month <= 12 && (d.Half == 1 || d.Half == 2)
}

// IsPreDebut reports year 0.
func (d Date) IsPreDebut() bool { return d.YearCode == YearPreDebut }

// IsFinals reports year 4.
func (d Date) IsFinals() bool { return d.YearCode == YearFinals }

// IsRegularYear reports Junior/Classic/Senior.
func (d Date) IsRegularYear() bool {
	return d.YearCode >= YearJunior && d.YearCode <= YearSenior
}

// Index flattens the date to half-months since pre-debut, for distance
// checks. Incomplete regular-year dates return -1.
func (d Date) Index() int {
	switch {
	case d.YearCode == YearPreDebut:
		return 0
	case d.YearCode == YearFinals:
		return 1 + 3*24
	case !d.Complete():
		return -1
	default:
		return 1 + (d.YearCode-1)*24 + (d.Month-1)*2 + (d.Half - 1)
	}
}

// Cmp orders two dates: -1, 0, +1.
func Cmp(a, b Date) int {
	ai, bi := a.Index(), b.Index()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

// Merge fills missing month/half of cand from prev when the visible fields
// agree, so a partial OCR read does not lose the known half.
func Merge(prev *Date, cand Date) Date {
	if prev == nil || cand.YearCode == YearFinals {
		return cand
	}
	if cand.Month == 0 && prev.YearCode == cand.YearCode {
		cand.Month = prev.Month
	}
	if cand.Half == 0 && prev.YearCode == cand.YearCode && prev.Month == cand.Month {
		cand.Half = prev.Half
	}
	return cand
}

// Next returns the following half-month. Senior Late December rolls into
// finals. Finals and incomplete dates return the input unchanged, false.
func (d Date) Next() (Date, bool) {
	if !d.IsRegularYear() || !d.Complete() {
		return d, false
	}
	if d.Half == 1 {
		return Date{YearCode: d.YearCode, Month: d.Month, Half: 2, Raw: d.Raw}, true
	}
	if d.Month == 12 {
		if d.YearCode == YearSenior {
			return Date{YearCode: YearFinals, Raw: d.Raw}, true
		}
		return Date{YearCode: d.YearCode + 1, Month: 1, Half: 1, Raw: d.Raw}, true
	}
	return Date{YearCode: d.YearCode, Month: d.Month + 1, Half: 1, Raw: d.Raw}, true
}

// #endregion date

// #region summer

// IsSummer reports the July/August training-camp window.
func (d Date) IsSummer() bool {
	return d.IsRegularYear() && (d.Month == 7 || d.Month == 8)
}

// SummerInTwoOrLessTurns reports whether the camp starts within two halves.
func (d Date) SummerInTwoOrLessTurns() bool {
	cur := d
	for i := 0; i < 2; i++ {
		next, ok := cur.Next()
		if !ok {
			return false
		}
		if next.IsSummer() {
			return true
		}
		cur = next
	}
	return false
}

// #endregion summer

// #region parse

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// Parse interprets an OCR'd career-date line such as "Classic Year Early Jun"
// or "Senior Year Late Dec". Returns nil when nothing date-like was read.
func Parse(raw string) *Date {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return nil
	}
	compact := strings.ReplaceAll(lower, "-", "")
	if strings.Contains(compact, "predebut") || strings.Contains(compact, "pre debut") {
		return &Date{YearCode: YearPreDebut, Raw: raw}
	}
	if strings.Contains(lower, "final") {
		return &Date{YearCode: YearFinals, Raw: raw}
	}

	d := Date{Raw: raw}
	switch {
	case strings.Contains(lower, "junior"):
		d.YearCode = YearJunior
	case strings.Contains(lower, "classic"):
		d.YearCode = YearClassic
	case strings.Contains(lower, "senior"):
		d.YearCode = YearSenior
	default:
		return nil
	}

	for name, m := range monthNames {
		if strings.Contains(lower, name) {
			d.Month = m
			break
		}
	}
	switch {
	case strings.Contains(lower, "early"):
		d.Half = 1
	case strings.Contains(lower, "late"):
		d.Half = 2
	}
	if d.Month == 0 && d.Half == 0 {
		return nil
	}
	return &d
}

// #endregion parse
