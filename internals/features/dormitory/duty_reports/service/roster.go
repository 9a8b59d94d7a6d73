package service

import (
	"fmt"

	"dutyreport_backend/internals/constants"
)

/* =========================================================
   Roster engine: pure cohort-grid arithmetic.
   No fiber, no gorm: the controller adapts in/out.
   ========================================================= */

// CohortRow mirrors one line of the headcount grid. total/remaining are
// derived and recomputed here, never trusted from callers.
type CohortRow struct {
	Year string `json:"year"`

	FemaleCount int `json:"female_count"`
	MaleCount   int `json:"male_count"`
	TotalCount  int `json:"total_count"`

	FemaleSignOut       int `json:"female_sign_out"`
	MaleSignOut         int `json:"male_sign_out"`
	FemaleEmergencyStay int `json:"female_emergency_stay"`
	MaleEmergencyStay   int `json:"male_emergency_stay"`
	FemaleNotStayingOut int `json:"female_not_staying_out"`
	MaleNotStayingOut   int `json:"male_not_staying_out"`

	FemaleRemaining int `json:"female_remaining"`
	MaleRemaining   int `json:"male_remaining"`
}

// Field names an interactive edit may target (the two derived columns are
// not editable).
type Field string

const (
	FieldFemaleCount         Field = "female_count"
	FieldMaleCount           Field = "male_count"
	FieldFemaleSignOut       Field = "female_sign_out"
	FieldMaleSignOut         Field = "male_sign_out"
	FieldFemaleEmergencyStay Field = "female_emergency_stay"
	FieldMaleEmergencyStay   Field = "male_emergency_stay"
	FieldFemaleNotStayingOut Field = "female_not_staying_out"
	FieldMaleNotStayingOut   Field = "male_not_staying_out"
)

type Edit struct {
	Row   int   `json:"row"`
	Field Field `json:"field"`
	Value int   `json:"value"`
}

// Violation is a rejected edit or a failed save check. Message carries the
// Thai text the form shows; the edit path also reverts the offending field.
type Violation struct {
	Year    string `json:"year"`
	Message string `json:"message"`
}

func (v *Violation) Error() string { return v.Message }

// NewCohortRows returns the four fixed cohorts with zeroed counts, the state
// of a freshly opened form.
func NewCohortRows() []CohortRow {
	rows := make([]CohortRow, 0, len(constants.CohortYears))
	for _, y := range constants.CohortYears {
		rows = append(rows, CohortRow{Year: y})
	}
	return rows
}

func (r *CohortRow) femaleCategorySum() int {
	return r.FemaleSignOut + r.FemaleEmergencyStay + r.FemaleNotStayingOut
}

func (r *CohortRow) maleCategorySum() int {
	return r.MaleSignOut + r.MaleEmergencyStay + r.MaleNotStayingOut
}

func (r *CohortRow) categorySum() int {
	return r.femaleCategorySum() + r.maleCategorySum()
}

func (r *CohortRow) recomputeDerived() {
	r.TotalCount = r.FemaleCount + r.MaleCount
	r.FemaleRemaining = r.FemaleCount - r.femaleCategorySum()
	r.MaleRemaining = r.MaleCount - r.maleCategorySum()
}

func (r *CohortRow) get(f Field) (int, bool) {
	switch f {
	case FieldFemaleCount:
		return r.FemaleCount, true
	case FieldMaleCount:
		return r.MaleCount, true
	case FieldFemaleSignOut:
		return r.FemaleSignOut, true
	case FieldMaleSignOut:
		return r.MaleSignOut, true
	case FieldFemaleEmergencyStay:
		return r.FemaleEmergencyStay, true
	case FieldMaleEmergencyStay:
		return r.MaleEmergencyStay, true
	case FieldFemaleNotStayingOut:
		return r.FemaleNotStayingOut, true
	case FieldMaleNotStayingOut:
		return r.MaleNotStayingOut, true
	}
	return 0, false
}

func (r *CohortRow) set(f Field, v int) {
	switch f {
	case FieldFemaleCount:
		r.FemaleCount = v
	case FieldMaleCount:
		r.MaleCount = v
	case FieldFemaleSignOut:
		r.FemaleSignOut = v
	case FieldMaleSignOut:
		r.MaleSignOut = v
	case FieldFemaleEmergencyStay:
		r.FemaleEmergencyStay = v
	case FieldMaleEmergencyStay:
		r.MaleEmergencyStay = v
	case FieldFemaleNotStayingOut:
		r.FemaleNotStayingOut = v
	case FieldMaleNotStayingOut:
		r.MaleNotStayingOut = v
	}
}

func isFemaleCategory(f Field) bool {
	return f == FieldFemaleSignOut || f == FieldFemaleEmergencyStay || f == FieldFemaleNotStayingOut
}

func isMaleCategory(f Field) bool {
	return f == FieldMaleSignOut || f == FieldMaleEmergencyStay || f == FieldMaleNotStayingOut
}

// Apply runs one interactive cell edit against a copy of rows. The edit is
// tentatively applied, bounds-checked, and reverted on violation; derived
// totals and remaining are recomputed either way. The returned rows are
// always safe to adopt; a non-nil Violation means the value was rejected and
// the field kept its previous value.
//
// Interactive editing only blocks "exceeds": category sums are allowed to
// stay below the total until save time (see ValidateForSave).
func Apply(rows []CohortRow, e Edit) ([]CohortRow, *Violation) {
	out := make([]CohortRow, len(rows))
	copy(out, rows)

	if e.Row < 0 || e.Row >= len(out) {
		return out, &Violation{Message: "แถวที่ระบุไม่ถูกต้อง"}
	}
	row := &out[e.Row]

	prev, ok := row.get(e.Field)
	if !ok {
		return out, &Violation{Year: row.Year, Message: "ช่องที่ระบุไม่ถูกต้อง"}
	}

	value := e.Value
	if value < 0 {
		value = 0
	}
	row.set(e.Field, value)

	var viol *Violation
	reject := func(msg string) {
		row.set(e.Field, prev)
		if viol == nil {
			viol = &Violation{Year: row.Year, Message: msg}
		}
	}

	// Per-gender guards: an individual field and the per-gender category sum
	// may never exceed that gender's headcount.
	if isFemaleCategory(e.Field) {
		if cur, _ := row.get(e.Field); cur > row.FemaleCount {
			reject("จำนวนที่กรอก (หญิง) เกินกว่าจำนวนนักศึกษาหญิงในแถวนั้น")
		}
		if row.femaleCategorySum() > row.FemaleCount {
			reject("ผลรวมช่อง (หญิง) เกินกว่าจำนวนนักศึกษาหญิงในแถวนั้น")
		}
	}
	if isMaleCategory(e.Field) {
		if cur, _ := row.get(e.Field); cur > row.MaleCount {
			reject("จำนวนที่กรอก (ชาย) เกินกว่าจำนวนนักศึกษาชายในแถวนั้น")
		}
		if row.maleCategorySum() > row.MaleCount {
			reject("ผลรวมช่อง (ชาย) เกินกว่าจำนวนนักศึกษาชายในแถวนั้น")
		}
	}

	row.recomputeDerived()

	if isFemaleCategory(e.Field) || isMaleCategory(e.Field) {
		if row.TotalCount <= 0 {
			// Headcounts before categories
			reject(fmt.Sprintf("แถวชั้นปี %s: โปรดกรอกจำนวนนักศึกษาหญิงและชายก่อน", row.Year))
			row.recomputeDerived()
		} else if catSum := row.categorySum(); catSum > row.TotalCount {
			detail := fmt.Sprintf("หญิง:%d ชาย:%d (รวม:%d) > ทั้งหมด:%d",
				row.femaleCategorySum(), row.maleCategorySum(), catSum, row.TotalCount)
			reject(fmt.Sprintf("แถวชั้นปี %s: ใส่จำนวนไม่ถูกต้อง ผลรวมของช่องด้านขวาเกินจำนวนนักศึกษาทั้งหมดของแถวนั้น %s", row.Year, detail))
			row.recomputeDerived()
		}
	}

	return out, viol
}

// Normalize recomputes every derived field from the raw counts, clamping
// negatives to zero first (the pre-save pass of the form).
func Normalize(rows []CohortRow) []CohortRow {
	out := make([]CohortRow, len(rows))
	copy(out, rows)
	for i := range out {
		r := &out[i]
		for _, f := range []Field{
			FieldFemaleCount, FieldMaleCount,
			FieldFemaleSignOut, FieldMaleSignOut,
			FieldFemaleEmergencyStay, FieldMaleEmergencyStay,
			FieldFemaleNotStayingOut, FieldMaleNotStayingOut,
		} {
			if v, _ := r.get(f); v < 0 {
				r.set(f, 0)
			}
		}
		r.recomputeDerived()
	}
	return out
}

// ValidateForSave gates persistence. Checks run per row in the form's order;
// the first failing row wins. Unlike the interactive path, the six-category
// sum must EQUAL the total here, not merely stay below it.
func ValidateForSave(rows []CohortRow) *Violation {
	for i := range rows {
		r := &rows[i]
		total := r.FemaleCount + r.MaleCount
		catSum := r.categorySum()

		if total <= 0 {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: โปรดกรอกจำนวนนักศึกษาหญิงและชายก่อน", r.Year)}
		}
		if r.femaleCategorySum() > r.FemaleCount {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: ผลรวมช่อง (หญิง) เกินจำนวนนักศึกษาหญิงทั้งหมด", r.Year)}
		}
		if r.maleCategorySum() > r.MaleCount {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: ผลรวมช่อง (ชาย) เกินจำนวนนักศึกษาชายทั้งหมด", r.Year)}
		}
		if r.FemaleSignOut > r.FemaleCount {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: จำนวนนักศึกษาที่เซ็นออก (หญิง) เกินกว่าจำนวนนักศึกษาหญิงทั้งหมด", r.Year)}
		}
		if r.MaleSignOut > r.MaleCount {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: จำนวนนักศึกษาที่เซ็นออก (ชาย) เกินกว่าจำนวนนักศึกษาชายทั้งหมด", r.Year)}
		}
		if catSum > total {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: ผลรวมช่องด้านขวา (%d) เกินจำนวนนักศึกษาทั้งหมด (%d)", r.Year, catSum, total)}
		}
		if catSum != total {
			return &Violation{Year: r.Year, Message: fmt.Sprintf("แถวชั้นปี %s: ผลรวมช่องด้านขวา (%d) ต้องเท่ากับจำนวนนักศึกษาทั้งหมด (%d)", r.Year, catSum, total)}
		}
	}
	return nil
}

// Totals returns the column-wise sums row rendered under the grid and in
// the printed report.
func Totals(rows []CohortRow) CohortRow {
	t := CohortRow{Year: "รวม"}
	for i := range rows {
		r := &rows[i]
		t.FemaleCount += r.FemaleCount
		t.MaleCount += r.MaleCount
		t.TotalCount += r.TotalCount
		t.FemaleSignOut += r.FemaleSignOut
		t.MaleSignOut += r.MaleSignOut
		t.FemaleEmergencyStay += r.FemaleEmergencyStay
		t.MaleEmergencyStay += r.MaleEmergencyStay
		t.FemaleNotStayingOut += r.FemaleNotStayingOut
		t.MaleNotStayingOut += r.MaleNotStayingOut
		t.FemaleRemaining += r.FemaleRemaining
		t.MaleRemaining += r.MaleRemaining
	}
	return t
}
