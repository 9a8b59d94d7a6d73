package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCohortRows(t *testing.T) {
	rows := NewCohortRows()
	require.Len(t, rows, 4)
	for i, y := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, y, rows[i].Year)
		assert.Zero(t, rows[i].FemaleCount)
		assert.Zero(t, rows[i].TotalCount)
	}
}

func TestApplyRecomputesDerived(t *testing.T) {
	rows := NewCohortRows()

	rows, v := Apply(rows, Edit{Row: 0, Field: FieldFemaleCount, Value: 10})
	require.Nil(t, v)
	rows, v = Apply(rows, Edit{Row: 0, Field: FieldMaleCount, Value: 5})
	require.Nil(t, v)

	assert.Equal(t, 15, rows[0].TotalCount)
	assert.Equal(t, 10, rows[0].FemaleRemaining)
	assert.Equal(t, 5, rows[0].MaleRemaining)

	rows, v = Apply(rows, Edit{Row: 0, Field: FieldFemaleSignOut, Value: 3})
	require.Nil(t, v)
	assert.Equal(t, 7, rows[0].FemaleRemaining)
	assert.Equal(t, 15, rows[0].TotalCount, "headcount total unaffected by sign-outs")
}

func TestApplyClampsNegativeToZero(t *testing.T) {
	rows := NewCohortRows()
	rows, v := Apply(rows, Edit{Row: 1, Field: FieldFemaleCount, Value: -7})
	require.Nil(t, v)
	assert.Equal(t, 0, rows[1].FemaleCount)
}

func TestApplyRejectsOutOfRangeRowAndField(t *testing.T) {
	rows := NewCohortRows()

	_, v := Apply(rows, Edit{Row: 9, Field: FieldFemaleCount, Value: 1})
	require.NotNil(t, v)

	_, v = Apply(rows, Edit{Row: 0, Field: Field("total_count"), Value: 1})
	require.NotNil(t, v, "derived columns are not editable")
}

func TestApplyRejectsCategoryExceedingGenderHeadcount(t *testing.T) {
	rows := NewCohortRows()
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldFemaleCount, Value: 10})
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldMaleCount, Value: 5})

	// 6 > male headcount 5: rejected and the field keeps its prior value
	rows, v := Apply(rows, Edit{Row: 0, Field: FieldMaleSignOut, Value: 6})
	require.NotNil(t, v)
	assert.Equal(t, "1", v.Year)
	assert.Equal(t, 0, rows[0].MaleSignOut)
	assert.Equal(t, 5, rows[0].MaleRemaining, "derived stays consistent after revert")
}

func TestApplyRejectsGenderSumOverflow(t *testing.T) {
	rows := NewCohortRows()
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldFemaleCount, Value: 10})
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldMaleCount, Value: 5})
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldFemaleSignOut, Value: 6})

	// 6 + 5 = 11 > 10
	rows, v := Apply(rows, Edit{Row: 0, Field: FieldFemaleEmergencyStay, Value: 5})
	require.NotNil(t, v)
	assert.Equal(t, 0, rows[0].FemaleEmergencyStay)
	assert.Equal(t, 4, rows[0].FemaleRemaining)
}

func TestApplyRequiresHeadcountsBeforeCategories(t *testing.T) {
	rows := NewCohortRows()
	rows, v := Apply(rows, Edit{Row: 2, Field: FieldFemaleSignOut, Value: 0})
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "โปรดกรอกจำนวนนักศึกษาหญิงและชายก่อน")
	assert.Equal(t, 0, rows[2].FemaleSignOut)
}

func TestApplyAllowsCategorySumBelowTotal(t *testing.T) {
	// interactive editing only blocks "exceeds"; equality is a save-time rule
	rows := NewCohortRows()
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldFemaleCount, Value: 10})
	rows, _ = Apply(rows, Edit{Row: 0, Field: FieldMaleCount, Value: 5})
	rows, v := Apply(rows, Edit{Row: 0, Field: FieldFemaleSignOut, Value: 3})
	require.Nil(t, v)
	assert.Equal(t, 3, rows[0].FemaleSignOut)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := NewCohortRows()
	out, _ := Apply(rows, Edit{Row: 0, Field: FieldFemaleCount, Value: 10})
	assert.Equal(t, 0, rows[0].FemaleCount)
	assert.Equal(t, 10, out[0].FemaleCount)
}

func fullRow(year string) CohortRow {
	// 10 female + 5 male, fully accounted for across the categories
	r := CohortRow{
		Year:                year,
		FemaleCount:         10,
		MaleCount:           5,
		FemaleSignOut:       3,
		FemaleNotStayingOut: 7,
		MaleSignOut:         5,
	}
	r.recomputeDerived()
	return r
}

func TestValidateForSavePassesBalancedRows(t *testing.T) {
	rows := []CohortRow{fullRow("1"), fullRow("2"), fullRow("3"), fullRow("4")}
	require.Nil(t, ValidateForSave(rows))

	assert.Equal(t, 0, rows[0].FemaleRemaining)
	assert.Equal(t, 0, rows[0].MaleRemaining)
	assert.Equal(t, 15, rows[0].TotalCount)
}

func TestValidateForSaveRejectsZeroTotal(t *testing.T) {
	rows := []CohortRow{fullRow("1"), {Year: "2"}}
	v := ValidateForSave(rows)
	require.NotNil(t, v)
	assert.Equal(t, "2", v.Year)
	assert.Contains(t, v.Message, "โปรดกรอกจำนวนนักศึกษาหญิงและชายก่อน")
}

func TestValidateForSaveRejectsSumBelowTotal(t *testing.T) {
	r := fullRow("1")
	r.FemaleNotStayingOut = 6 // category sum 14 < total 15
	r.recomputeDerived()
	v := ValidateForSave([]CohortRow{r})
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "ต้องเท่ากับจำนวนนักศึกษาทั้งหมด")
}

func TestValidateForSaveRejectsGenderOverflow(t *testing.T) {
	r := fullRow("3")
	r.FemaleEmergencyStay = 5 // female sum 15 > 10
	v := ValidateForSave([]CohortRow{r})
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "หญิง")
}

func TestNormalizeClampsAndRecomputes(t *testing.T) {
	rows := []CohortRow{{
		Year:          "1",
		FemaleCount:   8,
		MaleCount:     -3,
		FemaleSignOut: 2,
		// stale derived values that must be overwritten
		TotalCount:      99,
		FemaleRemaining: 99,
	}}
	out := Normalize(rows)
	assert.Equal(t, 0, out[0].MaleCount)
	assert.Equal(t, 8, out[0].TotalCount)
	assert.Equal(t, 6, out[0].FemaleRemaining)
	assert.Equal(t, 99, rows[0].TotalCount, "input untouched")
}

func TestTotals(t *testing.T) {
	rows := []CohortRow{fullRow("1"), fullRow("2")}
	sum := Totals(rows)
	assert.Equal(t, "รวม", sum.Year)
	assert.Equal(t, 20, sum.FemaleCount)
	assert.Equal(t, 10, sum.MaleCount)
	assert.Equal(t, 30, sum.TotalCount)
	assert.Equal(t, 6, sum.FemaleSignOut)
	assert.Equal(t, 0, sum.FemaleRemaining+sum.MaleRemaining)
}
