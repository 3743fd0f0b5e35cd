package inspection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

func boundedItem(lower, upper string) Item {
	return ItemFromStandard(Standard{ID: 7, Name: "Length", LowerLimit: lower, UpperLimit: upper, Unit: "mm"})
}

func TestEvaluator_MeasurementScenario(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("10", "20")})

	require.NoError(t, e.SetMeasuredValue(0, "15"))
	it, _ := e.Item(0)
	assert.Equal(t, types.ResultPass, it.Result)

	require.NoError(t, e.SetMeasuredValue(0, "25"))
	it, _ = e.Item(0)
	assert.Equal(t, types.ResultFail, it.Result)

	// Clearing the value keeps the previous judgement.
	require.NoError(t, e.SetMeasuredValue(0, ""))
	it, _ = e.Item(0)
	assert.Equal(t, types.ResultFail, it.Result)
	assert.Empty(t, it.MeasuredValue)
}

func TestEvaluator_BoundaryValuesPass(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("10", "20"), boundedItem("10", "20")})
	require.NoError(t, e.SetMeasuredValue(0, "10"))
	require.NoError(t, e.SetMeasuredValue(1, "20"))

	for i := 0; i < e.Len(); i++ {
		it, _ := e.Item(i)
		assert.Equal(t, types.ResultPass, it.Result, "item %d", i)
	}
}

func TestEvaluator_QualitativeBoundsKeepOverride(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("", "no visible scratches")})

	require.NoError(t, e.SetResult(0, types.ResultFail))
	require.NoError(t, e.SetMeasuredValue(0, "3"))

	it, _ := e.Item(0)
	assert.Equal(t, "3", it.MeasuredValue)
	assert.Equal(t, types.ResultFail, it.Result)
}

func TestEvaluator_SetResultIsLiteralOverride(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("10", "20")})
	require.NoError(t, e.SetMeasuredValue(0, "25"))
	require.NoError(t, e.SetResult(0, types.ResultPass))

	it, _ := e.Item(0)
	assert.Equal(t, types.ResultPass, it.Result)

	err := e.SetResult(0, types.ResultConditionalPass)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	err = e.SetResult(0, types.Result("OK"))
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestEvaluator_ValidationErrors(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("10", "20")})

	err := e.SetMeasuredValue(3, "15")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	err = e.SetMeasuredValue(-1, "15")
	assert.True(t, errors.Is(err, errs.ErrValidation))

	require.NoError(t, e.SetMeasuredValue(0, "12"))
	for _, bad := range []string{"twelve", "NaN", "Inf", "1e999"} {
		err = e.SetMeasuredValue(0, bad)
		assert.True(t, errors.Is(err, errs.ErrValidation), "value %q", bad)
	}
	it, _ := e.Item(0)
	assert.Equal(t, "12", it.MeasuredValue, "rejected values are not stored")
	assert.Equal(t, types.ResultPass, it.Result)
}

func TestEvaluator_CopiesInput(t *testing.T) {
	src := []Item{{StandardID: 1}}
	e := NewEvaluator(src)
	require.NoError(t, e.SetResult(0, types.ResultPass))

	assert.Equal(t, types.Result(""), src[0].Result)
	got := e.Items()
	got[0].Result = types.ResultFail
	it, _ := e.Item(0)
	assert.Equal(t, types.ResultPass, it.Result)
}

func TestEvaluator_OverallAndCounts(t *testing.T) {
	e := NewEvaluator([]Item{boundedItem("0", "1"), boundedItem("0", "1"), boundedItem("0", "1")})

	r, ok := e.OverallResult()
	require.True(t, ok)
	assert.Equal(t, types.ResultConditionalPass, r)

	require.NoError(t, e.SetMeasuredValue(0, "0.5"))
	require.NoError(t, e.SetMeasuredValue(1, "2"))
	passed, failed, pending := e.Counts()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{passed, failed, pending})

	r, _ = e.OverallResult()
	assert.Equal(t, types.ResultFail, r)

	_, ok = NewEvaluator(nil).OverallResult()
	assert.False(t, ok)
}

func TestItemFromStandard_SnapshotsBounds(t *testing.T) {
	std := Standard{ID: 3, Name: "Width", LowerLimit: "10", UpperLimit: "20"}
	e := NewEvaluator([]Item{ItemFromStandard(std)})

	std.UpperLimit = "12"
	require.NoError(t, e.SetMeasuredValue(0, "15"))

	it, _ := e.Item(0)
	assert.Equal(t, types.ResultPass, it.Result)
	assert.Equal(t, "20", it.UpperLimit)
}

func TestCompletionGuard(t *testing.T) {
	assert.NoError(t, CompletionGuard(types.InspectionPending))
	for _, s := range []types.InspectionStatus{
		types.InspectionInProgress, types.InspectionCompleted, types.InspectionCancelled,
	} {
		err := CompletionGuard(s)
		assert.True(t, errors.Is(err, errs.ErrInvalidStateTransition), "status %s", s)
	}
}

func TestTransition(t *testing.T) {
	assert.NoError(t, Transition(types.InspectionPending, types.InspectionInProgress))
	assert.NoError(t, Transition(types.InspectionInProgress, types.InspectionCompleted))
	assert.NoError(t, Transition(types.InspectionPending, types.InspectionCancelled))

	assert.Error(t, Transition(types.InspectionCompleted, types.InspectionPending))
	assert.Error(t, Transition(types.InspectionCancelled, types.InspectionInProgress))
	assert.Error(t, Transition(types.InspectionInProgress, types.InspectionPending))
}
