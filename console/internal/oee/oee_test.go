package oee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Output
	}{
		{
			name: "textbook shift",
			// 480 planned, 420 run, 1s ideal, 19271 total, 18848 good
			in: Input{
				PlannedTime: 480 * time.Minute,
				RunTime:     420 * time.Minute,
				IdealCycle:  time.Second,
				TotalCount:  19271,
				GoodCount:   18848,
			},
			want: Output{Availability: 87.5, Performance: 76.47, Quality: 97.8, OEE: 65.44},
		},
		{
			name: "no ideal cycle gives full performance",
			in:   Input{PlannedTime: time.Hour, RunTime: time.Hour, TotalCount: 10, GoodCount: 9},
			want: Output{Availability: 100, Performance: 100, Quality: 90, OEE: 90},
		},
		{
			name: "performance clamps at one",
			in:   Input{PlannedTime: time.Hour, RunTime: time.Minute, IdealCycle: time.Minute, TotalCount: 5, GoodCount: 5},
			want: Output{Availability: 1.67, Performance: 100, Quality: 100, OEE: 1.67},
		},
		{
			name: "nothing planned",
			in:   Input{TotalCount: 5, GoodCount: 5},
			want: Output{Availability: 0, Performance: 100, Quality: 100, OEE: 0},
		},
		{
			name: "no output",
			in:   Input{PlannedTime: time.Hour, RunTime: time.Hour},
			want: Output{Availability: 100, Performance: 100, Quality: 0, OEE: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.in))
		})
	}
}

func TestDefectRate(t *testing.T) {
	assert.Equal(t, 10.0, DefectRate(90, 10))
	assert.Equal(t, 0.0, DefectRate(0, 0))
	assert.Equal(t, 100.0, DefectRate(0, 3))
	assert.Equal(t, 33.33, DefectRate(2, 1))
}

func TestPassRateAndProgress(t *testing.T) {
	assert.Equal(t, 75.0, PassRate(3, 4))
	assert.Equal(t, 0.0, PassRate(3, 0))
	assert.Equal(t, 50.0, WorkProgress(2, 4))
	assert.Equal(t, 100.0, WorkProgress(5, 4))
	assert.Equal(t, 0.0, WorkProgress(1, 0))
}

func TestAvailabilityFromStatuses(t *testing.T) {
	got := AvailabilityFromStatuses([]types.EquipmentStatus{
		types.EquipmentRun, types.EquipmentRun, types.EquipmentIdle, types.EquipmentAlarm,
	})
	assert.Equal(t, 0.5, got)
	assert.Equal(t, 0.0, AvailabilityFromStatuses(nil))
}

func TestProductDefectRates(t *testing.T) {
	widget := &apiclient.Product{ID: 1, Name: "widget"}
	gadget := &apiclient.Product{ID: 2, Name: "gadget"}
	results := []apiclient.WorkResult{
		{WorkOrder: &apiclient.WorkOrder{Product: widget}, GoodQty: 90, BadQty: 10},
		{WorkOrder: &apiclient.WorkOrder{Product: widget}, GoodQty: 100, BadQty: 0},
		{WorkOrder: &apiclient.WorkOrder{Product: gadget}, GoodQty: 8, BadQty: 2},
		{WorkOrder: &apiclient.WorkOrder{}, GoodQty: 1, BadQty: 1},
		{GoodQty: 1, BadQty: 1},
	}

	rates := ProductDefectRates(results)
	if assert.Len(t, rates, 2) {
		assert.Equal(t, "gadget", rates[0].ProductName)
		assert.Equal(t, 20.0, rates[0].DefectRate)
		assert.Equal(t, 190, rates[1].TotalGoodQty)
		assert.Equal(t, 5.0, rates[1].DefectRate)
	}
}

func TestSummarize(t *testing.T) {
	pass, fail, cond := types.ResultPass, types.ResultFail, types.ResultConditionalPass
	lots := []apiclient.Lot{
		{Status: types.LotCompleted},
		{Status: types.LotInProgress},
		{Status: types.LotInProgress},
		{Status: types.LotCreated},
	}
	histories := []apiclient.LotHistory{
		{OutputQuantity: 95, DefectQuantity: 5},
		{OutputQuantity: 45, DefectQuantity: 5},
	}
	inspections := []inspection.Inspection{
		{Result: &pass}, {Result: &pass}, {Result: &fail}, {Result: &cond}, {},
	}

	st := Summarize(lots, histories, inspections, Input{PlannedTime: time.Hour, RunTime: 45 * time.Minute})

	assert.Equal(t, 4, st.TotalLots)
	assert.Equal(t, 1, st.CompletedLots)
	assert.Equal(t, 2, st.InProgressLots)
	assert.Equal(t, 140, st.TotalProduced)
	assert.Equal(t, 10, st.TotalDefects)
	assert.Equal(t, 6.67, st.OverallDefectRate)
	assert.Equal(t, 5, st.TotalInspections)
	assert.Equal(t, 2, st.PassedInspections)
	assert.Equal(t, 1, st.FailedInspections)
	assert.Equal(t, 40.0, st.InspectionPassRate)
	assert.Equal(t, 75.0, st.Availability)
	assert.Equal(t, 100.0, st.Performance)
	assert.Equal(t, 93.33, st.Quality)
	assert.Equal(t, 70.0, st.OEE)
}
