package oee

import (
	"math"
	"sort"
	"time"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

// Input holds the raw quantities OEE is derived from.
type Input struct {
	// PlannedTime is the scheduled production time.
	PlannedTime time.Duration

	// RunTime is the part of PlannedTime the line actually ran.
	RunTime time.Duration

	// IdealCycle is the standard time per unit. When zero, performance
	// gets full credit.
	IdealCycle time.Duration

	// TotalCount is every unit produced, good or bad.
	TotalCount int

	// GoodCount is the units that passed first time.
	GoodCount int
}

// Output is OEE and its three factors, each in percent rounded to two
// decimals.
type Output struct {
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

// Compute derives OEE from in.
//
//	availability = run / planned
//	performance  = clamp(ideal_cycle * total / run, 0, 1)
//	quality      = good / total
//	oee          = availability * performance * quality
func Compute(in Input) Output {
	availability := 0.0
	if in.PlannedTime > 0 {
		availability = clamp01(float64(in.RunTime) / float64(in.PlannedTime))
	}

	performance := 1.0
	if in.IdealCycle > 0 {
		performance = 0
		if in.RunTime > 0 {
			performance = clamp01(float64(in.IdealCycle) * float64(in.TotalCount) / float64(in.RunTime))
		}
	}

	quality := 0.0
	if in.TotalCount > 0 {
		quality = clamp01(float64(in.GoodCount) / float64(in.TotalCount))
	}

	return Output{
		Availability: round2(availability * 100),
		Performance:  round2(performance * 100),
		Quality:      round2(quality * 100),
		OEE:          round2(availability * performance * quality * 100),
	}
}

// DefectRate returns bad/(good+bad) in percent, or 0 with no output.
func DefectRate(good, bad int) float64 {
	if good+bad <= 0 {
		return 0
	}
	return round2(float64(bad) / float64(good+bad) * 100)
}

// PassRate returns passed/total in percent, or 0 when total is zero.
func PassRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(passed) / float64(total) * 100)
}

// WorkProgress returns completed/total steps in percent.
func WorkProgress(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(clamp01(float64(completed)/float64(total)) * 100)
}

// AvailabilityFromStatuses returns the share of machines in RUN as a
// fraction in [0, 1].
func AvailabilityFromStatuses(statuses []types.EquipmentStatus) float64 {
	if len(statuses) == 0 {
		return 0
	}
	running := 0
	for _, s := range statuses {
		if s == types.EquipmentRun {
			running++
		}
	}
	return float64(running) / float64(len(statuses))
}

// ProductDefectRates totals work results per product and returns them
// sorted by defect rate, highest first. Results without a product are
// skipped.
func ProductDefectRates(results []apiclient.WorkResult) []apiclient.ProductDefectRate {
	byID := make(map[int64]*apiclient.ProductDefectRate)
	for _, r := range results {
		if r.WorkOrder == nil || r.WorkOrder.Product == nil {
			continue
		}
		p := r.WorkOrder.Product
		agg, ok := byID[p.ID]
		if !ok {
			agg = &apiclient.ProductDefectRate{ProductID: p.ID, ProductName: p.Name}
			byID[p.ID] = agg
		}
		agg.TotalGoodQty += r.GoodQty
		agg.TotalBadQty += r.BadQty
	}

	out := make([]apiclient.ProductDefectRate, 0, len(byID))
	for _, agg := range byID {
		agg.DefectRate = DefectRate(agg.TotalGoodQty, agg.TotalBadQty)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DefectRate != out[j].DefectRate {
			return out[i].DefectRate > out[j].DefectRate
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// Summarize builds production statistics from lots, their process history
// and inspections. Produced and defect totals come from the history;
// quality is derived from them, while availability and performance come
// from in. in.TotalCount and in.GoodCount are ignored.
func Summarize(lots []apiclient.Lot, histories []apiclient.LotHistory, inspections []inspection.Inspection, in Input) apiclient.ProductionStatistics {
	var st apiclient.ProductionStatistics

	st.TotalLots = len(lots)
	for _, l := range lots {
		switch l.Status {
		case types.LotCompleted:
			st.CompletedLots++
		case types.LotInProgress:
			st.InProgressLots++
		}
	}

	for _, h := range histories {
		st.TotalProduced += h.OutputQuantity
		st.TotalDefects += h.DefectQuantity
	}
	st.OverallDefectRate = DefectRate(st.TotalProduced, st.TotalDefects)

	st.TotalInspections = len(inspections)
	for _, i := range inspections {
		if i.Result == nil {
			continue
		}
		switch *i.Result {
		case types.ResultPass:
			st.PassedInspections++
		case types.ResultFail:
			st.FailedInspections++
		}
	}
	st.InspectionPassRate = PassRate(st.PassedInspections, st.TotalInspections)

	in.TotalCount = st.TotalProduced + st.TotalDefects
	in.GoodCount = st.TotalProduced
	out := Compute(in)
	st.Availability = out.Availability
	st.Performance = out.Performance
	st.Quality = out.Quality
	st.OEE = out.OEE
	return st
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
