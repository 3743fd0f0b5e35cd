package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/oee"
	"github.com/mesboard/mesboard/pkg/types"
)

// statsReport is the output of the stats command.
type statsReport struct {
	Backend            *apiclient.ProductionStatistics `json:"backend"`
	Local              apiclient.ProductionStatistics  `json:"local"`
	ProductDefectRates []apiclient.ProductDefectRate   `json:"productDefectRates"`
	RunningEquipment   float64                         `json:"runningEquipment"`
}

func runStats(ctx context.Context, g *globals, args []string, out io.Writer) error {
	fs := newFlagSet("stats", "[--format text|json] [--planned d] [--run d] [--ideal-cycle d]")
	format := fs.String("format", formatText, "output format: text | json")
	planned := fs.Duration("planned", 8*time.Hour, "planned production time for OEE")
	runTime := fs.Duration("run", 0, "actual run time; 0 derives it from the share of running equipment")
	ideal := fs.Duration("ideal-cycle", 0, "ideal cycle time per unit; 0 gives full performance credit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format, formatText, formatJSON); err != nil {
		return err
	}
	if *planned <= 0 {
		return errs.Validation("stats", "--planned must be positive")
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	api, err := apiclient.New(cfg.API)
	if err != nil {
		return err
	}

	rep, err := collectStats(ctx, api, oee.Input{PlannedTime: *planned, RunTime: *runTime, IdealCycle: *ideal})
	if err != nil {
		return err
	}
	if *format == formatJSON {
		return writeJSON(out, rep)
	}
	return printStats(out, rep)
}

// collectStats fetches what local OEE needs and derives it. A zero
// in.RunTime is replaced by the running share of planned time.
func collectStats(ctx context.Context, api *apiclient.Client, in oee.Input) (*statsReport, error) {
	backend, err := api.ProductionStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: backend statistics: %w", err)
	}
	lots, err := api.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: lots: %w", err)
	}
	var histories []apiclient.LotHistory
	for _, l := range lots {
		h, err := api.LotHistory(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("stats: history of lot %s: %w", l.LotNumber, err)
		}
		histories = append(histories, h...)
	}
	inspections, err := api.ListInspections(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: inspections: %w", err)
	}
	results, err := api.ListWorkResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: work results: %w", err)
	}
	equipment, err := api.EquipmentStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: equipment statuses: %w", err)
	}

	statuses := make([]types.EquipmentStatus, 0, len(equipment))
	for _, e := range equipment {
		statuses = append(statuses, e.Status)
	}
	running := oee.AvailabilityFromStatuses(statuses)
	if in.RunTime == 0 {
		in.RunTime = time.Duration(float64(in.PlannedTime) * running)
	}

	return &statsReport{
		Backend:            backend,
		Local:              oee.Summarize(lots, histories, inspections, in),
		ProductDefectRates: oee.ProductDefectRates(results),
		RunningEquipment:   running,
	}, nil
}

func printStats(out io.Writer, rep *statsReport) error {
	tw := table(out)
	fmt.Fprintln(tw, "\tBACKEND\tLOCAL")
	row := func(name string, b, l any) { fmt.Fprintf(tw, "%s\t%v\t%v\n", name, b, l) }
	b, l := rep.Backend, rep.Local
	row("lots", b.TotalLots, l.TotalLots)
	row("completed lots", b.CompletedLots, l.CompletedLots)
	row("in-progress lots", b.InProgressLots, l.InProgressLots)
	row("produced", b.TotalProduced, l.TotalProduced)
	row("defects", b.TotalDefects, l.TotalDefects)
	row("defect rate %", b.OverallDefectRate, l.OverallDefectRate)
	row("availability %", b.Availability, l.Availability)
	row("performance %", b.Performance, l.Performance)
	row("quality %", b.Quality, l.Quality)
	row("OEE %", b.OEE, l.OEE)
	row("inspections", b.TotalInspections, l.TotalInspections)
	row("pass rate %", b.InspectionPassRate, l.InspectionPassRate)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.ProductDefectRates) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	tw = table(out)
	fmt.Fprintln(tw, "PRODUCT\tGOOD\tBAD\tDEFECT %")
	for _, p := range rep.ProductDefectRates {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", orDash(p.ProductName), p.TotalGoodQty, p.TotalBadQty, p.DefectRate)
	}
	return tw.Flush()
}
