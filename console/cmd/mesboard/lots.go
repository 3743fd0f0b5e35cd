package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

type lotsReport struct {
	Lots    []apiclient.Lot                   `json:"lots"`
	History map[string][]apiclient.LotHistory `json:"history,omitempty"`
}

func runLots(ctx context.Context, g *globals, args []string, out io.Writer) error {
	fs := newFlagSet("lots", "[--search kw | --number LOT | --id N] [--history]\n"+
		"       mesboard lots (--number LOT | --id N) [--record --process P --equipment E --input I --output O [--defect D] --operator name] [--status S]")
	search := fs.String("search", "", "match lots by number or product name")
	number := fs.String("number", "", "look up one lot by number")
	id := fs.Int64("id", 0, "look up one lot by id")
	history := fs.Bool("history", false, "include each lot's process history")
	format := fs.String("format", formatText, "output format: text | json")

	record := fs.Bool("record", false, "record a process step against the lot")
	var step apiclient.LotHistoryRequest
	fs.Int64Var(&step.ProcessID, "process", 0, "process id for --record")
	fs.Int64Var(&step.EquipmentID, "equipment", 0, "equipment id for --record")
	fs.IntVar(&step.InputQuantity, "input", 0, "input quantity for --record")
	fs.IntVar(&step.OutputQuantity, "output", 0, "output quantity for --record")
	fs.IntVar(&step.DefectQuantity, "defect", 0, "defect quantity for --record")
	fs.StringVar(&step.Result, "step-result", "", "free-text step result for --record")
	fs.StringVar(&step.Operator, "operator", "", "operator name for --record")
	fs.StringVar(&step.Remarks, "remarks", "", "remarks for --record")
	status := fs.String("status", "", "set the lot status: CREATED | IN_PROGRESS | COMPLETED | ON_HOLD | REJECTED | SHIPPED")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format, formatText, formatJSON); err != nil {
		return err
	}
	selectors := 0
	for _, set := range []bool{*search != "", *number != "", *id != 0} {
		if set {
			selectors++
		}
	}
	if selectors > 1 {
		return errs.Validation("lots", "--search, --number and --id are mutually exclusive")
	}
	newStatus := types.LotStatus(strings.ToUpper(strings.TrimSpace(*status)))
	writing := *record || newStatus != ""
	if writing && *number == "" && *id == 0 {
		return errs.Validation("lots", "--record and --status need --number or --id")
	}
	if newStatus != "" && !newStatus.Valid() {
		return errs.Validation("lots", "unknown lot status %q", *status)
	}
	if *record {
		// The lot id is filled in after lookup.
		early := step
		early.LotID = 1
		if err := early.Validate(); err != nil {
			return err
		}
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	api, err := apiclient.New(cfg.API)
	if err != nil {
		return err
	}

	rep := lotsReport{}
	switch {
	case *search != "":
		rep.Lots, err = api.SearchLots(ctx, *search)
	case *number != "":
		var l *apiclient.Lot
		if l, err = api.GetLotByNumber(ctx, *number); err == nil {
			rep.Lots = []apiclient.Lot{*l}
		}
	case *id != 0:
		var l *apiclient.Lot
		if l, err = api.GetLot(ctx, *id); err == nil {
			rep.Lots = []apiclient.Lot{*l}
		}
	default:
		rep.Lots, err = api.ListLots(ctx)
	}
	if err != nil {
		return err
	}

	if writing {
		lot := &rep.Lots[0]
		if *record {
			if lot, err = recordStep(ctx, api, lot, step); err != nil {
				return err
			}
		}
		if newStatus != "" && newStatus != lot.Status {
			if lot, err = api.UpdateLotStatus(ctx, lot.ID, newStatus); err != nil {
				return err
			}
		}
		rep.Lots[0] = *lot
	}

	if *history {
		rep.History = make(map[string][]apiclient.LotHistory, len(rep.Lots))
		for _, l := range rep.Lots {
			h, err := api.LotHistoryByNumber(ctx, l.LotNumber)
			if err != nil {
				return err
			}
			rep.History[l.LotNumber] = h
		}
	}

	if *format == formatJSON {
		return writeJSON(out, rep)
	}
	return printLots(out, rep)
}

// lotWriter is the backend surface recordStep needs.
type lotWriter interface {
	AddLotHistory(ctx context.Context, req apiclient.LotHistoryRequest) (*apiclient.LotHistory, error)
	UpdateLotStatus(ctx context.Context, id int64, status types.LotStatus) (*apiclient.Lot, error)
}

// recordStep adds a process step to lot. A CREATED lot moves to IN_PROGRESS
// with its first step.
func recordStep(ctx context.Context, api lotWriter, lot *apiclient.Lot, step apiclient.LotHistoryRequest) (*apiclient.Lot, error) {
	step.LotID = lot.ID
	h, err := api.AddLotHistory(ctx, step)
	if err != nil {
		return nil, err
	}
	log.Info().Str("lot", lot.LotNumber).Int64("history", h.ID).
		Int("output", step.OutputQuantity).Int("defect", step.DefectQuantity).
		Msg("lots: process step recorded")
	if lot.Status != types.LotCreated {
		return lot, nil
	}
	return api.UpdateLotStatus(ctx, lot.ID, types.LotInProgress)
}

func printLots(out io.Writer, rep lotsReport) error {
	tw := table(out)
	fmt.Fprintln(tw, "ID\tLOT\tPRODUCT\tQTY\tSTATUS\tSTEPS\tDEFECTS\tCREATED")
	for _, l := range rep.Lots {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\t%d\t%s\n",
			l.ID, l.LotNumber, orDash(l.ProductName), l.Quantity, l.Status,
			l.TotalProcessed, l.DefectCount, orDash(l.CreatedAt.String()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, l := range rep.Lots {
		steps, ok := rep.History[l.LotNumber]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n%s history:\n", l.LotNumber)
		tw := table(out)
		fmt.Fprintln(tw, "AT\tPROCESS\tEQUIPMENT\tIN\tOUT\tDEFECT\tRESULT\tOPERATOR")
		for _, h := range steps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				orDash(h.ProcessedAt.String()), orDash(h.ProcessName), orDash(h.EquipmentName),
				h.InputQuantity, h.OutputQuantity, h.DefectQuantity, orDash(h.Result), orDash(h.Operator))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
