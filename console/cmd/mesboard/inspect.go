package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/draft"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

type inspectOptions struct {
	id       int64
	sets     []string
	results  []string
	remarks  []string
	save     bool
	submit   bool
	complete bool
	discard  bool
	list     bool
	drafts   string
	format   string

	create     bool
	lot        string
	kind       string
	process    int64
	sampleSize int
	inspector  string
}

func runInspect(ctx context.Context, g *globals, args []string, out io.Writer) error {
	var o inspectOptions
	fs := newFlagSet("inspect", "--id N [--set i=value]... [--result i=PASS|FAIL]... [--remark i=text]... [--save] [--submit] [--complete] [--discard]\n       mesboard inspect --new --lot LOT --type T [--process id] [--sample-size n] [--inspector name]")
	fs.Int64Var(&o.id, "id", 0, "inspection id")
	fs.StringArrayVar(&o.sets, "set", nil, "measured value for item i, as i=value (repeatable)")
	fs.StringArrayVar(&o.results, "result", nil, "manual result for item i, as i=PASS|FAIL (repeatable)")
	fs.StringArrayVar(&o.remarks, "remark", nil, "remarks for item i, as i=text (repeatable)")
	fs.BoolVar(&o.save, "save", false, "keep the edits in the local draft journal")
	fs.BoolVar(&o.submit, "submit", false, "send the measurements to the backend and clear the draft")
	fs.BoolVar(&o.complete, "complete", false, "submit, then complete the inspection with the overall result")
	fs.BoolVar(&o.discard, "discard", false, "delete the local draft and ignore it")
	fs.BoolVar(&o.list, "list-drafts", false, "list inspections that have a local draft")
	fs.StringVar(&o.drafts, "drafts", "", "draft journal path (default from config)")
	fs.StringVar(&o.format, "format", formatText, "output format: text | json")
	fs.BoolVar(&o.create, "new", false, "create an inspection from the standards of the lot's product")
	fs.StringVar(&o.lot, "lot", "", "lot number for --new")
	fs.StringVar(&o.kind, "type", "", "inspection type for --new: INCOMING | IN_PROCESS | FINAL | OUTGOING")
	fs.Int64Var(&o.process, "process", 0, "process id for --new")
	fs.IntVar(&o.sampleSize, "sample-size", 0, "sample size for --new")
	fs.StringVar(&o.inspector, "inspector", "", "inspector name for --new")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(o.format, formatText, formatJSON); err != nil {
		return err
	}
	if o.create {
		if err := checkCreate(&o); err != nil {
			return err
		}
		cfg, err := g.loadConfig()
		if err != nil {
			return err
		}
		api, err := apiclient.New(cfg.API)
		if err != nil {
			return err
		}
		return createInspection(ctx, api, o, out)
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if o.drafts == "" {
		o.drafts = cfg.Drafts.Path
	}
	journal, err := draft.Open(o.drafts)
	if err != nil {
		return err
	}
	defer journal.Close()

	if o.list {
		ids, err := journal.List(ctx)
		if err != nil {
			return err
		}
		if o.format == formatJSON {
			return writeJSON(out, ids)
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}
	if o.id <= 0 {
		return errs.Validation("inspect", "--id is required")
	}

	api, err := apiclient.New(cfg.API)
	if err != nil {
		return err
	}
	return inspect(ctx, api, journal, inspection.SaveMode(cfg.API.SaveMode), o, out)
}

// inspectionAPI is the backend surface inspect needs. apiclient.Client
// satisfies it.
type inspectionAPI interface {
	inspection.Store
	GetInspection(ctx context.Context, id int64) (*inspection.Inspection, error)
}

func inspect(ctx context.Context, st inspectionAPI, journal *draft.Journal, mode inspection.SaveMode, o inspectOptions, out io.Writer) error {
	in, err := st.GetInspection(ctx, o.id)
	if err != nil {
		return err
	}
	s := inspection.NewSession(in, st, mode)

	if o.discard {
		if err := journal.Delete(ctx, o.id); err != nil {
			return err
		}
		log.Info().Int64("inspection", o.id).Msg("inspect: draft discarded")
	} else {
		saved, err := journal.Load(ctx, o.id)
		if err != nil {
			return err
		}
		if len(saved) > 0 {
			skipped := s.Apply(saved)
			log.Info().Int64("inspection", o.id).Int("items", len(saved)).Int("skipped", skipped).
				Msg("inspect: draft applied")
		}
	}

	if err := applyEdits(s.Eval, o); err != nil {
		return err
	}

	if o.save && !o.discard {
		if err := journal.Save(ctx, o.id, s.Eval.Items()); err != nil {
			return err
		}
	}

	if o.submit || o.complete {
		if err := s.Save(ctx); err != nil {
			return err
		}
		if err := journal.Delete(ctx, o.id); err != nil {
			return err
		}
		// Recreation assigns a new id.
		if s.Inspection.ID != o.id {
			log.Info().Int64("old_id", o.id).Int64("new_id", s.Inspection.ID).Msg("inspect: saved as new inspection")
		}
	}
	if o.complete {
		if _, err := s.Complete(ctx, ""); err != nil {
			return err
		}
	}

	if o.format == formatJSON {
		return writeJSON(out, s.Inspection)
	}
	return printInspection(out, s)
}

func checkCreate(o *inspectOptions) error {
	switch {
	case o.id != 0:
		return errs.Validation("inspect", "--new and --id are mutually exclusive")
	case strings.TrimSpace(o.lot) == "":
		return errs.Validation("inspect", "--new requires --lot")
	}
	o.kind = strings.ToUpper(strings.TrimSpace(o.kind))
	if !types.InspectionType(o.kind).Valid() {
		return errs.Validation("inspect", "--type must be one of INCOMING, IN_PROCESS, FINAL, OUTGOING")
	}
	return nil
}

// creationAPI is the backend surface inspect --new needs.
type creationAPI interface {
	GetLotByNumber(ctx context.Context, number string) (*apiclient.Lot, error)
	StandardsForProduct(ctx context.Context, productID int64, t types.InspectionType) ([]inspection.Standard, error)
	ListStandards(ctx context.Context) ([]inspection.Standard, error)
	CreateInspection(ctx context.Context, req inspection.Request) (*inspection.Inspection, error)
}

// createInspection opens an inspection on the lot with one pending item per
// applicable standard. Lots without a product fall back to every standard.
func createInspection(ctx context.Context, api creationAPI, o inspectOptions, out io.Writer) error {
	lot, err := api.GetLotByNumber(ctx, o.lot)
	if err != nil {
		return err
	}
	t := types.InspectionType(o.kind)

	var standards []inspection.Standard
	if lot.ProductID != 0 {
		standards, err = api.StandardsForProduct(ctx, lot.ProductID, t)
	} else {
		standards, err = api.ListStandards(ctx)
	}
	if err != nil {
		return err
	}

	req, err := inspection.NewRequest(lot.ID, t, standards)
	if err != nil {
		return err
	}
	req.ProcessID = o.process
	req.SampleSize = o.sampleSize
	req.Inspector = o.inspector

	created, err := api.CreateInspection(ctx, req)
	if err != nil {
		return err
	}
	log.Info().Int64("id", created.ID).Str("lot", lot.LotNumber).Int("items", len(req.Items)).
		Msg("inspect: inspection created")

	if o.format == formatJSON {
		return writeJSON(out, created)
	}
	return printInspection(out, inspection.NewSession(created, nil, ""))
}

// applyEdits runs --set, then --result, then --remark, so a manual result
// overrides the judgement of a value set in the same run.
func applyEdits(e *inspection.Evaluator, o inspectOptions) error {
	for _, kv := range o.sets {
		i, v, err := parseIndexed(kv)
		if err != nil {
			return err
		}
		if err := e.SetMeasuredValue(i, v); err != nil {
			return err
		}
	}
	for _, kv := range o.results {
		i, v, err := parseIndexed(kv)
		if err != nil {
			return err
		}
		if err := e.SetResult(i, types.Result(strings.ToUpper(v))); err != nil {
			return err
		}
	}
	for _, kv := range o.remarks {
		i, v, err := parseIndexed(kv)
		if err != nil {
			return err
		}
		if err := e.SetRemarks(i, v); err != nil {
			return err
		}
	}
	return nil
}

// parseIndexed splits "i=value" into a zero-based item index and value.
func parseIndexed(kv string) (int, string, error) {
	idx, val, ok := strings.Cut(kv, "=")
	if !ok {
		return 0, "", errs.Validation("inspect", "expected i=value, got %q", kv)
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || i < 0 {
		return 0, "", errs.Validation("inspect", "bad item index %q", idx)
	}
	return i, val, nil
}

func printInspection(out io.Writer, s *inspection.Session) error {
	in := s.Inspection
	fmt.Fprintf(out, "Inspection %d %s  lot=%s  type=%s  status=%s\n",
		in.ID, in.InspectionNumber, orDash(in.LotNumber), in.Type, in.Status)

	tw := table(out)
	fmt.Fprintln(tw, "#\tSTANDARD\tLOWER\tUPPER\tMEASURED\tUNIT\tRESULT\tREMARKS")
	for i, it := range s.Eval.Items() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, orDash(it.StandardName), orDash(it.LowerLimit), orDash(it.UpperLimit),
			orDash(it.MeasuredValue), orDash(it.Unit), it.Result, orDash(it.Remarks))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	passed, failed, pending := s.Eval.Counts()
	overall, ok := s.Eval.OverallResult()
	if !ok {
		overall = "-"
	}
	_, err := fmt.Fprintf(out, "passed=%d failed=%d pending=%d overall=%s\n", passed, failed, pending, overall)
	return err
}
