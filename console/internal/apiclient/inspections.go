package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/inspection"
	"github.com/mesboard/mesboard/pkg/types"
)

var _ inspection.Store = (*Client)(nil)

func (c *Client) ListInspections(ctx context.Context) ([]inspection.Inspection, error) {
	return get[[]inspection.Inspection](ctx, c, "/quality-inspections", nil)
}

func (c *Client) GetInspection(ctx context.Context, id int64) (*inspection.Inspection, error) {
	return send[inspection.Inspection](ctx, c, http.MethodGet, pathf("/quality-inspections/%d", id), nil, nil)
}

// CreateInspection creates an inspection with its items. The backend
// assigns the inspection number and derives passed and failed counts.
func (c *Client) CreateInspection(ctx context.Context, req inspection.Request) (*inspection.Inspection, error) {
	if !req.Type.Valid() {
		return nil, errs.Validation("apiclient: create inspection", "unknown inspection type %q", req.Type)
	}
	return send[inspection.Inspection](ctx, c, http.MethodPost, "/quality-inspections", nil, req)
}

// CompleteInspection closes an inspection with a final result. Results
// other than PASS, FAIL and CONDITIONAL_PASS are refused without a request.
func (c *Client) CompleteInspection(ctx context.Context, id int64, result types.Result) (*inspection.Inspection, error) {
	if !result.Final() {
		return nil, errs.Validation("apiclient: complete inspection", "result %q is not a final result", result)
	}
	q := url.Values{"result": {string(result)}}
	return send[inspection.Inspection](ctx, c, http.MethodPut, pathf("/quality-inspections/%d/complete", id), q, nil)
}

// UpdateInspectionItem saves the measurement of one item in place.
func (c *Client) UpdateInspectionItem(ctx context.Context, inspectionID int64, item inspection.Item) (*inspection.Item, error) {
	if item.ID == 0 {
		return nil, errs.Validation("apiclient: update inspection item", "item has no id")
	}
	path := pathf("/quality-inspections/%d/items/%d", inspectionID, item.ID)
	return send[inspection.Item](ctx, c, http.MethodPut, path, nil, item.ToRequest())
}

func (c *Client) InspectionsByLot(ctx context.Context, lotID int64) ([]inspection.Inspection, error) {
	return get[[]inspection.Inspection](ctx, c, pathf("/quality-inspections/lot/%d", lotID), nil)
}

func (c *Client) InspectionsByType(ctx context.Context, t types.InspectionType) ([]inspection.Inspection, error) {
	if !t.Valid() {
		return nil, errs.Validation("apiclient: inspections by type", "unknown inspection type %q", t)
	}
	return get[[]inspection.Inspection](ctx, c, pathf("/quality-inspections/type/%s", string(t)), nil)
}

func (c *Client) InspectionsByResult(ctx context.Context, r types.Result) ([]inspection.Inspection, error) {
	if !r.Valid() {
		return nil, errs.Validation("apiclient: inspections by result", "unknown result %q", r)
	}
	return get[[]inspection.Inspection](ctx, c, pathf("/quality-inspections/result/%s", string(r)), nil)
}

func (c *Client) ListStandards(ctx context.Context) ([]inspection.Standard, error) {
	return get[[]inspection.Standard](ctx, c, "/quality-inspections/standards", nil)
}

// StandardsForProduct returns the active standards of a product, narrowed
// to one inspection type when t is non-empty.
func (c *Client) StandardsForProduct(ctx context.Context, productID int64, t types.InspectionType) ([]inspection.Standard, error) {
	var q url.Values
	if t != "" {
		if !t.Valid() {
			return nil, errs.Validation("apiclient: standards for product", "unknown inspection type %q", t)
		}
		q = url.Values{"type": {string(t)}}
	}
	return get[[]inspection.Standard](ctx, c, pathf("/quality-inspections/standards/product/%d", productID), q)
}

func (c *Client) CreateStandard(ctx context.Context, s inspection.Standard) (*inspection.Standard, error) {
	return send[inspection.Standard](ctx, c, http.MethodPost, "/quality-inspections/standards", nil, s)
}
