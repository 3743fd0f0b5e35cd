package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

func (c *Client) ListLots(ctx context.Context) ([]Lot, error) {
	return get[[]Lot](ctx, c, "/lots", nil)
}

func (c *Client) GetLot(ctx context.Context, id int64) (*Lot, error) {
	return send[Lot](ctx, c, http.MethodGet, pathf("/lots/%d", id), nil, nil)
}

// GetLotByNumber looks a lot up by its LOT-YYYYMMDD-XXXX number.
func (c *Client) GetLotByNumber(ctx context.Context, number string) (*Lot, error) {
	return send[Lot](ctx, c, http.MethodGet, pathf("/lots/number/%s", number), nil, nil)
}

func (c *Client) CreateLot(ctx context.Context, req LotRequest) (*Lot, error) {
	return send[Lot](ctx, c, http.MethodPost, "/lots", nil, req)
}

// UpdateLotStatus sets a lot's status. Unknown statuses are refused
// without a request.
func (c *Client) UpdateLotStatus(ctx context.Context, id int64, status types.LotStatus) (*Lot, error) {
	if !status.Valid() {
		return nil, errs.Validation("apiclient: update lot status", "unknown lot status %q", status)
	}
	q := url.Values{"status": {string(status)}}
	return send[Lot](ctx, c, http.MethodPut, pathf("/lots/%d/status", id), q, nil)
}

// AddLotHistory records a process step against a lot. Invalid steps are
// refused without a request.
func (c *Client) AddLotHistory(ctx context.Context, req LotHistoryRequest) (*LotHistory, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return send[LotHistory](ctx, c, http.MethodPost, "/lots/history", nil, req)
}

func (c *Client) LotHistory(ctx context.Context, lotID int64) ([]LotHistory, error) {
	return get[[]LotHistory](ctx, c, pathf("/lots/%d/history", lotID), nil)
}

func (c *Client) LotHistoryByNumber(ctx context.Context, number string) ([]LotHistory, error) {
	return get[[]LotHistory](ctx, c, pathf("/lots/number/%s/history", number), nil)
}

func (c *Client) LotsByProduct(ctx context.Context, productID int64) ([]Lot, error) {
	return get[[]Lot](ctx, c, pathf("/lots/product/%d", productID), nil)
}

func (c *Client) LotsByWorkOrder(ctx context.Context, workOrderID int64) ([]Lot, error) {
	return get[[]Lot](ctx, c, pathf("/lots/work-order/%d", workOrderID), nil)
}

// SearchLots matches lots by number or product name. An empty keyword is
// refused without a request.
func (c *Client) SearchLots(ctx context.Context, keyword string) ([]Lot, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errs.Validation("apiclient: search lots", "keyword is required")
	}
	return get[[]Lot](ctx, c, "/lots/search", url.Values{"keyword": {keyword}})
}

// Validate checks that a step names its lot, process, equipment and operator
// and that output plus defects do not exceed the input quantity.
func (r LotHistoryRequest) Validate() error {
	const op = "apiclient: add lot history"
	switch {
	case r.LotID <= 0:
		return errs.Validation(op, "lot is required")
	case r.ProcessID <= 0:
		return errs.Validation(op, "process is required")
	case r.EquipmentID <= 0:
		return errs.Validation(op, "equipment is required")
	case strings.TrimSpace(r.Operator) == "":
		return errs.Validation(op, "operator is required")
	case r.InputQuantity < 0 || r.OutputQuantity < 0 || r.DefectQuantity < 0:
		return errs.Validation(op, "quantities must not be negative")
	case r.OutputQuantity+r.DefectQuantity > r.InputQuantity:
		return errs.Validation(op, "output %d + defect %d exceeds input %d",
			r.OutputQuantity, r.DefectQuantity, r.InputQuantity)
	}
	return nil
}
