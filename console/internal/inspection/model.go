package inspection

import (
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

// Standard is a named acceptance range for one inspection characteristic.
// Bounds are text because qualitative standards ("no scratches") have none.
type Standard struct {
	ID             int64                `json:"id"`
	Code           string               `json:"code"`
	Name           string               `json:"name"`
	Category       string               `json:"category,omitempty"`
	StandardValue  string               `json:"standardValue,omitempty"`
	UpperLimit     string               `json:"upperLimit,omitempty"`
	LowerLimit     string               `json:"lowerLimit,omitempty"`
	Unit           string               `json:"unit,omitempty"`
	ApplicableType types.InspectionType `json:"applicableType,omitempty"`
	ProductID      int64                `json:"productId,omitempty"`
	Description    string               `json:"description,omitempty"`
	Active         *bool                `json:"isActive,omitempty"`
}

// Item is one measured characteristic within an inspection.
type Item struct {
	ID            int64        `json:"id,omitempty"`
	StandardID    int64        `json:"standardId"`
	StandardName  string       `json:"standardName,omitempty"`
	Category      string       `json:"category,omitempty"`
	MeasuredValue string       `json:"measuredValue,omitempty"`
	StandardValue string       `json:"standardValue,omitempty"`
	UpperLimit    string       `json:"upperLimit,omitempty"`
	LowerLimit    string       `json:"lowerLimit,omitempty"`
	Unit          string       `json:"unit,omitempty"`
	Result        types.Result `json:"result"`
	Remarks       string       `json:"remarks,omitempty"`
}

// ItemFromStandard returns a pending item whose bounds are copied from std.
func ItemFromStandard(std Standard) Item {
	return Item{
		StandardID:    std.ID,
		StandardName:  std.Name,
		Category:      std.Category,
		StandardValue: std.StandardValue,
		UpperLimit:    std.UpperLimit,
		LowerLimit:    std.LowerLimit,
		Unit:          std.Unit,
		Result:        types.ResultPending,
	}
}

// Inspection is one quality-check event against a lot.
type Inspection struct {
	ID               int64                  `json:"id"`
	InspectionNumber string                 `json:"inspectionNumber,omitempty"`
	LotID            int64                  `json:"lotId,omitempty"`
	LotNumber        string                 `json:"lotNumber,omitempty"`
	ProcessID        int64                  `json:"processId,omitempty"`
	ProcessName      string                 `json:"processName,omitempty"`
	Type             types.InspectionType   `json:"type"`
	Status           types.InspectionStatus `json:"status"`
	Result           *types.Result          `json:"result,omitempty"`
	SampleSize       int                    `json:"sampleSize,omitempty"`
	PassedCount      int                    `json:"passedCount"`
	FailedCount      int                    `json:"failedCount"`
	Inspector        string                 `json:"inspector,omitempty"`
	InspectionDate   types.LocalDateTime    `json:"inspectionDate,omitempty"`
	CreatedAt        types.LocalDateTime    `json:"createdAt,omitempty"`
	Items            []Item                 `json:"items"`
	Remarks          string                 `json:"remarks,omitempty"`
}

// ItemRequest is the per-item payload accepted by the backend.
type ItemRequest struct {
	StandardID    int64        `json:"standardId"`
	MeasuredValue string       `json:"measuredValue,omitempty"`
	Result        types.Result `json:"result,omitempty"`
	Remarks       string       `json:"remarks,omitempty"`
}

// Request creates an inspection.
type Request struct {
	LotID      int64                `json:"lotId"`
	ProcessID  int64                `json:"processId,omitempty"`
	Type       types.InspectionType `json:"type"`
	SampleSize int                  `json:"sampleSize,omitempty"`
	Inspector  string               `json:"inspector,omitempty"`
	Items      []ItemRequest        `json:"items"`
	Remarks    string               `json:"remarks,omitempty"`
}

// ToRequest converts an item to its request form.
func (it Item) ToRequest() ItemRequest {
	return ItemRequest{
		StandardID:    it.StandardID,
		MeasuredValue: it.MeasuredValue,
		Result:        it.Result,
		Remarks:       it.Remarks,
	}
}

// RequestFor rebuilds a creation request from an existing inspection and the
// given items. Used when saving by recreation.
func RequestFor(in *Inspection, items []Item) Request {
	req := Request{
		LotID:      in.LotID,
		ProcessID:  in.ProcessID,
		Type:       in.Type,
		SampleSize: in.SampleSize,
		Inspector:  in.Inspector,
		Remarks:    in.Remarks,
		Items:      make([]ItemRequest, 0, len(items)),
	}
	for _, it := range items {
		req.Items = append(req.Items, it.ToRequest())
	}
	return req
}

// NewRequest builds a creation request for lotID with one pending item per
// standard that applies to t. Inactive standards are skipped.
func NewRequest(lotID int64, t types.InspectionType, standards []Standard) (Request, error) {
	const op = "inspection.NewRequest"
	if lotID <= 0 {
		return Request{}, errs.Validation(op, "lot is required")
	}
	if !t.Valid() {
		return Request{}, errs.Validation(op, "unknown inspection type %q", t)
	}
	req := Request{LotID: lotID, Type: t}
	for _, std := range standards {
		if std.ApplicableType != t || (std.Active != nil && !*std.Active) {
			continue
		}
		req.Items = append(req.Items, ItemFromStandard(std).ToRequest())
	}
	if len(req.Items) == 0 {
		return Request{}, errs.Validation(op, "no %s standards apply", t)
	}
	return req, nil
}
