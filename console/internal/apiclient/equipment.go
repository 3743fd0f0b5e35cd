package apiclient

import (
	"context"
	"net/http"
)

func (c *Client) ListEquipment(ctx context.Context) ([]Equipment, error) {
	return get[[]Equipment](ctx, c, "/equipment", nil)
}

func (c *Client) GetEquipment(ctx context.Context, id int64) (*Equipment, error) {
	return send[Equipment](ctx, c, http.MethodGet, pathf("/equipment/%d", id), nil, nil)
}

// EquipmentStatus returns the latest reading of every machine.
func (c *Client) EquipmentStatus(ctx context.Context) ([]EquipmentStatusSummary, error) {
	return get[[]EquipmentStatusSummary](ctx, c, "/equipment/status", nil)
}

// EquipmentData returns the reading history of one machine.
func (c *Client) EquipmentData(ctx context.Context, equipmentID int64) ([]EquipmentData, error) {
	return get[[]EquipmentData](ctx, c, pathf("/equipment-data/%d", equipmentID), nil)
}

func (c *Client) ListDefects(ctx context.Context) ([]Defect, error) {
	return get[[]Defect](ctx, c, "/defects", nil)
}

func (c *Client) GetDefect(ctx context.Context, id int64) (*Defect, error) {
	return send[Defect](ctx, c, http.MethodGet, pathf("/defects/%d", id), nil, nil)
}

func (c *Client) CreateDefect(ctx context.Context, d Defect) (*Defect, error) {
	return send[Defect](ctx, c, http.MethodPost, "/defects", nil, d)
}

func (c *Client) UpdateDefect(ctx context.Context, id int64, d Defect) (*Defect, error) {
	return send[Defect](ctx, c, http.MethodPut, pathf("/defects/%d", id), nil, d)
}

func (c *Client) DeleteDefect(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/defects/%d", id), nil, nil, nil)
}

// DefectStats returns occurrence counts keyed by defect name.
func (c *Client) DefectStats(ctx context.Context) (map[string]int, error) {
	return get[map[string]int](ctx, c, "/defects/stats", nil)
}

func (c *Client) ListWorkResults(ctx context.Context) ([]WorkResult, error) {
	return get[[]WorkResult](ctx, c, "/work-results", nil)
}

func (c *Client) WorkResultsByWorkOrder(ctx context.Context, workOrderID int64) ([]WorkResult, error) {
	return get[[]WorkResult](ctx, c, pathf("/work-results/work-order/%d", workOrderID), nil)
}

// CreateWorkResult records good and bad output for a process step.
func (c *Client) CreateWorkResult(ctx context.Context, r WorkResult) (*WorkResult, error) {
	return send[WorkResult](ctx, c, http.MethodPost, "/work-results", nil, r)
}
