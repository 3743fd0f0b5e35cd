package apiclient

import (
	"context"
	"net/http"
)

// ListWorkOrders returns every work order.
func (c *Client) ListWorkOrders(ctx context.Context) ([]WorkOrder, error) {
	return get[[]WorkOrder](ctx, c, "/work-orders", nil)
}

// GetWorkOrder returns one work order.
func (c *Client) GetWorkOrder(ctx context.Context, id int64) (*WorkOrder, error) {
	return send[WorkOrder](ctx, c, http.MethodGet, pathf("/work-orders/%d", id), nil, nil)
}

// CreateWorkOrder creates a work order in PLANNED state.
func (c *Client) CreateWorkOrder(ctx context.Context, req WorkOrderRequest) (*WorkOrder, error) {
	return send[WorkOrder](ctx, c, http.MethodPost, "/work-orders", nil, req)
}

func (c *Client) UpdateWorkOrder(ctx context.Context, id int64, req WorkOrderRequest) (*WorkOrder, error) {
	return send[WorkOrder](ctx, c, http.MethodPut, pathf("/work-orders/%d", id), nil, req)
}

func (c *Client) DeleteWorkOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/work-orders/%d", id), nil, nil, nil)
}

// StartWorkOrder moves a work order to STARTED.
func (c *Client) StartWorkOrder(ctx context.Context, id int64) (*WorkOrder, error) {
	return send[WorkOrder](ctx, c, http.MethodPost, pathf("/work-orders/%d/start", id), nil, nil)
}

// FinishWorkOrder moves a work order to COMPLETED.
func (c *Client) FinishWorkOrder(ctx context.Context, id int64) (*WorkOrder, error) {
	return send[WorkOrder](ctx, c, http.MethodPost, pathf("/work-orders/%d/finish", id), nil, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	return get[[]Product](ctx, c, "/products", nil)
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return send[Product](ctx, c, http.MethodGet, pathf("/products/%d", id), nil, nil)
}

func (c *Client) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	return send[Product](ctx, c, http.MethodPost, "/products", nil, req)
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, req ProductRequest) (*Product, error) {
	return send[Product](ctx, c, http.MethodPut, pathf("/products/%d", id), nil, req)
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/products/%d", id), nil, nil, nil)
}

func (c *Client) ListProcesses(ctx context.Context) ([]Process, error) {
	return get[[]Process](ctx, c, "/processes", nil)
}

func (c *Client) GetProcess(ctx context.Context, id int64) (*Process, error) {
	return send[Process](ctx, c, http.MethodGet, pathf("/processes/%d", id), nil, nil)
}

func (c *Client) CreateProcess(ctx context.Context, req ProcessRequest) (*Process, error) {
	return send[Process](ctx, c, http.MethodPost, "/processes", nil, req)
}

func (c *Client) UpdateProcess(ctx context.Context, id int64, req ProcessRequest) (*Process, error) {
	return send[Process](ctx, c, http.MethodPut, pathf("/processes/%d", id), nil, req)
}

func (c *Client) DeleteProcess(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/processes/%d", id), nil, nil, nil)
}

// ListRouting returns the route of one product in sequence order.
func (c *Client) ListRouting(ctx context.Context, productID int64) ([]Routing, error) {
	return get[[]Routing](ctx, c, pathf("/routing/product/%d", productID), nil)
}

func (c *Client) CreateRouting(ctx context.Context, r Routing) (*Routing, error) {
	return send[Routing](ctx, c, http.MethodPost, "/routing", nil, r)
}

func (c *Client) UpdateRouting(ctx context.Context, id int64, r Routing) (*Routing, error) {
	return send[Routing](ctx, c, http.MethodPut, pathf("/routing/%d", id), nil, r)
}

func (c *Client) DeleteRouting(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, pathf("/routing/%d", id), nil, nil, nil)
}
