package apiclient

import (
	"context"
)

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	v, err := get[DashboardStats](ctx, c, "/dashboard/stats", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ProductionChart(ctx context.Context) ([]ChartPoint, error) {
	return get[[]ChartPoint](ctx, c, "/dashboard/production-chart", nil)
}

// DefectRate returns the cumulative good and defect counts.
func (c *Client) DefectRate(ctx context.Context) (*DefectCount, error) {
	v, err := get[DefectCount](ctx, c, "/dashboard/defect-rate", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Dashboard returns the aggregate dashboard payload in one call.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	v, err := get[Dashboard](ctx, c, "/dashboard", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) TodayProduction(ctx context.Context) (*TodayProductionStats, error) {
	v, err := get[TodayProductionStats](ctx, c, "/dashboard/production/today", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ProductDefectRates(ctx context.Context) ([]ProductDefectRate, error) {
	return get[[]ProductDefectRate](ctx, c, "/dashboard/defect-rates", nil)
}

func (c *Client) EquipmentStatuses(ctx context.Context) ([]EquipmentStatusSummary, error) {
	return get[[]EquipmentStatusSummary](ctx, c, "/dashboard/equipment/statuses", nil)
}

func (c *Client) WorkProgress(ctx context.Context) ([]WorkProgressInfo, error) {
	return get[[]WorkProgressInfo](ctx, c, "/dashboard/work/progress", nil)
}

// ProductionStatistics returns lot, defect, OEE and inspection totals.
func (c *Client) ProductionStatistics(ctx context.Context) (*ProductionStatistics, error) {
	v, err := get[ProductionStatistics](ctx, c, "/statistics/production", nil)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
