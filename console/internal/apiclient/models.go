package apiclient

import (
	"github.com/mesboard/mesboard/pkg/types"
)

// Product is a manufactured item with its ordered process route.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Processes   []Process `json:"processes,omitempty"`
}

// ProductRequest creates or updates a product.
type ProductRequest struct {
	Name       string  `json:"name"`
	ProcessIDs []int64 `json:"processIds,omitempty"`
}

// Process is one manufacturing step.
type Process struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Sequence    int    `json:"sequence"`
}

// ProcessRequest creates or updates a process.
type ProcessRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Sequence    int    `json:"sequence"`
}

// WorkOrder is a production order for a quantity of one product.
type WorkOrder struct {
	ID               int64                 `json:"id"`
	Product          *Product              `json:"product,omitempty"`
	Quantity         int                   `json:"quantity"`
	Status           types.WorkOrderStatus `json:"status"`
	StartTime        types.LocalDateTime   `json:"startTime"`
	FinishTime       types.LocalDateTime   `json:"finishTime"`
	PlannedStartDate types.LocalDateTime   `json:"plannedStartDate"`
	PlannedEndDate   types.LocalDateTime   `json:"plannedEndDate"`
}

// WorkOrderRequest creates or updates a work order.
type WorkOrderRequest struct {
	ProductID        int64               `json:"productId"`
	Quantity         int                 `json:"quantity"`
	PlannedStartDate types.LocalDateTime `json:"plannedStartDate"`
	PlannedEndDate   types.LocalDateTime `json:"plannedEndDate"`
}

// Equipment is a machine on the line.
type Equipment struct {
	ID       int64                 `json:"id"`
	Name     string                `json:"name"`
	Location string                `json:"location,omitempty"`
	Type     string                `json:"type,omitempty"`
	Status   types.EquipmentStatus `json:"status"`
	Sequence int                   `json:"sequence,omitempty"`
}

// Routing binds a process step of a product to a machine.
type Routing struct {
	ID           int64      `json:"id"`
	Product      *Product   `json:"product,omitempty"`
	Process      *Process   `json:"process,omitempty"`
	Equipment    *Equipment `json:"equipment,omitempty"`
	Sequence     int        `json:"sequence"`
	StandardTime int        `json:"standardTime,omitempty"`
}

// EquipmentData is one telemetry reading.
type EquipmentData struct {
	ID              int64                 `json:"id"`
	Status          types.EquipmentStatus `json:"status"`
	Temperature     float64               `json:"temperature"`
	ProductionSpeed float64               `json:"productionSpeed"`
	Timestamp       types.LocalDateTime   `json:"timestamp"`
}

// Defect is a catalogued defect type.
type Defect struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorkResult is the good and bad output of one process step of a work order.
type WorkResult struct {
	ID        int64               `json:"id"`
	WorkOrder *WorkOrder          `json:"workOrder,omitempty"`
	Process   *Process            `json:"process,omitempty"`
	GoodQty   int                 `json:"goodQty"`
	BadQty    int                 `json:"badQty"`
	Timestamp types.LocalDateTime `json:"timestamp"`
}

// DashboardStats is the summary behind /dashboard/stats.
type DashboardStats struct {
	TotalGoodQty int `json:"totalGoodQty"`
	TotalBadQty  int `json:"totalBadQty"`
}

// DefectCount is the payload of /dashboard/defect-rate.
type DefectCount struct {
	GoodCount   int `json:"goodCount"`
	DefectCount int `json:"defectCount"`
}

// ChartPoint is one point of the production chart.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TodayProductionStats is the production summary for the current day.
type TodayProductionStats struct {
	TotalGoodQty    int     `json:"totalGoodQty"`
	TotalBadQty     int     `json:"totalBadQty"`
	TotalQty        int     `json:"totalQty"`
	DefectRate      float64 `json:"defectRate"`
	TodayProduction int     `json:"todayProduction"`
	TodayDefects    int     `json:"todayDefects"`
}

// ProductDefectRate is the cumulative defect rate of one product.
type ProductDefectRate struct {
	ProductID    int64   `json:"productId"`
	ProductName  string  `json:"productName"`
	TotalGoodQty int     `json:"totalGoodQty"`
	TotalBadQty  int     `json:"totalBadQty"`
	DefectRate   float64 `json:"defectRate"`
}

// EquipmentStatusSummary is the latest reading of one machine.
type EquipmentStatusSummary struct {
	EquipmentID     int64                 `json:"equipmentId"`
	EquipmentName   string                `json:"equipmentName"`
	Location        string                `json:"location,omitempty"`
	Status          types.EquipmentStatus `json:"status"`
	Temperature     float64               `json:"temperature"`
	ProductionSpeed float64               `json:"productionSpeed"`
	LastUpdated     types.LocalDateTime   `json:"lastUpdated"`
}

// WorkProgressInfo is the completed share of a work order's route.
type WorkProgressInfo struct {
	WorkOrderID        int64                 `json:"workOrderId"`
	ProductName        string                `json:"productName"`
	Status             types.WorkOrderStatus `json:"status"`
	TotalProcesses     int                   `json:"totalProcesses"`
	CompletedProcesses int                   `json:"completedProcesses"`
	ProgressPercentage float64               `json:"progressPercentage"`
}

// Dashboard is the aggregate dashboard payload.
type Dashboard struct {
	TodayProduction    TodayProductionStats     `json:"todayProduction"`
	ProductDefectRates []ProductDefectRate      `json:"productDefectRates"`
	EquipmentStatuses  []EquipmentStatusSummary `json:"equipmentStatuses"`
	WorkProgresses     []WorkProgressInfo       `json:"workProgresses"`
}

// ProductionStatistics is the cross-lot production and quality summary.
type ProductionStatistics struct {
	TotalLots          int     `json:"totalLots"`
	CompletedLots      int     `json:"completedLots"`
	InProgressLots     int     `json:"inProgressLots"`
	TotalProduced      int     `json:"totalProduced"`
	TotalDefects       int     `json:"totalDefects"`
	OverallDefectRate  float64 `json:"overallDefectRate"`
	Availability       float64 `json:"availability"`
	Performance        float64 `json:"performance"`
	Quality            float64 `json:"quality"`
	OEE                float64 `json:"oee"`
	TotalInspections   int     `json:"totalInspections"`
	PassedInspections  int     `json:"passedInspections"`
	FailedInspections  int     `json:"failedInspections"`
	InspectionPassRate float64 `json:"inspectionPassRate"`
}

// Lot is a traceable production batch.
type Lot struct {
	ID             int64               `json:"id"`
	LotNumber      string              `json:"lotNumber"`
	ProductID      int64               `json:"productId,omitempty"`
	ProductName    string              `json:"productName,omitempty"`
	WorkOrderID    int64               `json:"workOrderId,omitempty"`
	Quantity       int                 `json:"quantity"`
	Status         types.LotStatus     `json:"status"`
	CreatedAt      types.LocalDateTime `json:"createdAt"`
	StartedAt      types.LocalDateTime `json:"startedAt"`
	CompletedAt    types.LocalDateTime `json:"completedAt"`
	Remarks        string              `json:"remarks,omitempty"`
	TotalProcessed int                 `json:"totalProcessed"`
	DefectCount    int                 `json:"defectCount"`
}

// LotRequest creates a lot.
type LotRequest struct {
	ProductID   int64  `json:"productId"`
	WorkOrderID int64  `json:"workOrderId,omitempty"`
	Quantity    int    `json:"quantity"`
	Remarks     string `json:"remarks,omitempty"`
}

// LotHistory is one process step a lot went through. Result is the
// backend's process result label and is kept as text.
type LotHistory struct {
	ID             int64               `json:"id"`
	LotID          int64               `json:"lotId"`
	LotNumber      string              `json:"lotNumber,omitempty"`
	ProcessID      int64               `json:"processId,omitempty"`
	ProcessName    string              `json:"processName,omitempty"`
	EquipmentID    int64               `json:"equipmentId,omitempty"`
	EquipmentName  string              `json:"equipmentName,omitempty"`
	ProcessedAt    types.LocalDateTime `json:"processedAt"`
	InputQuantity  int                 `json:"inputQuantity"`
	OutputQuantity int                 `json:"outputQuantity"`
	DefectQuantity int                 `json:"defectQuantity"`
	Result         string              `json:"result,omitempty"`
	Operator       string              `json:"operator,omitempty"`
	Remarks        string              `json:"remarks,omitempty"`
}

// LotHistoryRequest records a process step for a lot.
type LotHistoryRequest struct {
	LotID          int64  `json:"lotId"`
	ProcessID      int64  `json:"processId"`
	EquipmentID    int64  `json:"equipmentId,omitempty"`
	InputQuantity  int    `json:"inputQuantity"`
	OutputQuantity int    `json:"outputQuantity"`
	DefectQuantity int    `json:"defectQuantity"`
	Result         string `json:"result,omitempty"`
	Operator       string `json:"operator,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}
