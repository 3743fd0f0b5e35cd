package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the judgement attached to an inspection item or a whole inspection.
// Items only ever hold Pending, Pass or Fail; ConditionalPass is an aggregate.
type Result string

const (
	ResultPending         Result = "PENDING"
	ResultPass            Result = "PASS"
	ResultFail            Result = "FAIL"
	ResultConditionalPass Result = "CONDITIONAL_PASS"
)

// Results lists every Result in declaration order.
var Results = []Result{ResultPending, ResultPass, ResultFail, ResultConditionalPass}

// ParseResult converts a label such as "pass" or "PASS" into a Result.
func ParseResult(s string) (Result, error) { return parseEnum(s, Results, "result") }

// Valid reports whether r is one of the declared values.
func (r Result) Valid() bool { return contains(Results, r) }

// Final reports whether r may be used to complete an inspection.
func (r Result) Final() bool {
	switch r {
	case ResultPass, ResultFail, ResultConditionalPass:
		return true
	case ResultPending:
		return false
	default:
		return false
	}
}

func (r *Result) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, r, Results, "result") }

// InspectionStatus is the lifecycle state of a quality inspection.
type InspectionStatus string

const (
	InspectionPending    InspectionStatus = "PENDING"
	InspectionInProgress InspectionStatus = "IN_PROGRESS"
	InspectionCompleted  InspectionStatus = "COMPLETED"
	InspectionCancelled  InspectionStatus = "CANCELLED"
)

var InspectionStatuses = []InspectionStatus{
	InspectionPending, InspectionInProgress, InspectionCompleted, InspectionCancelled,
}

func ParseInspectionStatus(s string) (InspectionStatus, error) {
	return parseEnum(s, InspectionStatuses, "inspection status")
}

func (s InspectionStatus) Valid() bool { return contains(InspectionStatuses, s) }

// Terminal reports whether no further transition is allowed out of s.
func (s InspectionStatus) Terminal() bool {
	return s == InspectionCompleted || s == InspectionCancelled
}

func (s *InspectionStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, InspectionStatuses, "inspection status")
}

// InspectionType tags the stage at which a standard applies.
type InspectionType string

const (
	InspectionIncoming  InspectionType = "INCOMING"
	InspectionInProcess InspectionType = "IN_PROCESS"
	InspectionFinal     InspectionType = "FINAL"
	InspectionOutgoing  InspectionType = "OUTGOING"
)

var InspectionTypes = []InspectionType{
	InspectionIncoming, InspectionInProcess, InspectionFinal, InspectionOutgoing,
}

func ParseInspectionType(s string) (InspectionType, error) {
	return parseEnum(s, InspectionTypes, "inspection type")
}

func (t InspectionType) Valid() bool { return contains(InspectionTypes, t) }

func (t *InspectionType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, t, InspectionTypes, "inspection type")
}

// LotStatus is the production state of a lot.
type LotStatus string

const (
	LotCreated    LotStatus = "CREATED"
	LotInProgress LotStatus = "IN_PROGRESS"
	LotCompleted  LotStatus = "COMPLETED"
	LotOnHold     LotStatus = "ON_HOLD"
	LotRejected   LotStatus = "REJECTED"
	LotShipped    LotStatus = "SHIPPED"
)

var LotStatuses = []LotStatus{
	LotCreated, LotInProgress, LotCompleted, LotOnHold, LotRejected, LotShipped,
}

func ParseLotStatus(s string) (LotStatus, error) { return parseEnum(s, LotStatuses, "lot status") }

func (s LotStatus) Valid() bool { return contains(LotStatuses, s) }

func (s *LotStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, LotStatuses, "lot status")
}

// WorkOrderStatus is the progress state of a work order.
type WorkOrderStatus string

const (
	WorkOrderPlanned    WorkOrderStatus = "PLANNED"
	WorkOrderStarted    WorkOrderStatus = "STARTED"
	WorkOrderInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderCompleted  WorkOrderStatus = "COMPLETED"
	WorkOrderRejected   WorkOrderStatus = "REJECTED"
)

var WorkOrderStatuses = []WorkOrderStatus{
	WorkOrderPlanned, WorkOrderStarted, WorkOrderInProgress, WorkOrderCompleted, WorkOrderRejected,
}

func ParseWorkOrderStatus(s string) (WorkOrderStatus, error) {
	return parseEnum(s, WorkOrderStatuses, "work order status")
}

func (s WorkOrderStatus) Valid() bool { return contains(WorkOrderStatuses, s) }

func (s *WorkOrderStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, WorkOrderStatuses, "work order status")
}

// EquipmentStatus is the run state reported by a machine.
type EquipmentStatus string

const (
	EquipmentRun   EquipmentStatus = "RUN"
	EquipmentIdle  EquipmentStatus = "IDLE"
	EquipmentAlarm EquipmentStatus = "ALARM"
)

var EquipmentStatuses = []EquipmentStatus{EquipmentRun, EquipmentIdle, EquipmentAlarm}

func ParseEquipmentStatus(s string) (EquipmentStatus, error) {
	return parseEnum(s, EquipmentStatuses, "equipment status")
}

func (s EquipmentStatus) Valid() bool { return contains(EquipmentStatuses, s) }

func (s *EquipmentStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, EquipmentStatuses, "equipment status")
}

// ConnState is the health of a live stream subscription.
type ConnState string

const (
	ConnDisconnected ConnState = "DISCONNECTED"
	ConnConnecting   ConnState = "CONNECTING"
	ConnConnected    ConnState = "CONNECTED"
	ConnErrored      ConnState = "ERRORED"
)

var ConnStates = []ConnState{ConnDisconnected, ConnConnecting, ConnConnected, ConnErrored}

func (s ConnState) Valid() bool { return contains(ConnStates, s) }

// Ordinal returns the position of s in ConnStates, or -1. Used as a gauge value.
func (s ConnState) Ordinal() int {
	for i, v := range ConnStates {
		if v == s {
			return i
		}
	}
	return -1
}

func (s *ConnState) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, s, ConnStates, "connection state")
}

// MetricName identifies one of the live equipment metrics. Unlike the other
// enums its labels are lower case, matching the push payload keys.
type MetricName string

const (
	MetricTemperature MetricName = "temperature"
	MetricVibration   MetricName = "vibration"
	MetricPressure    MetricName = "pressure"
)

// MetricNames lists the metrics kept in rolling windows, in display order.
var MetricNames = []MetricName{MetricTemperature, MetricVibration, MetricPressure}

func ParseMetricName(s string) (MetricName, error) {
	for _, m := range MetricNames {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

func (m MetricName) Valid() bool { return contains(MetricNames, m) }

// --- helpers ----------------------------------------------------------------

func contains[T ~string](all []T, v T) bool {
	for _, x := range all {
		if x == v {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](s string, all []T, kind string) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(s)))
	if contains(all, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

// unmarshalEnum decodes a JSON string into dst. JSON null leaves dst untouched.
func unmarshalEnum[T ~string](b []byte, dst *T, all []T, kind string) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if !contains(all, T(s)) {
		return fmt.Errorf("unknown %s %q", kind, s)
	}
	*dst = T(s)
	return nil
}
