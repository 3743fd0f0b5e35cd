package inspection

import (
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

// CompletionGuard permits completing an inspection only while it is PENDING.
func CompletionGuard(status types.InspectionStatus) error {
	if status == types.InspectionPending {
		return nil
	}
	return errs.New(errs.KindInvalidStateTransition, "inspection.Complete",
		"cannot complete an inspection in status %s", status)
}

// Transition validates a lifecycle move. COMPLETED and CANCELLED are terminal.
func Transition(from, to types.InspectionStatus) error {
	ok := false
	switch {
	case from.Terminal():
	case from == types.InspectionPending:
		ok = to == types.InspectionInProgress || to == types.InspectionCompleted || to == types.InspectionCancelled
	case from == types.InspectionInProgress:
		ok = to == types.InspectionCompleted || to == types.InspectionCancelled
	}
	if !ok {
		return errs.New(errs.KindInvalidStateTransition, "inspection.Transition",
			"%s -> %s is not allowed", from, to)
	}
	return nil
}
