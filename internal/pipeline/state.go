package pipeline

// State is a step of one sync run.
type State int

// Run states, in the order a successful run passes through them.
const (
	StateIdle State = iota
	StateScanning
	StateScanError
	StateScanned
	StateAwaitingSelection
	StateEmptySelection
	StatePlanReady
	StateFetching
	StateAggregating
	StateAssembling
	StateAssemblyError
	StateDone
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateScanning:          "scanning",
	StateScanError:         "scan-error",
	StateScanned:           "scanned",
	StateAwaitingSelection: "awaiting-selection",
	StateEmptySelection:    "empty-selection",
	StatePlanReady:         "plan-ready",
	StateFetching:          "fetching",
	StateAggregating:       "aggregating",
	StateAssembling:        "assembling",
	StateAssemblyError:     "assembly-error",
	StateDone:              "done",
}

// String returns the state's name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateScanError, StateEmptySelection, StateAssemblyError, StateDone:
		return true
	}

	return false
}
