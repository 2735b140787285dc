package orchestrator

// State is the engine lifecycle state. Transitions are validated so a
// bug in the loop shows up as an impossible-transition error instead of
// silent state corruption.
type State string

const (
	// StateIdle is the initial state before the loop starts.
	StateIdle State = "idle"
	// StateWaiting means the loop is sleeping until the next slot fires.
	StateWaiting State = "waiting"
	// StateSelecting means a slot fired and target selection is running.
	StateSelecting State = "selecting"
	// StateDelegating means generation and publishing are in flight.
	StateDelegating State = "delegating"
	// StateRecording means the ledger and audit trail are being written.
	StateRecording State = "recording"
	// StateFailed means the last cycle failed; the loop backs off and
	// returns to waiting.
	StateFailed State = "failed"
	// StateHalted means the ledger is unwritable and the loop refuses to
	// continue. Terminal.
	StateHalted State = "halted"
	// StateStopped means a clean shutdown completed. Terminal.
	StateStopped State = "stopped"
)

// validTransitions enumerates every legal state change.
var validTransitions = map[State][]State{
	StateIdle:       {StateWaiting, StateStopped},
	StateWaiting:    {StateSelecting, StateStopped},
	StateSelecting:  {StateDelegating, StateRecording, StateFailed, StateStopped},
	StateDelegating: {StateRecording, StateFailed, StateStopped},
	StateRecording:  {StateWaiting, StateHalted, StateStopped},
	StateFailed:     {StateWaiting, StateHalted, StateStopped},
	StateHalted:     {},
	StateStopped:    {},
}

// CanTransition reports whether moving from one state to another is
// legal.
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends the loop.
func (s State) Terminal() bool {
	return s == StateHalted || s == StateStopped
}
