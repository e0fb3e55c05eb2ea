package processor

import (
	"fmt"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// State is the processing stage of one document.
type State int

const (
	StateReceived State = iota
	StatePreprocessed
	StateRecognizing
	StateCorrecting
	StateScored
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StatePreprocessed:
		return "preprocessed"
	case StateRecognizing:
		return "recognizing"
	case StateCorrecting:
		return "correcting"
	case StateScored:
		return "scored"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// next is the only forward transition allowed from each state.
var next = map[State]State{
	StateReceived:     StatePreprocessed,
	StatePreprocessed: StateRecognizing,
	StateRecognizing:  StateCorrecting,
	StateCorrecting:   StateScored,
	StateScored:       StateDone,
}

// stateMachine tracks one document. It is not shared between goroutines.
type stateMachine struct {
	jobID  string
	state  State
	reason string
	logger *logging.Logger
}

func newStateMachine(jobID string, logger *logging.Logger) *stateMachine {
	return &stateMachine{jobID: jobID, state: StateReceived, logger: logger}
}

// advance moves to the next stage. Skipping a stage or leaving a terminal
// state is an error.
func (m *stateMachine) advance(to State) error {
	if m.state.Terminal() {
		return fmt.Errorf("job %s: cannot leave terminal state %s", m.jobID, m.state)
	}
	if to == StateFailed {
		return fmt.Errorf("job %s: use fail to enter %s", m.jobID, StateFailed)
	}
	if next[m.state] != to {
		return fmt.Errorf("job %s: illegal transition %s -> %s", m.jobID, m.state, to)
	}
	m.logger.Debug("State transition", "jobId", m.jobID, "from", m.state.String(), "to", to.String())
	m.state = to
	return nil
}

// fail enters Failed from any non-terminal state. Calling it again is a no-op.
func (m *stateMachine) fail(reason string) {
	if m.state.Terminal() {
		return
	}
	m.logger.Debug("State transition", "jobId", m.jobID, "from", m.state.String(), "to", StateFailed.String(), "reason", reason)
	m.state = StateFailed
	m.reason = reason
}

func (m *stateMachine) current() State {
	return m.state
}
