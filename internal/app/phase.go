package app

// Phase is the state of the reset action.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseClearing
	PhaseRebuilding
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseClearing:
		return "clearing"
	case PhaseRebuilding:
		return "rebuilding"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}
