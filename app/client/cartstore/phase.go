package cartstore

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseIdle
	PhaseOptimistic
	PhaseReconciled
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseReconciled:
		return "reconciled"
	case PhaseRolledBack:
		return "rolled-back"
	default:
		return "unknown"
	}
}
