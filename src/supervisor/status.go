package supervisor

import "sync/atomic"

// Status represents the lifecycle state of a supervised node process.
type Status uint32

const (
	// NotStarted means no process was spawned for the node by this
	// supervisor.
	NotStarted Status = iota

	// Running means the process was spawned and has not been observed to
	// exit.
	Running

	// Terminating means a TERM signal was delivered and the process has not
	// yet been observed to exit.
	Terminating

	// Stopped means the process exited, or was sent KILL.
	Stopped
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Running:
		return "Running"
	case Terminating:
		return "Terminating"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// NodeProcess is the handle a supervisor keeps for a spawned node process.
// The status is read and written from the watcher goroutine as well as from
// harness calls, hence the atomic accessors.
type NodeProcess struct {
	ID  int
	PID int

	status uint32
}

// Status returns the process's current lifecycle state.
func (p *NodeProcess) Status() Status {
	return Status(atomic.LoadUint32(&p.status))
}

func (p *NodeProcess) setStatus(s Status) {
	atomic.StoreUint32(&p.status, uint32(s))
}
