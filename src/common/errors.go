package common

import "fmt"

// ClusterErrType enumerates the harness error categories. They map to the
// distinct failure modes a cluster operation can hit: bad user input, a
// workspace or node directory that was never provisioned, a control-plane
// call that could not be completed, and a consistency check that found
// disagreeing peer lists.
type ClusterErrType uint32

const (
	Usage ClusterErrType = iota
	WorkspaceNotFound
	ControlPlane
	Mismatch
)

// ClusterErr is a typed harness error.
type ClusterErr struct {
	op      string
	errType ClusterErrType
	detail  string
}

func NewClusterErr(op string, errType ClusterErrType, detail string) ClusterErr {
	return ClusterErr{
		op:      op,
		errType: errType,
		detail:  detail,
	}
}

func (e ClusterErr) Error() string {
	m := "Unknown"
	switch e.errType {
	case Usage:
		m = "Usage"
	case WorkspaceNotFound:
		m = "Not Found"
	case ControlPlane:
		m = "Control Plane"
	case Mismatch:
		m = "Mismatch"
	}

	return fmt.Sprintf("%s, %s, %s", e.op, e.detail, m)
}

// Is reports whether err is a ClusterErr of type t.
func Is(err error, t ClusterErrType) bool {
	cerr, ok := err.(ClusterErr)
	return ok && cerr.errType == t
}
