// Package supervisor spawns and signals the node daemons of a cluster.
//
// A Supervisor only holds live handles for processes it spawned itself.
// Signals addressed to nodes it did not spawn are resolved through the pid
// record in the node directory, so a fresh harness invocation can stop a
// cluster started by a previous one.
package supervisor

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/blobmesh/blobmesh/src/common"
	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

// Supervisor manages the daemon processes of one cluster workspace.
type Supervisor struct {
	spec   *config.ClusterSpec
	logger *logrus.Entry

	procsLock sync.Mutex
	procs     map[int]*NodeProcess
}

// NewSupervisor returns a Supervisor over the workspace described by spec.
func NewSupervisor(spec *config.ClusterSpec) *Supervisor {
	return &Supervisor{
		spec:   spec,
		logger: spec.Logger().WithField("component", "supervisor"),
		procs:  make(map[int]*NodeProcess),
	}
}

// Start spawns the daemon process for one node. The node's combined output
// goes to out.log in its directory, and the pid is recorded in the node
// directory before Start returns. Starting a node whose directory was never
// materialized fails with a WorkspaceNotFound error.
func (s *Supervisor) Start(id int) error {
	if _, err := os.Stat(s.spec.NodeConfigFile(id)); err != nil {
		return common.NewClusterErr("start", common.WorkspaceNotFound,
			fmt.Sprintf("node%d", id))
	}

	s.procsLock.Lock()
	if proc, ok := s.procs[id]; ok && proc.Status() == Running {
		s.procsLock.Unlock()
		return fmt.Errorf("node%d is already running with pid %d", id, proc.PID)
	}
	s.procsLock.Unlock()

	out, err := os.Create(s.spec.NodeLogFile(id))
	if err != nil {
		return err
	}

	cmd := exec.Command(s.spec.DaemonBin, "run", "--datadir", s.spec.NodeDir(id))
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		out.Close()
		return err
	}

	pid := cmd.Process.Pid

	// The pid record is the only trace of the process that survives this
	// harness invocation. If it cannot be written, the spawn is undone.
	pidData := []byte(strconv.Itoa(pid) + "\n")
	if err := ioutil.WriteFile(s.spec.NodePidFile(id), pidData, 0755); err != nil {
		cmd.Process.Kill()
		out.Close()
		return err
	}

	proc := &NodeProcess{
		ID:  id,
		PID: pid,
	}
	proc.setStatus(Running)

	s.procsLock.Lock()
	s.procs[id] = proc
	s.procsLock.Unlock()

	s.logger.WithFields(logrus.Fields{
		"node": id,
		"pid":  pid,
	}).Debug("Started node")

	go s.watch(proc, cmd, out)

	return nil
}

// watch reaps the process when it exits, so no zombie is left behind, and
// records the exit in the node's status.
func (s *Supervisor) watch(proc *NodeProcess, cmd *exec.Cmd, out *os.File) {
	defer out.Close()

	err := cmd.Wait()

	proc.setStatus(Stopped)

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"node":  proc.ID,
			"error": err,
		}).Debug("Node process exited")
	} else {
		s.logger.WithField("node", proc.ID).Debug("Node process exited")
	}
}

// StartAll starts every node in ascending identifier order. A failure to
// spawn one node does not abort the remaining launches; the returned map
// carries one error per failed node and is empty on full success.
func (s *Supervisor) StartAll() map[int]error {
	failures := make(map[int]error)

	for id := 1; id <= s.spec.Nodes; id++ {
		if err := s.Start(id); err != nil {
			s.logger.WithFields(logrus.Fields{
				"node":  id,
				"error": err,
			}).Error("Failed to start node")
			failures[id] = err
		}
	}

	return failures
}

// Signal delivers sig to one node's process. The live handle is preferred;
// for nodes spawned by a previous invocation the pid record is used instead.
// A node with neither fails with a WorkspaceNotFound error. The delivery is
// not verified beyond what the kernel reports.
func (s *Supervisor) Signal(id int, sig syscall.Signal) error {
	s.procsLock.Lock()
	proc, ok := s.procs[id]
	s.procsLock.Unlock()

	pid := 0
	if ok {
		pid = proc.PID
	} else {
		var err error
		pid, err = s.readPid(id)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"node":  id,
				"error": err,
			}).Debug("No pid record")
			return common.NewClusterErr("signal", common.WorkspaceNotFound,
				fmt.Sprintf("node%d", id))
		}
	}

	osProc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := osProc.Signal(sig); err != nil {
		return err
	}

	if ok {
		switch sig {
		case syscall.SIGTERM:
			proc.setStatus(Terminating)
		case syscall.SIGKILL:
			proc.setStatus(Stopped)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"node":   id,
		"pid":    pid,
		"signal": sig,
	}).Debug("Signalled node")

	return nil
}

// SignalAll delivers sig to every node in ascending identifier order. A
// failed delivery does not stop the sweep; the returned map carries one error
// per failed node and is empty on full success.
func (s *Supervisor) SignalAll(sig syscall.Signal) map[int]error {
	failures := make(map[int]error)

	for id := 1; id <= s.spec.Nodes; id++ {
		if err := s.Signal(id, sig); err != nil {
			s.logger.WithFields(logrus.Fields{
				"node":  id,
				"error": err,
			}).Error("Failed to signal node")
			failures[id] = err
		}
	}

	return failures
}

// Status returns the lifecycle state of one node as observed by this
// supervisor. Nodes spawned by other invocations show as NotStarted.
func (s *Supervisor) Status(id int) Status {
	s.procsLock.Lock()
	defer s.procsLock.Unlock()

	if proc, ok := s.procs[id]; ok {
		return proc.Status()
	}

	return NotStarted
}

// Processes returns the live handles in ascending identifier order.
func (s *Supervisor) Processes() []*NodeProcess {
	s.procsLock.Lock()
	defer s.procsLock.Unlock()

	ids := make([]int, 0, len(s.procs))
	for id := range s.procs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	procs := make([]*NodeProcess, 0, len(ids))
	for _, id := range ids {
		procs = append(procs, s.procs[id])
	}

	return procs
}

func (s *Supervisor) readPid(id int) (int, error) {
	buf, err := ioutil.ReadFile(s.spec.NodePidFile(id))
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(buf)))
	if err != nil {
		return 0, fmt.Errorf("corrupt pid record %s: %v", s.spec.NodePidFile(id), err)
	}

	return pid, nil
}
