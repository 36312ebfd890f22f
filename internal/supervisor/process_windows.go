//go:build windows

package supervisor

import (
	"io"
	"os"
	"os/exec"
	"syscall"
)

func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// attachStdin keeps a pipe open for the lifetime of this mcpdeck process.
// Servers started from a short-lived CLI invocation see EOF when it exits;
// use `mcpdeck serve` to keep them running.
func (l *Local) attachStdin(cmd *exec.Cmd, name string) (io.Closer, error) {
	return cmd.StdinPipe()
}

// terminate kills the process. Windows has no SIGTERM equivalent for
// console processes in another group.
func terminate(pid int, kill bool) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return p.Kill()
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
