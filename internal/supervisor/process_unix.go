//go:build !windows

package supervisor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// configureProcAttr puts the server in its own process group so that npx or
// uvx wrappers and their children are signalled together, and so that the
// server survives the exit of the mcpdeck process that started it.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// attachStdin gives the server a FIFO opened read-write as stdin. The
// server holds a writer itself, so it never sees EOF after mcpdeck exits.
func (l *Local) attachStdin(cmd *exec.Cmd, name string) (io.Closer, error) {
	if err := os.MkdirAll(l.fifoDir(), 0700); err != nil {
		return nil, err
	}
	path := filepath.Join(l.fifoDir(), fileName(name))
	if err := syscall.Mkfifo(path, 0600); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	cmd.Stdin = f
	return f, nil
}

// terminate signals the process group of pid, falling back to the process
// alone.
func terminate(pid int, kill bool) error {
	sig := syscall.SIGTERM
	if kill {
		sig = syscall.SIGKILL
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		if err2 := syscall.Kill(pid, sig); err2 != nil && !errors.Is(err2, syscall.ESRCH) {
			return err2
		}
	}
	return nil
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
