//go:build !windows

package tsserver

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the tsserver child in its own process group so
// killProcessGroup can reach any watcher or worker process it spawns, not
// just the direct child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to every process in pid's process group.
func killProcessGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}
