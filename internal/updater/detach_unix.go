//go:build unix

package updater

import (
	"os/exec"
	"syscall"
)

// detach moves the command into its own process group.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
