//go:build !windows

package execution

import (
	"os/exec"
	"syscall"
)

// Scripts get their own process group so they are not tied to the server's
// terminal or signals.
func configureCommandProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
