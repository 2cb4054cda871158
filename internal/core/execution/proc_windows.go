//go:build windows

package execution

import "os/exec"

func configureCommandProcess(cmd *exec.Cmd) {}
