//go:build !windows

// Package process stops browser process trees left behind by the launcher.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group of pid, taking
// Chrome's renderer and GPU children down with it.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// best effort: launcher.Kill runs afterwards
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
