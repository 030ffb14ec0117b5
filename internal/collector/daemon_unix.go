//go:build unix

package collector

import "syscall"

// detachAttr puts the daemon child in its own session so it survives the
// parent's terminal going away.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
