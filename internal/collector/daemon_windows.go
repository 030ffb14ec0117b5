//go:build windows

package collector

import "syscall"

// detachAttr detaches the daemon child from the parent console.
func detachAttr() *syscall.SysProcAttr {
	const createNewProcessGroup = 0x00000200
	const detachedProcess = 0x00000008
	return &syscall.SysProcAttr{CreationFlags: createNewProcessGroup | detachedProcess}
}
