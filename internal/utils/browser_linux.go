//go:build linux

package utils

import (
	"os/exec"
)

// openURL hands url to the desktop opener on Linux.
// It returns once the opener has been started.
func openURL(url string) error {
	return exec.Command("xdg-open", url).Start()
}
