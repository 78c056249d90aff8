//go:build darwin

package utils

import (
	"os/exec"
)

// openURL hands url to the desktop opener on macOS
func openURL(url string) error {
	return exec.Command("open", url).Start()
}
