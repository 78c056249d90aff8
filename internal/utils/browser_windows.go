//go:build windows

package utils

import (
	"os/exec"
)

// openURL hands url to the desktop opener on Windows
func openURL(url string) error {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
}
