package utils

import (
	"fmt"
	"net/url"
)

// OpenBrowser opens an http or https URL in the default browser.
// Other schemes are refused so a crafted value cannot launch a local handler.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q URL in a browser", u.Scheme)
	}
	return openURL(u.String())
}
