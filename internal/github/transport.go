package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// HostNotAllowedError is returned for requests to hosts outside the allow-list
type HostNotAllowedError struct {
	Host string
}

func (e *HostNotAllowedError) Error() string {
	return fmt.Sprintf("outbound requests to %q are not allowed", e.Host)
}

// AllowList is a set of hostnames outbound HTTP may reach
type AllowList struct {
	hosts map[string]struct{}
}

// NewAllowList builds an allow-list. Entries may include a port.
func NewAllowList(hosts []string) *AllowList {
	a := &AllowList{hosts: map[string]struct{}{}}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			a.hosts[h] = struct{}{}
		}
	}
	return a
}

// Allows reports whether host (optionally with port) is on the list
func (a *AllowList) Allows(host string) bool {
	host = strings.ToLower(host)
	if _, ok := a.hosts[host]; ok {
		return true
	}
	if i := strings.LastIndex(host, ":"); i > 0 {
		_, ok := a.hosts[host[:i]]
		return ok
	}
	return false
}

// CheckURL validates a clone or API URL against the list.
// Only http and https URLs are accepted.
func (a *AllowList) CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return sgerrors.NewValidationError("invalid URL %q", raw)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return sgerrors.NewValidationError("unsupported URL scheme %q", u.Scheme)
	}
	if !a.Allows(u.Host) {
		return sgerrors.NewValidationError("host %s is not an allowed provider host", u.Host)
	}
	return nil
}

// Transport returns a RoundTripper that refuses requests to hosts off the list
func (a *AllowList) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &allowListTransport{list: a, base: base}
}

// Client returns an HTTP client restricted to the list
func (a *AllowList) Client() *http.Client {
	return &http.Client{Transport: a.Transport(nil)}
}

type allowListTransport struct {
	list *AllowList
	base http.RoundTripper
}

func (t *allowListTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.list.Allows(req.URL.Host) {
		return nil, &HostNotAllowedError{Host: req.URL.Host}
	}
	return t.base.RoundTrip(req)
}
