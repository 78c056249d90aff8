package github

import (
	"fmt"
	"net/url"
	"strings"

	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// DefaultHost is assumed for identifiers that name no host
const DefaultHost = "github.com"

// Identifier names a remote repository as host/owner/name
type Identifier struct {
	Host  string
	Owner string
	Name  string
}

// ParseIdentifier accepts "owner/name", "host/owner/name" and
// "https://host/owner/name(.git)".
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, sgerrors.NewValidationError("repository identifier is required")
	}

	path := s
	host := DefaultHost
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return Identifier{}, sgerrors.NewValidationError("invalid repository URL %q", s)
		}
		host = u.Host
		path = strings.Trim(u.Path, "/")
	}

	parts := strings.Split(strings.TrimSuffix(path, ".git"), "/")
	switch {
	case len(parts) == 2 && !strings.Contains(s, "://"):
	case len(parts) == 3 && !strings.Contains(s, "://"):
		host, parts = parts[0], parts[1:]
	case len(parts) == 2:
	default:
		return Identifier{}, sgerrors.NewValidationError("repository identifier %q must look like owner/name", s)
	}

	id := Identifier{Host: strings.ToLower(host), Owner: parts[0], Name: parts[1]}
	if id.Owner == "" || id.Name == "" || id.Name == "." || id.Name == ".." {
		return Identifier{}, sgerrors.NewValidationError("repository identifier %q must look like owner/name", s)
	}
	return id, nil
}

// String returns host/owner/name
func (id Identifier) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Host, id.Owner, id.Name)
}

// FullName returns owner/name
func (id Identifier) FullName() string {
	return id.Owner + "/" + id.Name
}

// CloneURL returns the HTTPS clone URL
func (id Identifier) CloneURL() string {
	return fmt.Sprintf("https://%s/%s/%s.git", id.Host, id.Owner, id.Name)
}
