// Package github talks to the GitHub REST API on behalf of the signed-in user
// and restricts outbound HTTP to the provider's hosts.
package github
