// Package config loads simplegit configuration.
//
// It handles:
//   - The clone root that bounds local filesystem access
//   - GitHub OAuth application settings and API endpoints
//   - Auth session and network timeouts, and the outbound host allow-list
//   - Repository watching and log file settings
package config
