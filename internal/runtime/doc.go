// Package runtime wires configuration, logging, credentials, the auth
// manager and the operation engine into one context shared by CLI commands.
package runtime
