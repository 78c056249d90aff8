// Package auth runs the browser based OAuth login against GitHub.
//
// A Manager owns at most one pending session. Each session binds a loopback
// callback listener, opens the authorization page, and ends in exactly one
// terminal state. Every asynchronous completion carries the id of the session
// it belongs to and is dropped when that session is no longer current.
package auth
