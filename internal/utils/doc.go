// Package utils provides shared utility functions.
//
// These utilities are used across multiple packages and include:
//   - Opening URLs in the user's default browser
//   - Path containment checks used to scope filesystem access
//   - Terminal and standard input detection for the CLI
package utils
