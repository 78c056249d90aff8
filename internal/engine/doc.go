// Package engine dispatches repository operations.
//
// Each call names one operation against either a local working tree or a
// remote repository identifier and yields exactly one Result. Operations on
// the same path are serialized; remote operations read the access token from
// the credential store and fail with an AuthRequiredError before any network
// access when none is present.
package engine
