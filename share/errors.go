package share

import "fmt"

// ConfigError reports a missing or invalid piece of static configuration.
// Configuration errors are fatal and never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "socialkit: config: " + e.Msg }

// StateError reports a failed correlation check during an authorization
// callback: a state or oauth_token that was never issued, does not match
// the cached value, or was already consumed. The flow must be restarted
// from GenerateAuthURL.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return "socialkit: state: " + e.Msg }

// UnsupportedError reports an operation the platform does not provide,
// most commonly token refresh. The caller must run a fresh authorization
// instead of retrying.
type UnsupportedError struct {
	Platform string
	Op       string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("socialkit: %s does not support %s", e.Platform, e.Op)
}

// UnknownPlatformError reports a platform name the factory cannot resolve.
type UnknownPlatformError struct {
	Name string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("socialkit: no match social media %q", e.Name)
}

// CapabilityError reports an invocation of a capability the adapter does
// not implement, such as listing channels on a platform without them.
type CapabilityError struct {
	Platform string
	Method   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("socialkit: %s has no method %q", e.Platform, e.Method)
}

// ShareError is the uniform vendor failure. Unauthorized signals that the
// stored access token is no longer valid at the remote platform and the
// user must re-link the account; every other failure is generic, with
// DevMsg carrying the raw diagnostics.
type ShareError struct {
	Msg          string
	DevMsg       string
	HTTPCode     int
	Unauthorized bool
	Cause        error
}

func (e *ShareError) Error() string {
	if e.DevMsg != "" {
		return fmt.Sprintf("socialkit: share: %s (dev: %s)", e.Msg, e.DevMsg)
	}
	return "socialkit: share: " + e.Msg
}

func (e *ShareError) Unwrap() error { return e.Cause }
