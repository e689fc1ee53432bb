package lifecycle

import "fmt"

// CredentialMissingError marks a dispatched event that needed the
// Launchpad credential secret but could not obtain it.
type CredentialMissingError struct {
	SecretID string // Empty when no secret ID is configured at all
	Cause    error
}

// Error implements the error interface.
func (e *CredentialMissingError) Error() string {
	if e.SecretID == "" {
		return "launchpad credential secret is not configured"
	}
	return fmt.Sprintf("launchpad credential secret %s is not readable: %v", e.SecretID, e.Cause)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *CredentialMissingError) Unwrap() error {
	return e.Cause
}

// IsCredentialMissingError checks if an error is a CredentialMissingError.
func IsCredentialMissingError(err error) bool {
	_, ok := err.(*CredentialMissingError)
	return ok
}
